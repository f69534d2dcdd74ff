package redis

import (
	"context"

	rd "github.com/redis/go-redis/v9"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
	"github.com/psahay/rampflow/util"
)

const FEE_SCHEDULE_KEY string = "FEES:SCHEDULE"

var _ persistence.FeeScheduleStorage = new(redisFeeDao)

type redisFeeDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.FeeSchedule]
}

func NewRedisFeeDao(conf Config, encoderDecoder util.EncoderDecoder[model.FeeSchedule]) *redisFeeDao {
	return &redisFeeDao{
		baseDao:        newBaseDao(conf),
		encoderDecoder: encoderDecoder,
	}
}

func (rf *redisFeeDao) SaveFeeSchedule(ctx context.Context, schedule model.FeeSchedule) error {
	key := rf.getNamespaceKey(FEE_SCHEDULE_KEY)
	data, err := rf.encoderDecoder.Encode(schedule)
	if err != nil {
		return err
	}
	if err := rf.redisClient.Set(ctx, key, string(data), 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rf *redisFeeDao) GetFeeSchedule(ctx context.Context) (*model.FeeSchedule, error) {
	key := rf.getNamespaceKey(FEE_SCHEDULE_KEY)
	scheduleStr, err := rf.redisClient.Get(ctx, key).Result()
	if err == rd.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rf.encoderDecoder.Decode([]byte(scheduleStr))
}
