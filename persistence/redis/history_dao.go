package redis

import (
	"context"

	rd "github.com/redis/go-redis/v9"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
	"github.com/psahay/rampflow/util"
)

const HISTORY_KEY string = "FLOW:HISTORY"

var _ persistence.HistoryStorage = new(redisHistoryDao)

type redisHistoryDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.HistoryEntry]
}

func NewRedisHistoryDao(conf Config, encoderDecoder util.EncoderDecoder[model.HistoryEntry]) *redisHistoryDao {
	return &redisHistoryDao{
		baseDao:        newBaseDao(conf),
		encoderDecoder: encoderDecoder,
	}
}

// Push prepends and trims in one pipeline so the list never exceeds the
// bound even transiently.
func (rh *redisHistoryDao) Push(ctx context.Context, entry model.HistoryEntry, limit int) error {
	key := rh.getNamespaceKey(HISTORY_KEY)
	data, err := rh.encoderDecoder.Encode(entry)
	if err != nil {
		return err
	}
	_, err = rh.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.LPush(ctx, key, string(data))
		pipe.LTrim(ctx, key, 0, int64(limit-1))
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rh *redisHistoryDao) Replace(ctx context.Context, index int64, entry model.HistoryEntry) error {
	key := rh.getNamespaceKey(HISTORY_KEY)
	data, err := rh.encoderDecoder.Encode(entry)
	if err != nil {
		return err
	}
	if err := rh.redisClient.LSet(ctx, key, index, string(data)).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rh *redisHistoryDao) List(ctx context.Context) ([]model.HistoryEntry, error) {
	key := rh.getNamespaceKey(HISTORY_KEY)
	items, err := rh.redisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	entries := make([]model.HistoryEntry, 0, len(items))
	for _, item := range items {
		entry, err := rh.encoderDecoder.Decode([]byte(item))
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}
