package redis

import (
	"context"

	rd "github.com/redis/go-redis/v9"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
	"github.com/psahay/rampflow/util"
	"go.uber.org/zap"
)

const FLOW_SESSION_KEY string = "FLOW:SESSION"

var _ persistence.FlowStateStorage = new(redisFlowDao)

type redisFlowDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.FlowContext]
}

func NewRedisFlowDao(conf Config, encoderDecoder util.EncoderDecoder[model.FlowContext]) *redisFlowDao {
	return &redisFlowDao{
		baseDao:        newBaseDao(conf),
		encoderDecoder: encoderDecoder,
	}
}

func (rf *redisFlowDao) SaveFlowContext(ctx context.Context, flowCtx *model.FlowContext) error {
	key := rf.getNamespaceKey(FLOW_SESSION_KEY)
	data, err := rf.encoderDecoder.Encode(*flowCtx)
	if err != nil {
		return err
	}
	if err := rf.redisClient.Set(ctx, key, string(data), 0).Err(); err != nil {
		logger.Error("error in saving flow context", zap.String("flowId", flowCtx.FlowId), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rf *redisFlowDao) GetFlowContext(ctx context.Context) (*model.FlowContext, error) {
	key := rf.getNamespaceKey(FLOW_SESSION_KEY)
	flowCtxStr, err := rf.redisClient.Get(ctx, key).Result()
	if err == rd.Nil {
		return nil, persistence.NoActiveFlowError{}
	}
	if err != nil {
		logger.Error("error in getting flow context", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	flowCtx, err := rf.encoderDecoder.Decode([]byte(flowCtxStr))
	if err != nil {
		return nil, err
	}
	return flowCtx, nil
}

func (rf *redisFlowDao) DeleteFlowContext(ctx context.Context) error {
	key := rf.getNamespaceKey(FLOW_SESSION_KEY)
	if err := rf.redisClient.Del(ctx, key).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
