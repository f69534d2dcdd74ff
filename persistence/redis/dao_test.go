package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
	"github.com/psahay/rampflow/util"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	srv := miniredis.RunT(t)
	return Config{
		Addr:      srv.Addr(),
		Namespace: "rampflow-test",
	}
}

func TestRedisFlowDao(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, dao *redisFlowDao){
		"test save and get round trip": testFlowRoundTrip,
		"test get without active flow": testFlowAbsent,
		"test delete removes flow":     testFlowDelete,
	} {
		t.Run(scenario, func(t *testing.T) {
			dao := NewRedisFlowDao(testConfig(t), util.NewJsonEncoderDecoder[model.FlowContext]())
			fn(t, dao)
		})
	}
}

func testFlowRoundTrip(t *testing.T, dao *redisFlowDao) {
	ctx := context.Background()
	flowCtx := &model.FlowContext{
		FlowId: uuid.New().String(),
		Definition: model.FlowDefinition{
			Amount: "100",
			Chain:  "sepolia",
			Steps: []model.StepSpec{
				{Name: "check balance", BalanceToken: "0x00000000000000000000000000000000000000aa"},
				{Name: "finish"},
			},
		},
		CurrentStep: 2,
		State:       model.AWAITING_USER,
		StepData:    map[string]any{"step1": map[string]any{"output": map[string]any{"balance": "42"}}},
	}
	require.NoError(t, dao.SaveFlowContext(ctx, flowCtx))

	got, err := dao.GetFlowContext(ctx)
	require.NoError(t, err)
	require.Equal(t, flowCtx.FlowId, got.FlowId)
	require.Equal(t, 2, got.CurrentStep)
	require.Equal(t, model.AWAITING_USER, got.State)
	require.Len(t, got.Definition.Steps, 2)
	require.NotNil(t, got.StepData["step1"])
}

func testFlowAbsent(t *testing.T, dao *redisFlowDao) {
	_, err := dao.GetFlowContext(context.Background())
	require.IsType(t, persistence.NoActiveFlowError{}, err)
}

func testFlowDelete(t *testing.T, dao *redisFlowDao) {
	ctx := context.Background()
	flowCtx := &model.FlowContext{FlowId: "f1", CurrentStep: 1, State: model.AWAITING_USER}
	require.NoError(t, dao.SaveFlowContext(ctx, flowCtx))
	require.NoError(t, dao.DeleteFlowContext(ctx))
	_, err := dao.GetFlowContext(ctx)
	require.IsType(t, persistence.NoActiveFlowError{}, err)
}

func TestRedisHistoryDao(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, dao *redisHistoryDao){
		"test push trims to limit": testHistoryTrim,
		"test replace at index":    testHistoryReplace,
	} {
		t.Run(scenario, func(t *testing.T) {
			dao := NewRedisHistoryDao(testConfig(t), util.NewJsonEncoderDecoder[model.HistoryEntry]())
			fn(t, dao)
		})
	}
}

func testHistoryTrim(t *testing.T, dao *redisHistoryDao) {
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		entry := model.HistoryEntry{
			Id:       fmt.Sprintf("id-%d", i),
			Category: "transaction",
			Status:   model.HISTORY_COMPLETED,
			Message:  fmt.Sprintf("entry %d", i),
		}
		require.NoError(t, dao.Push(ctx, entry, 10))
	}
	entries, err := dao.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	require.Equal(t, "id-12", entries[0].Id)
	require.Equal(t, "id-3", entries[9].Id)
}

func testHistoryReplace(t *testing.T, dao *redisHistoryDao) {
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		entry := model.HistoryEntry{Id: fmt.Sprintf("id-%d", i), Status: model.HISTORY_PENDING}
		require.NoError(t, dao.Push(ctx, entry, 10))
	}
	require.NoError(t, dao.Replace(ctx, 1, model.HistoryEntry{Id: "id-2", Status: model.HISTORY_COMPLETED}))
	entries, err := dao.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "id-2", entries[1].Id)
	require.Equal(t, model.HISTORY_COMPLETED, entries[1].Status)
	require.Equal(t, model.HISTORY_PENDING, entries[0].Status)
}

func TestRedisFeeDao(t *testing.T) {
	dao := NewRedisFeeDao(testConfig(t), util.NewJsonEncoderDecoder[model.FeeSchedule]())
	ctx := context.Background()

	schedule, err := dao.GetFeeSchedule(ctx)
	require.NoError(t, err)
	require.Nil(t, schedule)

	want := model.FeeSchedule{BuyFeeBps: 100, SwapFeeBps: 50, SellFeeBps: 100, ExchangeRate: 920000}
	require.NoError(t, dao.SaveFeeSchedule(ctx, want))

	schedule, err = dao.GetFeeSchedule(ctx)
	require.NoError(t, err)
	require.Equal(t, want, *schedule)
}
