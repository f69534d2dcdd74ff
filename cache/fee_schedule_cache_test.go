package cache

import (
	"context"
	"testing"

	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence/inmem"
	"github.com/stretchr/testify/require"
)

var defaultSchedule = model.FeeSchedule{BuyFeeBps: 100, SwapFeeBps: 50, SellFeeBps: 100, ExchangeRate: 920000}

func TestFeeScheduleCache(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test fallback when storage empty": testFallbackWhenEmpty,
		"test put then get round trip":     testPutGetRoundTrip,
		"test invalid schedule rejected":   testInvalidScheduleRejected,
		"test storage value preferred":     testStorageValuePreferred,
	} {
		t.Run(scenario, fn)
	}
}

func testFallbackWhenEmpty(t *testing.T) {
	fc := NewFeeScheduleCache(inmem.NewStorage(), defaultSchedule)
	got, err := fc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaultSchedule, got)
}

func testPutGetRoundTrip(t *testing.T) {
	storage := inmem.NewStorage()
	fc := NewFeeScheduleCache(storage, defaultSchedule)
	ctx := context.Background()

	updated := model.FeeSchedule{BuyFeeBps: 75, SwapFeeBps: 25, SellFeeBps: 80, ExchangeRate: 915000}
	require.NoError(t, fc.Put(ctx, updated))

	got, err := fc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, updated, got)

	// the write went through to storage, not just the cache
	stored, err := storage.GetFeeSchedule(ctx)
	require.NoError(t, err)
	require.Equal(t, updated, *stored)
}

func testInvalidScheduleRejected(t *testing.T) {
	fc := NewFeeScheduleCache(inmem.NewStorage(), defaultSchedule)
	err := fc.Put(context.Background(), model.FeeSchedule{BuyFeeBps: 5000, ExchangeRate: 920000})
	require.Error(t, err)
}

func testStorageValuePreferred(t *testing.T) {
	storage := inmem.NewStorage()
	ctx := context.Background()
	stored := model.FeeSchedule{BuyFeeBps: 10, SwapFeeBps: 10, SellFeeBps: 10, ExchangeRate: 900000}
	require.NoError(t, storage.SaveFeeSchedule(ctx, stored))

	fc := NewFeeScheduleCache(storage, defaultSchedule)
	got, err := fc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, stored, got)
}
