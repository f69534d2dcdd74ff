package cache

import (
	"context"
	"time"

	c "github.com/patrickmn/go-cache"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
)

const scheduleKey = "fee-schedule"

// FeeScheduleCache fronts the administrator-owned schedule so live
// pre-flight estimates do not hit storage on every call. Writes go through
// to storage and refresh the cache.
type FeeScheduleCache struct {
	cache    *c.Cache
	storage  persistence.FeeScheduleStorage
	fallback model.FeeSchedule
}

func NewFeeScheduleCache(storage persistence.FeeScheduleStorage, fallback model.FeeSchedule) *FeeScheduleCache {
	return &FeeScheduleCache{
		cache:    c.New(5*time.Minute, 10*time.Minute),
		storage:  storage,
		fallback: fallback,
	}
}

func (fc *FeeScheduleCache) Get(ctx context.Context) (model.FeeSchedule, error) {
	if cached, found := fc.cache.Get(scheduleKey); found {
		return cached.(model.FeeSchedule), nil
	}
	schedule, err := fc.storage.GetFeeSchedule(ctx)
	if err != nil {
		return model.FeeSchedule{}, err
	}
	if schedule == nil {
		return fc.fallback, nil
	}
	fc.cache.Set(scheduleKey, *schedule, c.DefaultExpiration)
	return *schedule, nil
}

func (fc *FeeScheduleCache) Put(ctx context.Context, schedule model.FeeSchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	if err := fc.storage.SaveFeeSchedule(ctx, schedule); err != nil {
		return err
	}
	fc.cache.Set(scheduleKey, schedule, c.DefaultExpiration)
	return nil
}
