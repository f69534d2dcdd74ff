package persistence

import (
	"context"

	"github.com/psahay/rampflow/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return "error in storage layer: " + e.Message
}

type NoActiveFlowError struct{}

func (e NoActiveFlowError) Error() string {
	return "no active flow"
}

// FlowStateStorage holds the single active flow under a fixed session key,
// overwritten wholesale on every mutation. Single writer: the sequencer.
type FlowStateStorage interface {
	SaveFlowContext(ctx context.Context, flowCtx *model.FlowContext) error
	GetFlowContext(ctx context.Context) (*model.FlowContext, error)
	DeleteFlowContext(ctx context.Context) error
}

// HistoryStorage is the ordered history list under its own fixed key,
// independent of the flow-session key. Push trims to the given bound.
type HistoryStorage interface {
	Push(ctx context.Context, entry model.HistoryEntry, limit int) error
	Replace(ctx context.Context, index int64, entry model.HistoryEntry) error
	List(ctx context.Context) ([]model.HistoryEntry, error)
}

// FeeScheduleStorage holds the administrator-owned fee schedule.
type FeeScheduleStorage interface {
	SaveFeeSchedule(ctx context.Context, schedule model.FeeSchedule) error
	GetFeeSchedule(ctx context.Context) (*model.FeeSchedule, error)
}
