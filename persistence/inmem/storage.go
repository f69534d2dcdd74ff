package inmem

import (
	"context"
	"sync"

	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
)

var _ persistence.FlowStateStorage = new(Storage)
var _ persistence.HistoryStorage = new(Storage)
var _ persistence.FeeScheduleStorage = new(Storage)

// Storage backs the memory storage-impl and the test suites. The mutex is
// for safety across test goroutines only; the orchestrator itself is a
// single writer.
type Storage struct {
	mu       sync.Mutex
	flowCtx  *model.FlowContext
	history  []model.HistoryEntry
	schedule *model.FeeSchedule
}

func NewStorage() *Storage {
	return &Storage{}
}

func (s *Storage) SaveFlowContext(ctx context.Context, flowCtx *model.FlowContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flowCtx = flowCtx.Clone()
	return nil
}

func (s *Storage) GetFlowContext(ctx context.Context) (*model.FlowContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flowCtx == nil {
		return nil, persistence.NoActiveFlowError{}
	}
	return s.flowCtx.Clone(), nil
}

func (s *Storage) DeleteFlowContext(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flowCtx = nil
	return nil
}

func (s *Storage) Push(ctx context.Context, entry model.HistoryEntry, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]model.HistoryEntry{entry.Clone()}, s.history...)
	if len(s.history) > limit {
		s.history = s.history[:limit]
	}
	return nil
}

func (s *Storage) Replace(ctx context.Context, index int64, entry model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= int64(len(s.history)) {
		return persistence.StorageLayerError{Message: "history index out of range"}
	}
	s.history[index] = entry.Clone()
	return nil
}

func (s *Storage) List(ctx context.Context) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.HistoryEntry, len(s.history))
	for i, entry := range s.history {
		out[i] = entry.Clone()
	}
	return out, nil
}

func (s *Storage) SaveFeeSchedule(ctx context.Context, schedule model.FeeSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = &schedule
	return nil
}

func (s *Storage) GetFeeSchedule(ctx context.Context) (*model.FeeSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return nil, nil
	}
	cp := *s.schedule
	return &cp, nil
}
