package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
)

// DEFAULT_LIMIT bounds the ledger to the most recent entries, oldest
// evicted first on insert.
const DEFAULT_LIMIT = 10

// Ledger is the append-only, bounded record of flow and transaction
// outcomes. Update mutates an entry in place and never reorders the list.
// Record and Update serialize on mu: Update's positional write is resolved
// from a lookup, and an insert landing in between would shift every index.
type Ledger struct {
	mu      sync.Mutex
	storage persistence.HistoryStorage
	limit   int
}

func NewLedger(storage persistence.HistoryStorage, limit int) *Ledger {
	if limit <= 0 {
		limit = DEFAULT_LIMIT
	}
	return &Ledger{
		storage: storage,
		limit:   limit,
	}
}

func (l *Ledger) Record(ctx context.Context, category string, status model.HistoryStatus, payload map[string]any, message string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := model.HistoryEntry{
		Id:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Category:  category,
		Status:    status,
		Payload:   payload,
		Message:   message,
	}
	if err := l.storage.Push(ctx, entry, l.limit); err != nil {
		return "", err
	}
	return entry.Id, nil
}

func (l *Ledger) Update(ctx context.Context, id string, patch model.HistoryPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries, err := l.storage.List(ctx)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		if entry.Id != id {
			continue
		}
		entry.Apply(patch)
		return l.storage.Replace(ctx, int64(i), entry)
	}
	return fmt.Errorf("history entry %s not found", id)
}

// List returns entries most recent first.
func (l *Ledger) List(ctx context.Context) ([]model.HistoryEntry, error) {
	return l.storage.List(ctx)
}
