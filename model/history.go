package model

import "time"

type HistoryStatus string

const HISTORY_PENDING HistoryStatus = "PENDING"
const HISTORY_COMPLETED HistoryStatus = "COMPLETED"
const HISTORY_FAILED HistoryStatus = "FAILED"

type HistoryEntry struct {
	Id        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Category  string         `json:"category"`
	Status    HistoryStatus  `json:"status"`
	Payload   map[string]any `json:"payload,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Clone detaches the payload map so readers cannot alias stored state.
func (e HistoryEntry) Clone() HistoryEntry {
	cp := e
	cp.Payload = deepCopyMap(e.Payload)
	return cp
}

// HistoryPatch mutates an entry in place. Nil fields are left untouched.
type HistoryPatch struct {
	Status  *HistoryStatus `json:"status,omitempty"`
	Message *string        `json:"message,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (e *HistoryEntry) Apply(patch HistoryPatch) {
	if patch.Status != nil {
		e.Status = *patch.Status
	}
	if patch.Message != nil {
		e.Message = *patch.Message
	}
	for k, v := range patch.Payload {
		if e.Payload == nil {
			e.Payload = make(map[string]any)
		}
		e.Payload[k] = v
	}
}
