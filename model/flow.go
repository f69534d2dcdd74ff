package model

import "fmt"

type FlowState string

const IN_PROGRESS FlowState = "IN_PROGRESS"
const AWAITING_USER FlowState = "AWAITING_USER"
const COMPLETED FlowState = "COMPLETED"
const ABORTED FlowState = "ABORTED"

// FlowDefinition is the ordered step list plus the quote metadata it was
// planned from. Immutable once a flow instance is created.
type FlowDefinition struct {
	Amount          string            `json:"amount"`
	Recipient       string            `json:"recipient_address"`
	Chain           string            `json:"chain"`
	Steps           []StepSpec        `json:"steps"`
	CostSimulation  *CostSimulation   `json:"cost_simulation,omitempty"`
	UsingTestTokens bool              `json:"using_test_tokens,omitempty"`
	TokenAddresses  map[string]string `json:"token_addresses,omitempty"`
}

type CostSimulation struct {
	UsdAmount     string            `json:"usd_amount"`
	EurAmount     string            `json:"eur_amount"`
	ExchangeRates map[string]string `json:"exchange_rates,omitempty"`
	Fees          map[string]string `json:"fees,omitempty"`
}

func (d FlowDefinition) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("flow definition has no steps")
	}
	for _, step := range d.Steps {
		if err := step.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FlowContext is the persisted position of the single active flow. Only
// the sequencer mutates it; it is written wholesale after every step or
// state change and deleted on completion or abort.
type FlowContext struct {
	FlowId      string         `json:"flowId"`
	Definition  FlowDefinition `json:"data"`
	CurrentStep int            `json:"step"`
	State       FlowState      `json:"state"`
	LastOutcome *StepOutcome   `json:"lastOutcome,omitempty"`
	// LastOutcomeStep is the step the last outcome belongs to; a pending
	// outcome carried past its step on explicit user decision must not be
	// re-polled as if it were the current step's work.
	LastOutcomeStep int            `json:"lastOutcomeStep,omitempty"`
	StepData        map[string]any `json:"stepData,omitempty"`
	// PendingHistoryId tracks the ledger entry for an unconfirmed
	// transaction so it can be patched once finality is observed.
	PendingHistoryId string `json:"pendingHistoryId,omitempty"`
}

// Clone returns a copy detached from the receiver's mutable maps, safe to
// hand outside the sequencer's lock. The definition is immutable after
// initiation and stays shared.
func (c *FlowContext) Clone() *FlowContext {
	cp := *c
	if c.LastOutcome != nil {
		outcome := *c.LastOutcome
		cp.LastOutcome = &outcome
	}
	cp.StepData = deepCopyMap(c.StepData)
	return &cp
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func (c *FlowContext) TotalSteps() int {
	return len(c.Definition.Steps)
}

// StepInBounds reports whether the persisted step index is usable. An
// index of totalSteps+1 only ever exists transiently in memory, never in
// storage.
func (c *FlowContext) StepInBounds() bool {
	return c.CurrentStep >= 1 && c.CurrentStep <= c.TotalSteps()
}

func (c *FlowContext) CurrentSpec() StepSpec {
	return c.Definition.Steps[c.CurrentStep-1]
}
