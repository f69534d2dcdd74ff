package model

import (
	"encoding/json"
	"fmt"
)

// FlowInitiationRequest is the wire shape produced by the planning/quote
// collaborator. Steps arrive as a step1..stepN keyed object rather than an
// array, so ordering is recovered from the key suffix.
type FlowInitiationRequest struct {
	Amount          string              `json:"amount"`
	Recipient       string              `json:"recipient_address"`
	Chain           string              `json:"chain"`
	TransactionFlow map[string]StepSpec `json:"transaction_flow"`
	CostSimulation  *CostSimulation     `json:"cost_simulation,omitempty"`
	UsingTestTokens bool                `json:"using_test_tokens,omitempty"`
	TokenAddresses  map[string]string   `json:"token_addresses,omitempty"`
}

// ToDefinition orders the step map and validates the result. Step keys must
// form the contiguous sequence step1..stepN.
func (r FlowInitiationRequest) ToDefinition() (*FlowDefinition, error) {
	if len(r.TransactionFlow) == 0 {
		return nil, fmt.Errorf("initiation request has no transaction flow")
	}
	steps := make([]StepSpec, len(r.TransactionFlow))
	for i := range steps {
		spec, ok := r.TransactionFlow[fmt.Sprintf("step%d", i+1)]
		if !ok {
			return nil, fmt.Errorf("transaction flow is missing step%d", i+1)
		}
		steps[i] = spec
	}
	def := &FlowDefinition{
		Amount:          r.Amount,
		Recipient:       r.Recipient,
		Chain:           r.Chain,
		Steps:           steps,
		CostSimulation:  r.CostSimulation,
		UsingTestTokens: r.UsingTestTokens,
		TokenAddresses:  r.TokenAddresses,
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func ParseFlowInitiationRequest(data []byte) (*FlowDefinition, error) {
	var req FlowInitiationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid initiation payload: %w", err)
	}
	return req.ToDefinition()
}
