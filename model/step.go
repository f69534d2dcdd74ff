package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type StepKind string

const STEP_KIND_SIGNED_TX StepKind = "SIGNED_TRANSACTION"
const STEP_KIND_BALANCE StepKind = "BALANCE_QUERY"
const STEP_KIND_NOOP StepKind = "NOOP"

// TxTemplate is the unsigned transaction shape handed over by the quote
// collaborator. Data and Value stay strings until execution so that
// placeholder tokens can be resolved against flow data first. From is
// always rewritten with the signer's active address before submission.
type TxTemplate struct {
	To    string `json:"to"`
	From  string `json:"from,omitempty"`
	Data  string `json:"data,omitempty"`
	Value string `json:"value,omitempty"`
	Gas   uint64 `json:"gas,omitempty"`
}

type StepSpec struct {
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Explanation       string      `json:"explanation,omitempty"`
	RequiresSignature bool        `json:"requiresSignature"`
	Template          *TxTemplate `json:"transactionTemplate,omitempty"`
	BalanceToken      string      `json:"balanceCheck,omitempty"`
}

// Kind is derived from capability, not declared by the payload.
func (s StepSpec) Kind() StepKind {
	if s.Template != nil {
		return STEP_KIND_SIGNED_TX
	}
	if len(s.BalanceToken) > 0 {
		return STEP_KIND_BALANCE
	}
	return STEP_KIND_NOOP
}

func (s StepSpec) Validate() error {
	if len(s.Name) == 0 {
		return fmt.Errorf("step has no name")
	}
	switch s.Kind() {
	case STEP_KIND_SIGNED_TX:
		if !s.RequiresSignature {
			return fmt.Errorf("step %s carries a transaction template but does not require a signature", s.Name)
		}
		if !common.IsHexAddress(s.Template.To) {
			return fmt.Errorf("step %s transaction template has invalid destination %q", s.Name, s.Template.To)
		}
	case STEP_KIND_BALANCE:
		if s.RequiresSignature {
			return fmt.Errorf("balance step %s must not require a signature", s.Name)
		}
		if !common.IsHexAddress(s.BalanceToken) {
			return fmt.Errorf("step %s has invalid balance token %q", s.Name, s.BalanceToken)
		}
	case STEP_KIND_NOOP:
		if s.RequiresSignature {
			return fmt.Errorf("informational step %s must not require a signature", s.Name)
		}
	}
	return nil
}
