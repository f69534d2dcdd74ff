package model

type OutcomeKind string

const OUTCOME_BALANCE OutcomeKind = "BALANCE"
const OUTCOME_TRANSACTION OutcomeKind = "TRANSACTION"
const OUTCOME_NO_SIGNATURE OutcomeKind = "NO_SIGNATURE"

// StepOutcome is the typed result of executing one step. Pending means a
// transaction was submitted but finality was not confirmed within the
// watcher's bound; it is not a failure.
type StepOutcome struct {
	Kind         OutcomeKind `json:"kind"`
	Ok           bool        `json:"ok"`
	Pending      bool        `json:"pending,omitempty"`
	TxHash       string      `json:"txHash,omitempty"`
	BlockNumber  uint64      `json:"blockNumber,omitempty"`
	Balance      string      `json:"balance,omitempty"`
	Message      string      `json:"message,omitempty"`
	UserRejected bool        `json:"userRejected,omitempty"`
	Dropped      bool        `json:"dropped,omitempty"`
}

func BalanceOutcome(balance string) StepOutcome {
	return StepOutcome{Kind: OUTCOME_BALANCE, Ok: true, Balance: balance}
}

func NoSignatureOutcome() StepOutcome {
	return StepOutcome{Kind: OUTCOME_NO_SIGNATURE, Ok: true}
}

func ConfirmedTxOutcome(txHash string, blockNumber uint64) StepOutcome {
	return StepOutcome{Kind: OUTCOME_TRANSACTION, Ok: true, TxHash: txHash, BlockNumber: blockNumber}
}

func PendingTxOutcome(txHash string, dropped bool) StepOutcome {
	return StepOutcome{Kind: OUTCOME_TRANSACTION, Ok: true, Pending: true, TxHash: txHash, Dropped: dropped}
}

func FailureOutcome(kind OutcomeKind, message string, userRejected bool) StepOutcome {
	return StepOutcome{Kind: kind, Ok: false, Message: message, UserRejected: userRejected}
}
