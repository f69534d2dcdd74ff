package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validInitiationPayload = `{
	"amount": "100",
	"recipient_address": "IT60X0542811101000000123456",
	"chain": "sepolia",
	"transaction_flow": {
		"step2": {
			"name": "mint usdc",
			"description": "mint test usdc",
			"requiresSignature": true,
			"transactionTemplate": {"to": "0x00000000000000000000000000000000000000cc", "data": "0xdeadbeef"}
		},
		"step1": {
			"name": "check usdc balance",
			"description": "read current usdc balance",
			"requiresSignature": false,
			"balanceCheck": "0x00000000000000000000000000000000000000aa"
		},
		"step3": {
			"name": "fiat payout initiated",
			"description": "sepa transfer ordered"
		}
	},
	"cost_simulation": {"usd_amount": "100", "eur_amount": "91.52"},
	"using_test_tokens": true,
	"token_addresses": {"usdc": "0x00000000000000000000000000000000000000aa"}
}`

func TestParseFlowInitiationRequest(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test step order recovered from keys": testStepOrderRecovered,
		"test missing step key rejected":      testMissingStepRejected,
		"test empty flow rejected":            testEmptyFlowRejected,
		"test invalid destination rejected":   testInvalidDestinationRejected,
		"test signature flag mismatch":        testSignatureMismatchRejected,
		"test malformed json rejected":        testMalformedJsonRejected,
	} {
		t.Run(scenario, fn)
	}
}

func testStepOrderRecovered(t *testing.T) {
	def, err := ParseFlowInitiationRequest([]byte(validInitiationPayload))
	require.NoError(t, err)
	require.Len(t, def.Steps, 3)
	require.Equal(t, "check usdc balance", def.Steps[0].Name)
	require.Equal(t, "mint usdc", def.Steps[1].Name)
	require.Equal(t, "fiat payout initiated", def.Steps[2].Name)
	require.Equal(t, STEP_KIND_BALANCE, def.Steps[0].Kind())
	require.Equal(t, STEP_KIND_SIGNED_TX, def.Steps[1].Kind())
	require.Equal(t, STEP_KIND_NOOP, def.Steps[2].Kind())
	require.True(t, def.UsingTestTokens)
	require.Equal(t, "91.52", def.CostSimulation.EurAmount)
}

func testMissingStepRejected(t *testing.T) {
	req := FlowInitiationRequest{
		TransactionFlow: map[string]StepSpec{
			"step1": {Name: "first"},
			"step3": {Name: "third"},
		},
	}
	_, err := req.ToDefinition()
	require.ErrorContains(t, err, "step2")
}

func testEmptyFlowRejected(t *testing.T) {
	req := FlowInitiationRequest{}
	_, err := req.ToDefinition()
	require.Error(t, err)
}

func testInvalidDestinationRejected(t *testing.T) {
	req := FlowInitiationRequest{
		TransactionFlow: map[string]StepSpec{
			"step1": {
				Name:              "mint usdc",
				RequiresSignature: true,
				Template:          &TxTemplate{To: "not-an-address"},
			},
		},
	}
	_, err := req.ToDefinition()
	require.ErrorContains(t, err, "invalid destination")
}

func testSignatureMismatchRejected(t *testing.T) {
	req := FlowInitiationRequest{
		TransactionFlow: map[string]StepSpec{
			"step1": {
				Name:     "mint usdc",
				Template: &TxTemplate{To: "0x00000000000000000000000000000000000000cc"},
			},
		},
	}
	_, err := req.ToDefinition()
	require.ErrorContains(t, err, "signature")
}

func testMalformedJsonRejected(t *testing.T) {
	_, err := ParseFlowInitiationRequest([]byte(`{"transaction_flow": [`))
	require.ErrorContains(t, err, "invalid initiation payload")
}
