package model

import "fmt"

// MAX_FEE_BPS caps every fee rate at 10% by policy.
const MAX_FEE_BPS uint64 = 1000

// FeeSchedule mirrors the settlement contract's fee configuration. Rates
// are basis points, the exchange rate is an integer scaled by 10^6.
type FeeSchedule struct {
	BuyFeeBps    uint64 `json:"buyFeeBps"`
	SwapFeeBps   uint64 `json:"swapFeeBps"`
	SellFeeBps   uint64 `json:"sellFeeBps"`
	ExchangeRate uint64 `json:"exchangeRateFixedPoint"`
}

func (s FeeSchedule) Validate() error {
	for name, bps := range map[string]uint64{
		"buyFeeBps":  s.BuyFeeBps,
		"swapFeeBps": s.SwapFeeBps,
		"sellFeeBps": s.SellFeeBps,
	} {
		if bps > MAX_FEE_BPS {
			return fmt.Errorf("%s %d exceeds maximum %d", name, bps, MAX_FEE_BPS)
		}
	}
	if s.ExchangeRate == 0 {
		return fmt.Errorf("exchange rate must be positive")
	}
	return nil
}
