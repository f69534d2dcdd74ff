package fees

import (
	"fmt"
	"math/big"

	"github.com/psahay/rampflow/model"
)

// All amounts are integers scaled to 6 decimal places, matching the
// settlement layer. Fee rates divide by 10^4 (basis points), the exchange
// rate by 10^6. Every division truncates; the stage order below must not
// change or the estimate drifts from the on-chain result.
var (
	bpsDivisor  = big.NewInt(10_000)
	rateDivisor = big.NewInt(1_000_000)
)

type Breakdown struct {
	UsdcAfterFee  *big.Int `json:"usdcAfterFee"`
	EurcAfterSwap *big.Int `json:"eurcAfterSwap"`
	EurFinal      *big.Int `json:"eurFinal"`
	BuyFee        *big.Int `json:"buyFee"`
	SwapFee       *big.Int `json:"swapFee"`
	SellFee       *big.Int `json:"sellFee"`
}

func Estimate(usdAmount *big.Int, schedule model.FeeSchedule) (*Breakdown, error) {
	if usdAmount == nil || usdAmount.Sign() < 0 {
		return nil, fmt.Errorf("usd amount must be non-negative")
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	buyFee := feeOf(usdAmount, schedule.BuyFeeBps)
	usdcAfterFee := new(big.Int).Sub(usdAmount, buyFee)

	rawEurc := new(big.Int).Mul(usdcAfterFee, new(big.Int).SetUint64(schedule.ExchangeRate))
	rawEurc.Quo(rawEurc, rateDivisor)

	swapFee := feeOf(rawEurc, schedule.SwapFeeBps)
	eurcAfterSwap := new(big.Int).Sub(rawEurc, swapFee)

	sellFee := feeOf(eurcAfterSwap, schedule.SellFeeBps)
	eurFinal := new(big.Int).Sub(eurcAfterSwap, sellFee)

	return &Breakdown{
		UsdcAfterFee:  usdcAfterFee,
		EurcAfterSwap: eurcAfterSwap,
		EurFinal:      eurFinal,
		BuyFee:        buyFee,
		SwapFee:       swapFee,
		SellFee:       sellFee,
	}, nil
}

func feeOf(amount *big.Int, bps uint64) *big.Int {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return fee.Quo(fee, bpsDivisor)
}
