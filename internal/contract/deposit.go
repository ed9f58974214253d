package contract

import (
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SplitDeposit divides total into a deposit of floor(total*pct/100) and the final
// payment for the remainder, so the two always add back up to total.
func SplitDeposit(total int64, pct decimal.Decimal) (deposit, final int64, err error) {
	if total < 0 {
		return 0, 0, domainerr.New(domainerr.InvalidAmount, entity, "total amount must not be negative")
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return 0, 0, domainerr.New(domainerr.InvalidAmount, entity, "deposit percentage must be between 0 and 100")
	}
	deposit = decimal.NewFromInt(total).Mul(pct).Shift(-2).Floor().IntPart()
	return deposit, total - deposit, nil
}
