package trailfee

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	bpsPerUnit    = decimal.NewFromInt(10000)
	monthsPerYear = decimal.NewFromInt(12)
)

// Commission returns the holding value (units × nav) and the monthly trail
// fee (value × bps / 10000 / 12). A missing nav or rate leaves both nil.
// Nothing is rounded.
func Commission(units Amount, nav, bps *Amount) (value, fee *Amount) {
	if nav == nil || bps == nil {
		return nil, nil
	}
	value = amountPtr(Amount{units.Mul(nav.Decimal)})
	fee = amountPtr(Amount{value.Mul(bps.Decimal).Div(bpsPerUnit).Div(monthsPerYear)})
	return value, fee
}

// applyCommission fills holding value and fee on each record. rate, when
// non-nil, overrides the per-record rate.
func applyCommission(records []ResultRecord, rate *Amount) []ResultRecord {
	out := make([]ResultRecord, len(records))
	for i, r := range records {
		if rate != nil {
			r.RateBps = rate
		}
		r.HoldingValue, r.Commission = Commission(r.Units, r.NAV, r.RateBps)
		out[i] = r
	}
	return out
}

// ValidateFlatBps checks a flat rate against [0, 200] bps in steps of 0.5.
func ValidateFlatBps(bps decimal.Decimal) error {
	if bps.LessThan(MinFlatBps) || bps.GreaterThan(MaxFlatBps) {
		return NewError(ErrCodeInvalidInput, fmt.Sprintf("bps must be between %s and %s, got %s", MinFlatBps, MaxFlatBps, bps))
	}
	if !bps.Mod(FlatBpsStep).IsZero() {
		return NewError(ErrCodeInvalidInput, fmt.Sprintf("bps must be a multiple of %s, got %s", FlatBpsStep, bps))
	}
	return nil
}
