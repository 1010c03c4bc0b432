package trailfee

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Strategy selects how commission rates are resolved and how holdings are joined.
type Strategy string

const (
	// StrategyFlat aggregates lots, joins the latest NAV per ISIN and applies one rate.
	StrategyFlat Strategy = "flat"
	// StrategyPerISIN joins NAVs on (ISIN, month end) and rates from a table keyed by ISIN.
	StrategyPerISIN Strategy = "per_isin"
)

var Strategies = []Strategy{StrategyFlat, StrategyPerISIN}

// ParseStrategy accepts "flat", "per_isin" and "per-isin".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return StrategyFlat, nil
	case "per_isin", "per-isin":
		return StrategyPerISIN, nil
	default:
		return "", NewError(ErrCodeInvalidInput, fmt.Sprintf("unknown strategy %q", s))
	}
}

// Flat rate limits, in basis points.
var (
	DefaultFlatBps = decimal.NewFromInt(60)
	MinFlatBps     = decimal.Zero
	MaxFlatBps     = decimal.NewFromInt(200)
	FlatBpsStep    = decimal.RequireFromString("0.5")
)

// Table names used in error details and warnings.
const (
	TableHoldings   = "holdings"
	TableValuations = "valuations"
	TableRates      = "rates"
)

// Input column names.
const (
	ColISIN     = "isin"
	ColFundName = "fund_name"
	ColCurrency = "currency"
	ColUnits    = "units"
	ColMonthEnd = "month_end"
	ColNAV      = "nav"
	ColBps      = "bps"
)

// HoldingRecord is one lot of a fund held at a month end.
type HoldingRecord struct {
	ISIN     string `json:"isin"`
	FundName string `json:"fund_name,omitempty"`
	Currency string `json:"currency"`
	Period   Period `json:"month_end"`
	Units    Amount `json:"units"`
}

// ValuationRecord is a NAV observation. A nil NAV means the cell was empty.
type ValuationRecord struct {
	ISIN   string  `json:"isin"`
	Period Period  `json:"month_end"`
	NAV    *Amount `json:"nav"`
}

// RateRecord is the commission rate of one ISIN. A nil Bps means the cell was empty.
type RateRecord struct {
	ISIN string  `json:"isin"`
	Bps  *Amount `json:"bps"`
}

// ResultRecord is one reconciled output row. Nil pointers mean the value
// could not be determined, which is distinct from zero.
type ResultRecord struct {
	ISIN          string  `json:"isin"`
	FundName      string  `json:"fund_name,omitempty"`
	Currency      string  `json:"currency"`
	Units         Amount  `json:"units"`
	HoldingPeriod Period  `json:"holding_period"`
	NAVPeriod     Period  `json:"nav_period"`
	NAV           *Amount `json:"nav"`
	RateBps       *Amount `json:"rate_bps"`
	HoldingValue  *Amount `json:"holding_value"`
	Commission    *Amount `json:"commission"`
}

// Warning codes.
const (
	WarnLatestNAVTie     = "LATEST_NAV_TIE"
	WarnDuplicateNAV     = "DUPLICATE_NAV"
	WarnDuplicateRate    = "DUPLICATE_RATE"
	WarnMissingValuation = "MISSING_VALUATION"
	WarnMissingRate      = "MISSING_RATE"
	WarnFutureValuations = "FUTURE_VALUATIONS_IGNORED"
)

// Warning reports a resolved ambiguity or a gap in the inputs. Warnings
// never stop a run.
type Warning struct {
	Code    string `json:"code"`
	Table   string `json:"table"`
	ISIN    string `json:"isin,omitempty"`
	Message string `json:"message"`
}

func normalizeISIN(isin string) string {
	return strings.ToUpper(strings.TrimSpace(isin))
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
