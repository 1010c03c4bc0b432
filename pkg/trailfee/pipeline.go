package trailfee

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Input holds the parsed tables of one run. Rates is only read by the
// per_isin strategy; FlatBps and AsOf only by the flat strategy.
type Input struct {
	Strategy   Strategy
	Holdings   Table
	Valuations Table
	Rates      Table
	// FlatBps is applied to every row by the flat strategy. Callers that
	// have no user value pass DefaultFlatBps.
	FlatBps decimal.Decimal
	// AsOf, when set, hides valuations dated after it from the flat strategy.
	AsOf Period
}

// Result is the reconciled output of one run.
type Result struct {
	Strategy Strategy       `json:"strategy"`
	Records  []ResultRecord `json:"records"`
	Report   *Report        `json:"report"`
	Warnings []Warning      `json:"warnings"`
}

// Calculate runs validate, join, compute and present over in. It has no
// side effects: the same input always yields the same Result.
//
// Failures are *Error values: ErrCodeInvalidInput for a bad strategy, an
// out-of-range flat rate or malformed cells (*CellErrors), and
// ErrCodeSchema (*SchemaError) when required columns are missing. Schemas
// of all tables are checked before any row is decoded.
func Calculate(in Input) (*Result, error) {
	switch in.Strategy {
	case StrategyFlat:
		if err := ValidateFlatBps(in.FlatBps); err != nil {
			return nil, err
		}
	case StrategyPerISIN:
	default:
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("unknown strategy %q", in.Strategy))
	}

	tables := map[string]Table{
		TableHoldings:   in.Holdings,
		TableValuations: in.Valuations,
		TableRates:      in.Rates,
	}
	if err := checkSchemas(in.Strategy, tables); err != nil {
		return nil, err
	}

	errs := &CellErrors{}
	holdings := decodeHoldings(in.Holdings, in.Strategy, errs)
	vals := decodeValuations(in.Valuations, errs)
	var rates []RateRecord
	if in.Strategy == StrategyPerISIN {
		rates = decodeRates(in.Rates, errs)
	}
	if !errs.empty() {
		return nil, WrapError(ErrCodeInvalidInput, "input tables contain invalid cells", errs)
	}

	warnings := []Warning{}
	var records []ResultRecord
	switch in.Strategy {
	case StrategyFlat:
		latest, w := latestValuations(vals, in.AsOf)
		warnings = append(warnings, w...)
		joined := JoinLatest(AggregateHoldings(holdings), latest)
		records = applyCommission(joined, amountPtr(Amount{in.FlatBps}))
	case StrategyPerISIN:
		joined, w := joinExact(holdings, vals, rates)
		warnings = append(warnings, w...)
		records = applyCommission(joined, nil)
	}
	warnings = append(warnings, gapWarnings(records, in.Strategy)...)

	return &Result{
		Strategy: in.Strategy,
		Records:  records,
		Report:   NewReport(in.Strategy, records),
		Warnings: warnings,
	}, nil
}

// gapWarnings reports each ISIN that ended up without a NAV or a rate,
// once per ISIN in record order.
func gapWarnings(records []ResultRecord, strategy Strategy) []Warning {
	var warnings []Warning
	seenNAV := make(map[string]bool)
	seenRate := make(map[string]bool)
	for _, r := range records {
		if r.NAV == nil && !seenNAV[r.ISIN] {
			seenNAV[r.ISIN] = true
			msg := "no valuation found, value and fee are left empty"
			if strategy == StrategyPerISIN {
				msg = fmt.Sprintf("no valuation for month end %s, value and fee are left empty", r.HoldingPeriod)
			}
			warnings = append(warnings, Warning{Code: WarnMissingValuation, Table: TableValuations, ISIN: r.ISIN, Message: msg})
		}
		if strategy == StrategyPerISIN && r.RateBps == nil && !seenRate[r.ISIN] {
			seenRate[r.ISIN] = true
			warnings = append(warnings, Warning{Code: WarnMissingRate, Table: TableRates, ISIN: r.ISIN, Message: "no rate found, fee is left empty"})
		}
	}
	return warnings
}
