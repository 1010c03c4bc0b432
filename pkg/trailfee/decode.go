package trailfee

// Decoding turns raw tables into typed records. Every malformed cell is
// collected instead of stopping at the first one.

func (r row) fail(errs *CellErrors, col, reason string) {
	errs.add(CellError{Table: r.table, Row: r.number, Column: col, Value: r.get(col), Reason: reason})
}

func (r row) isin(errs *CellErrors) (string, bool) {
	isin := normalizeISIN(r.get(ColISIN))
	if isin == "" {
		r.fail(errs, ColISIN, "isin is required")
		return "", false
	}
	return isin, true
}

func (r row) period(errs *CellErrors, required bool) (Period, bool) {
	p, err := ParsePeriod(r.get(ColMonthEnd))
	if err != nil {
		r.fail(errs, ColMonthEnd, "not a valid date")
		return Period{}, false
	}
	if required && p.IsZero() {
		r.fail(errs, ColMonthEnd, "month_end is required")
		return Period{}, false
	}
	return p, true
}

// optionalAmount parses a numeric cell where blank means missing.
func (r row) optionalAmount(errs *CellErrors, col string) (*Amount, bool) {
	raw := r.get(col)
	if raw == "" {
		return nil, true
	}
	a, err := ParseAmount(raw)
	if err != nil {
		r.fail(errs, col, "not a valid number")
		return nil, false
	}
	return &a, true
}

func decodeHoldings(t Table, strategy Strategy, errs *CellErrors) []HoldingRecord {
	var out []HoldingRecord
	for r := range t.rows(TableHoldings) {
		isin, ok := r.isin(errs)
		period, okPeriod := r.period(errs, true)
		ok = ok && okPeriod

		units, okUnits := r.optionalAmount(errs, ColUnits)
		switch {
		case !okUnits:
			ok = false
		case units == nil:
			r.fail(errs, ColUnits, "units is required")
			ok = false
		case units.IsNegative():
			r.fail(errs, ColUnits, "units must not be negative")
			ok = false
		}
		if !ok {
			continue
		}

		h := HoldingRecord{
			ISIN:     isin,
			Currency: normalizeCurrency(r.get(ColCurrency)),
			Period:   period,
			Units:    *units,
		}
		if strategy == StrategyPerISIN {
			h.FundName = r.get(ColFundName)
		}
		out = append(out, h)
	}
	return out
}

func decodeValuations(t Table, errs *CellErrors) []ValuationRecord {
	var out []ValuationRecord
	for r := range t.rows(TableValuations) {
		isin, ok := r.isin(errs)
		period, okPeriod := r.period(errs, false)
		nav, okNAV := r.optionalAmount(errs, ColNAV)
		if okNAV && nav != nil && !nav.IsPositive() {
			r.fail(errs, ColNAV, "nav must be positive")
			okNAV = false
		}
		if !ok || !okPeriod || !okNAV {
			continue
		}
		out = append(out, ValuationRecord{ISIN: isin, Period: period, NAV: nav})
	}
	return out
}

func decodeRates(t Table, errs *CellErrors) []RateRecord {
	var out []RateRecord
	for r := range t.rows(TableRates) {
		isin, ok := r.isin(errs)
		bps, okBps := r.optionalAmount(errs, ColBps)
		if okBps && bps != nil && bps.IsNegative() {
			r.fail(errs, ColBps, "bps must not be negative")
			okBps = false
		}
		if !ok || !okBps {
			continue
		}
		out = append(out, RateRecord{ISIN: isin, Bps: bps})
	}
	return out
}
