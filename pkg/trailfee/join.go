package trailfee

import "fmt"

// JoinLatest left-joins aggregated holdings to the latest valuation per
// ISIN. Holdings without a valuation keep nil NAV fields. The holding
// period and the NAV period are kept apart since they may differ.
func JoinLatest(holdings []HoldingRecord, latest map[string]ValuationRecord) []ResultRecord {
	out := make([]ResultRecord, 0, len(holdings))
	for _, h := range holdings {
		r := ResultRecord{
			ISIN:          h.ISIN,
			FundName:      h.FundName,
			Currency:      h.Currency,
			Units:         h.Units,
			HoldingPeriod: h.Period,
		}
		if v, ok := latest[h.ISIN]; ok {
			r.NAVPeriod = v.Period
			r.NAV = v.NAV
		}
		out = append(out, r)
	}
	return out
}

type valuationKey struct {
	isin   string
	period Period
}

// JoinExact left-joins holdings to valuations on (ISIN, month end) and
// then to rates on ISIN. Input order is preserved and no holding is
// dropped or repeated: duplicate right-hand keys resolve to the last row.
func JoinExact(holdings []HoldingRecord, vals []ValuationRecord, rates []RateRecord) []ResultRecord {
	out, _ := joinExact(holdings, vals, rates)
	return out
}

func joinExact(holdings []HoldingRecord, vals []ValuationRecord, rates []RateRecord) ([]ResultRecord, []Warning) {
	navs, warnings := indexValuations(vals)
	byISIN, rateWarnings := indexRates(rates)
	warnings = append(warnings, rateWarnings...)

	out := make([]ResultRecord, 0, len(holdings))
	for _, h := range holdings {
		r := ResultRecord{
			ISIN:          h.ISIN,
			FundName:      h.FundName,
			Currency:      h.Currency,
			Units:         h.Units,
			HoldingPeriod: h.Period,
		}
		if v, ok := navs[valuationKey{isin: h.ISIN, period: h.Period}]; ok {
			r.NAVPeriod = v.Period
			r.NAV = v.NAV
		}
		if rate, ok := byISIN[h.ISIN]; ok {
			r.RateBps = rate.Bps
		}
		out = append(out, r)
	}
	return out, warnings
}

// indexValuations keys valuations by (ISIN, month end). Rows without a
// month end can never match and are left out.
func indexValuations(vals []ValuationRecord) (map[valuationKey]ValuationRecord, []Warning) {
	idx := make(map[valuationKey]ValuationRecord, len(vals))
	var warnings []Warning
	for _, v := range vals {
		if v.Period.IsZero() {
			continue
		}
		key := valuationKey{isin: v.ISIN, period: v.Period}
		if _, dup := idx[key]; dup {
			warnings = append(warnings, Warning{
				Code:    WarnDuplicateNAV,
				Table:   TableValuations,
				ISIN:    v.ISIN,
				Message: fmt.Sprintf("duplicate valuation for %s, the last one in the file is used", v.Period),
			})
		}
		idx[key] = v
	}
	return idx, warnings
}

func indexRates(rates []RateRecord) (map[string]RateRecord, []Warning) {
	idx := make(map[string]RateRecord, len(rates))
	var warnings []Warning
	for _, r := range rates {
		if _, dup := idx[r.ISIN]; dup {
			warnings = append(warnings, Warning{
				Code:    WarnDuplicateRate,
				Table:   TableRates,
				ISIN:    r.ISIN,
				Message: "duplicate rate, the last one in the file is used",
			})
		}
		idx[r.ISIN] = r
	}
	return idx, warnings
}
