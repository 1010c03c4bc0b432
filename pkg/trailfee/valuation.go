package trailfee

import "fmt"

// LatestValuations selects, per ISIN, the valuation with the greatest
// period. Valuations without a period are never selected, and when asOf
// is set, valuations dated after it are ignored.
//
// Ties on the greatest period go to the record that comes last in input
// order, which is the last record of a stable ascending sort by period.
func LatestValuations(vals []ValuationRecord, asOf Period) map[string]ValuationRecord {
	latest, _ := latestValuations(vals, asOf)
	return latest
}

func latestValuations(vals []ValuationRecord, asOf Period) (map[string]ValuationRecord, []Warning) {
	latest := make(map[string]ValuationRecord)
	ties := make(map[string]int)
	future := 0
	for _, v := range vals {
		if v.Period.IsZero() {
			continue
		}
		if !asOf.IsZero() && v.Period.After(asOf) {
			future++
			continue
		}
		best, ok := latest[v.ISIN]
		switch {
		case !ok || v.Period.After(best.Period):
			latest[v.ISIN] = v
			delete(ties, v.ISIN)
		case v.Period.Equal(best.Period):
			latest[v.ISIN] = v
			ties[v.ISIN]++
		}
	}

	var warnings []Warning
	for _, isin := range sortedKeys(ties) {
		warnings = append(warnings, Warning{
			Code:    WarnLatestNAVTie,
			Table:   TableValuations,
			ISIN:    isin,
			Message: fmt.Sprintf("%d valuations share the latest month end %s, the last one in the file is used", ties[isin]+1, latest[isin].Period),
		})
	}
	if future > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnFutureValuations,
			Table:   TableValuations,
			Message: fmt.Sprintf("%d valuations dated after %s were ignored", future, asOf),
		})
	}
	return latest, warnings
}
