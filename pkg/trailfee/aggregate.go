package trailfee

import (
	"cmp"
	"slices"
	"sort"
)

type holdingKey struct {
	isin     string
	currency string
	period   Period
}

// AggregateHoldings sums the units of lots sharing (ISIN, currency, month end).
// The same ISIN held in two currencies stays two positions. Groups are
// returned sorted by ISIN, then currency, then month end.
func AggregateHoldings(holdings []HoldingRecord) []HoldingRecord {
	groups := make(map[holdingKey]*HoldingRecord)
	for _, h := range holdings {
		key := holdingKey{isin: h.ISIN, currency: h.Currency, period: h.Period}
		if g, ok := groups[key]; ok {
			g.Units = Amount{g.Units.Add(h.Units.Decimal)}
			continue
		}
		groups[key] = &HoldingRecord{
			ISIN:     h.ISIN,
			Currency: h.Currency,
			Period:   h.Period,
			Units:    h.Units,
		}
	}

	out := make([]HoldingRecord, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b HoldingRecord) int {
		if c := cmp.Compare(a.ISIN, b.ISIN); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Currency, b.Currency); c != 0 {
			return c
		}
		return a.Period.Time().Compare(b.Period.Time())
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
