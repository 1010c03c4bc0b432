package trailfee

import (
	"testing"

	"github.com/shopspring/decimal"
)

func holdingsTable(rows ...[]string) Table {
	return Table{Name: TableHoldings, Columns: []string{"isin", "currency", "units", "month_end"}, Rows: rows}
}

func perISINHoldingsTable(rows ...[]string) Table {
	return Table{Name: TableHoldings, Columns: []string{"isin", "fund_name", "units", "currency", "month_end"}, Rows: rows}
}

func valuationsTable(rows ...[]string) Table {
	return Table{Name: TableValuations, Columns: []string{"isin", "nav", "month_end"}, Rows: rows}
}

func ratesTable(rows ...[]string) Table {
	return Table{Name: TableRates, Columns: []string{"isin", "bps"}, Rows: rows}
}

func flatInput(holdings, valuations Table) Input {
	return Input{Strategy: StrategyFlat, Holdings: holdings, Valuations: valuations, FlatBps: DefaultFlatBps}
}

func amt(s string) *Amount {
	a := Amount{decimal.RequireFromString(s)}
	return &a
}

func assertNoError(t *testing.T, err error, context string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", context, err)
	}
}

func assertAmountEquals(t *testing.T, got *Amount, want string, context string) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected %s, got nil", context, want)
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", context, want, got.String())
	}
}

func assertNilAmount(t *testing.T, got *Amount, context string) {
	t.Helper()
	if got != nil {
		t.Fatalf("%s: expected nil, got %s", context, got.String())
	}
}
