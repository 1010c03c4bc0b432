package trailfee

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculate_PerISINCommission(t *testing.T) {
	res, err := Calculate(Input{
		Strategy:   StrategyPerISIN,
		Holdings:   perISINHoldingsTable([]string{"LU0000000001", "Alpha Fund", "1000", "EUR", "2024-01-31"}),
		Valuations: valuationsTable([]string{"LU0000000001", "50", "2024-01-31"}),
		Rates:      ratesTable([]string{"LU0000000001", "60"}),
	})
	assertNoError(t, err, "calculate")
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	r := res.Records[0]
	assertAmountEquals(t, r.HoldingValue, "50000", "holding value")
	assertAmountEquals(t, r.Commission, "25", "commission")
	if r.FundName != "Alpha Fund" {
		t.Errorf("expected fund name Alpha Fund, got %q", r.FundName)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", res.Warnings)
	}
}

func TestCalculate_FlatAggregatesLots(t *testing.T) {
	res, err := Calculate(flatInput(
		holdingsTable(
			[]string{"LU0000000001", "EUR", "100", "2024-01-31"},
			[]string{"LU0000000001", "EUR", "50", "2024-01-31"},
		),
		valuationsTable([]string{"LU0000000001", "10", "2024-01-31"}),
	))
	assertNoError(t, err, "calculate")
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 aggregated record, got %d", len(res.Records))
	}
	r := res.Records[0]
	if !r.Units.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected units 150, got %s", r.Units)
	}
	assertAmountEquals(t, r.RateBps, "60", "rate")
	assertAmountEquals(t, r.HoldingValue, "1500", "holding value")
	assertAmountEquals(t, r.Commission, "0.75", "commission")
}

func TestCalculate_FlatLatestValuationIgnoresRowOrder(t *testing.T) {
	jan := []string{"LU0000000001", "10", "2024-01-31"}
	feb := []string{"LU0000000001", "12", "2024-02-29"}
	holdings := holdingsTable([]string{"LU0000000001", "EUR", "1", "2024-01-31"})

	for _, order := range [][][]string{{jan, feb}, {feb, jan}} {
		res, err := Calculate(flatInput(holdings, valuationsTable(order...)))
		assertNoError(t, err, "calculate")
		r := res.Records[0]
		assertAmountEquals(t, r.NAV, "12", "nav")
		if r.NAVPeriod != NewPeriod(2024, 2, 29) {
			t.Errorf("expected nav period 2024-02-29, got %s", r.NAVPeriod)
		}
		if r.HoldingPeriod != NewPeriod(2024, 1, 31) {
			t.Errorf("expected holding period 2024-01-31, got %s", r.HoldingPeriod)
		}
	}
}

func TestCalculate_OneRowPerHoldingGroup(t *testing.T) {
	holdingRows := [][]string{
		{"LU0000000001", "EUR", "100", "2024-01-31"},
		{"LU0000000001", "EUR", "50", "2024-01-31"},
		{"LU0000000001", "USD", "10", "2024-01-31"},
		{"LU0000000001", "EUR", "5", "2024-02-29"},
		{"LU0000000002", "EUR", "7", "2024-01-31"},
	}
	vals := valuationsTable([]string{"LU0000000001", "10", "2024-01-31"})

	flat, err := Calculate(flatInput(holdingsTable(holdingRows...), vals))
	assertNoError(t, err, "flat")
	if len(flat.Records) != 4 {
		t.Fatalf("flat: expected 4 distinct keys, got %d", len(flat.Records))
	}

	var perRows [][]string
	for _, r := range holdingRows {
		perRows = append(perRows, []string{r[0], "Fund", r[2], r[1], r[3]})
	}
	per, err := Calculate(Input{
		Strategy:   StrategyPerISIN,
		Holdings:   perISINHoldingsTable(perRows...),
		Valuations: valuationsTable(
			[]string{"LU0000000001", "10", "2024-01-31"},
			[]string{"LU0000000001", "11", "2024-01-31"},
		),
		Rates: ratesTable(
			[]string{"LU0000000001", "60"},
			[]string{"LU0000000001", "80"},
		),
	})
	assertNoError(t, err, "per_isin")
	if len(per.Records) != len(holdingRows) {
		t.Fatalf("per_isin: expected %d records, got %d", len(holdingRows), len(per.Records))
	}
	for i, r := range per.Records {
		if r.ISIN != perRows[i][0] || !r.Units.Equal(decimal.RequireFromString(perRows[i][2])) {
			t.Errorf("per_isin row %d out of input order: %+v", i, r)
		}
	}
}

func TestCalculate_CommissionFormula(t *testing.T) {
	res, err := Calculate(Input{
		Strategy: StrategyPerISIN,
		Holdings: perISINHoldingsTable(
			[]string{"A", "Fund A", "123.456", "EUR", "2024-01-31"},
			[]string{"B", "Fund B", "7", "EUR", "2024-01-31"},
			[]string{"C", "Fund C", "0", "EUR", "2024-01-31"},
		),
		Valuations: valuationsTable(
			[]string{"A", "98.7654", "2024-01-31"},
			[]string{"B", "3.3333", "2024-01-31"},
			[]string{"C", "1", "2024-01-31"},
		),
		Rates: ratesTable([]string{"A", "37.5"}, []string{"B", "0"}, []string{"C", "60"}),
	})
	assertNoError(t, err, "calculate")
	for _, r := range res.Records {
		want := r.HoldingValue.Mul(r.RateBps.Decimal).Div(decimal.NewFromInt(10000)).Div(decimal.NewFromInt(12))
		if !r.Commission.Equal(want) {
			t.Errorf("%s: expected commission %s, got %s", r.ISIN, want, r.Commission)
		}
		if !r.HoldingValue.Equal(r.Units.Mul(r.NAV.Decimal)) {
			t.Errorf("%s: holding value %s is not units x nav", r.ISIN, r.HoldingValue)
		}
		if r.Commission.IsNegative() || r.HoldingValue.IsNegative() {
			t.Errorf("%s: negative output", r.ISIN)
		}
	}
	if !res.Records[1].Commission.IsZero() {
		t.Errorf("expected zero commission for zero rate, got %s", res.Records[1].Commission)
	}
}

func TestCalculate_MissingDataIsNilNotZero(t *testing.T) {
	res, err := Calculate(Input{
		Strategy: StrategyPerISIN,
		Holdings: perISINHoldingsTable(
			[]string{"A", "Fund A", "10", "EUR", "2024-01-31"},
			[]string{"B", "Fund B", "10", "EUR", "2024-02-29"},
			[]string{"C", "Fund C", "10", "EUR", "2024-01-31"},
		),
		Valuations: valuationsTable(
			[]string{"A", "5", "2024-01-31"},
			[]string{"B", "5", "2024-01-31"},
			[]string{"C", "5", "2024-01-31"},
		),
		Rates: ratesTable([]string{"B", "60"}, []string{"C", "60"}),
	})
	assertNoError(t, err, "calculate")

	a, b, c := res.Records[0], res.Records[1], res.Records[2]
	assertAmountEquals(t, a.NAV, "5", "A nav")
	assertNilAmount(t, a.RateBps, "A rate")
	assertNilAmount(t, a.HoldingValue, "A holding value")
	assertNilAmount(t, a.Commission, "A commission")

	assertNilAmount(t, b.NAV, "B nav")
	assertNilAmount(t, b.HoldingValue, "B holding value")
	assertNilAmount(t, b.Commission, "B commission")
	if !b.NAVPeriod.IsZero() {
		t.Errorf("expected empty nav period for B, got %s", b.NAVPeriod)
	}

	assertAmountEquals(t, c.Commission, "0.025", "C commission")

	codes := map[string]string{}
	for _, w := range res.Warnings {
		codes[w.ISIN+"/"+w.Code] = w.Message
	}
	if _, ok := codes["A/"+WarnMissingRate]; !ok {
		t.Errorf("expected missing rate warning for A, got %+v", res.Warnings)
	}
	if _, ok := codes["B/"+WarnMissingValuation]; !ok {
		t.Errorf("expected missing valuation warning for B, got %+v", res.Warnings)
	}
}

func TestCalculate_FlatMissingValuation(t *testing.T) {
	res, err := Calculate(flatInput(
		holdingsTable([]string{"A", "EUR", "10", "2024-01-31"}),
		valuationsTable(
			[]string{"B", "5", "2024-01-31"},
			[]string{"A", "5", ""},
		),
	))
	assertNoError(t, err, "calculate")
	r := res.Records[0]
	assertNilAmount(t, r.NAV, "nav")
	assertNilAmount(t, r.HoldingValue, "holding value")
	assertNilAmount(t, r.Commission, "commission")
	assertAmountEquals(t, r.RateBps, "60", "rate")
}

func TestCalculate_SchemaErrorHaltsBeforeDecoding(t *testing.T) {
	holdings := Table{Columns: []string{"isin", "units"}, Rows: [][]string{{"A", "not a number"}}}
	vals := Table{Columns: []string{"isin", "month_end"}, Rows: [][]string{{"A", "garbage"}}}

	_, err := Calculate(Input{
		Strategy:   StrategyPerISIN,
		Holdings:   holdings,
		Valuations: vals,
		Rates:      Table{Columns: []string{"ISIN", " BPS "}},
	})
	if !IsErrorCode(err, ErrCodeSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError in chain, got %T", err)
	}
	want := map[string][]string{
		TableHoldings:   {ColCurrency, ColFundName, ColMonthEnd},
		TableValuations: {ColNAV},
	}
	if !reflect.DeepEqual(schemaErr.Missing, want) {
		t.Fatalf("expected missing %v, got %v", want, schemaErr.Missing)
	}
	var cellErrs *CellErrors
	if errors.As(err, &cellErrs) {
		t.Fatalf("schema failure must not decode cells, got %v", cellErrs)
	}
}

func TestCalculate_FlatIgnoresRatesTable(t *testing.T) {
	in := flatInput(
		holdingsTable([]string{"A", "EUR", "10", "2024-01-31"}),
		valuationsTable([]string{"A", "5", "2024-01-31"}),
	)
	in.Rates = Table{Columns: []string{"unrelated"}}
	_, err := Calculate(in)
	assertNoError(t, err, "flat with unrelated rates table")
}

func TestCalculate_InvalidCells(t *testing.T) {
	_, err := Calculate(flatInput(
		holdingsTable(
			[]string{"", "EUR", "10", "2024-01-31"},
			[]string{"A", "EUR", "-1", "2024-01-31"},
			[]string{"A", "EUR", "ten", "31/01/2024"},
		),
		valuationsTable([]string{"A", "0", "2024-01-31"}),
	))
	if !IsErrorCode(err, ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	var cellErrs *CellErrors
	if !errors.As(err, &cellErrs) {
		t.Fatalf("expected *CellErrors, got %T", err)
	}
	if len(cellErrs.Cells) != 5 {
		t.Fatalf("expected 5 cell errors, got %d: %v", len(cellErrs.Cells), cellErrs)
	}
	first := cellErrs.Cells[0]
	if first.Table != TableHoldings || first.Row != 2 || first.Column != ColISIN {
		t.Errorf("unexpected first cell error %+v", first)
	}
	last := cellErrs.Cells[4]
	if last.Table != TableValuations || last.Column != ColNAV {
		t.Errorf("unexpected last cell error %+v", last)
	}
}

func TestCalculate_CellErrorsAreCapped(t *testing.T) {
	var rows [][]string
	for i := 0; i < maxCellErrors+10; i++ {
		rows = append(rows, []string{"A", "EUR", "x", "2024-01-31"})
	}
	_, err := Calculate(flatInput(holdingsTable(rows...), valuationsTable()))
	var cellErrs *CellErrors
	if !errors.As(err, &cellErrs) {
		t.Fatalf("expected *CellErrors, got %v", err)
	}
	if len(cellErrs.Cells) != maxCellErrors || !cellErrs.Truncated {
		t.Fatalf("expected %d errors and truncation, got %d truncated=%v", maxCellErrors, len(cellErrs.Cells), cellErrs.Truncated)
	}
}

func TestCalculate_FlatBpsValidation(t *testing.T) {
	tests := []struct {
		name    string
		bps     string
		wantErr bool
	}{
		{"zero", "0", false},
		{"default", "60", false},
		{"half step", "60.5", false},
		{"max", "200", false},
		{"negative", "-0.5", true},
		{"above max", "200.5", true},
		{"off step", "60.25", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := flatInput(holdingsTable(), valuationsTable())
			in.FlatBps = decimal.RequireFromString(tt.bps)
			_, err := Calculate(in)
			if tt.wantErr {
				if !IsErrorCode(err, ErrCodeInvalidInput) {
					t.Fatalf("expected invalid input, got %v", err)
				}
				return
			}
			assertNoError(t, err, "calculate")
		})
	}
}

func TestCalculate_UnknownStrategy(t *testing.T) {
	_, err := Calculate(Input{Strategy: "tiered"})
	if !IsErrorCode(err, ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCalculate_NormalizesKeysAndHeaders(t *testing.T) {
	holdings := Table{
		Columns: []string{" ISIN ", "Currency", "UNITS", "Month_End", "comment"},
		Rows: [][]string{
			{" lu0000000001 ", "eur", "1,5", "31.01.2024", "first lot"},
			{"", "", "", "", ""},
			{"LU0000000001", "EUR ", "2.5", "2024-01-31"},
		},
	}
	vals := valuationsTable([]string{"LU0000000001", "45322", "45322"})
	res, err := Calculate(flatInput(holdings, vals))
	assertNoError(t, err, "calculate")
	if len(res.Records) != 1 {
		t.Fatalf("expected lots to merge into 1 record, got %+v", res.Records)
	}
	r := res.Records[0]
	if r.ISIN != "LU0000000001" || r.Currency != "EUR" {
		t.Errorf("expected normalized keys, got %q %q", r.ISIN, r.Currency)
	}
	if !r.Units.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected units 4, got %s", r.Units)
	}
	if r.NAVPeriod != NewPeriod(2024, 1, 31) {
		t.Errorf("expected serial date 45322 to be 2024-01-31, got %s", r.NAVPeriod)
	}
}

func TestCalculate_AsOfHidesLaterValuations(t *testing.T) {
	in := flatInput(
		holdingsTable([]string{"A", "EUR", "1", "2024-01-31"}),
		valuationsTable(
			[]string{"A", "10", "2024-01-31"},
			[]string{"A", "12", "2024-02-29"},
		),
	)
	in.AsOf = NewPeriod(2024, 2, 1)
	res, err := Calculate(in)
	assertNoError(t, err, "calculate")
	assertAmountEquals(t, res.Records[0].NAV, "10", "nav")

	found := false
	for _, w := range res.Warnings {
		if w.Code == WarnFutureValuations {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s warning, got %+v", WarnFutureValuations, res.Warnings)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	in := flatInput(
		holdingsTable(
			[]string{"B", "USD", "3", "2024-01-31"},
			[]string{"A", "EUR", "1", "2024-01-31"},
			[]string{"A", "USD", "2", "2024-01-31"},
			[]string{"C", "EUR", "2", "2024-01-31"},
		),
		valuationsTable(
			[]string{"A", "10", "2024-01-31"},
			[]string{"A", "11", "2024-01-31"},
			[]string{"B", "7", "2023-12-31"},
		),
	)

	var first []byte
	for i := 0; i < 5; i++ {
		res, err := Calculate(in)
		assertNoError(t, err, "calculate")
		data, err := json.Marshal(res)
		assertNoError(t, err, "marshal")
		if i == 0 {
			first = data
			continue
		}
		if !bytes.Equal(first, data) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, data)
		}
	}
	if !strings.Contains(string(first), `"isin":"A"`) {
		t.Fatalf("unexpected output %s", first)
	}
}
