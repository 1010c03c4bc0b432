package trailfee

import "encoding/json"

const (
	// SheetName is the name of the single sheet of the export.
	SheetName = "Trail Fees"
	// ExportFileName is the suggested file name of the export.
	ExportFileName = "trail_fees.xlsx"
)

// ColumnKind tells presenters how to render a column.
type ColumnKind string

const (
	KindText   ColumnKind = "text"
	KindNumber ColumnKind = "number"
	KindMoney  ColumnKind = "money"
	KindDate   ColumnKind = "date"
)

// Column is one labelled output column.
type Column struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Kind  ColumnKind `json:"kind"`

	value func(ResultRecord) any
}

// Value returns the cell of r in this column: a string for text, an Amount
// for numbers and money, a Period for dates, or nil when missing.
func (c Column) Value(r ResultRecord) any {
	return c.value(r)
}

func textColumn(key, label string, get func(ResultRecord) string) Column {
	return Column{Key: key, Label: label, Kind: KindText, value: func(r ResultRecord) any { return get(r) }}
}

func amountColumn(key, label string, kind ColumnKind, get func(ResultRecord) *Amount) Column {
	return Column{Key: key, Label: label, Kind: kind, value: func(r ResultRecord) any {
		if a := get(r); a != nil {
			return *a
		}
		return nil
	}}
}

func dateColumn(key, label string, get func(ResultRecord) Period) Column {
	return Column{Key: key, Label: label, Kind: KindDate, value: func(r ResultRecord) any {
		if p := get(r); !p.IsZero() {
			return p
		}
		return nil
	}}
}

var (
	colISIN         = textColumn("isin", "ISIN", func(r ResultRecord) string { return r.ISIN })
	colFundName     = textColumn("fund_name", "Fund Name", func(r ResultRecord) string { return r.FundName })
	colCurrency     = textColumn("currency", "Currency", func(r ResultRecord) string { return r.Currency })
	colUnits        = amountColumn("units", "Units", KindNumber, func(r ResultRecord) *Amount { return &r.Units })
	colNAV          = amountColumn("nav", "NAV", KindNumber, func(r ResultRecord) *Amount { return r.NAV })
	colRate         = amountColumn("bps", "Rate (bps)", KindNumber, func(r ResultRecord) *Amount { return r.RateBps })
	colHoldingValue = amountColumn("holding_value", "Holding Value", KindMoney, func(r ResultRecord) *Amount { return r.HoldingValue })
	colCommission   = amountColumn("commission", "Monthly Trail Fee", KindMoney, func(r ResultRecord) *Amount { return r.Commission })
	colHoldingDate  = dateColumn("holding_period", "Holdings Date", func(r ResultRecord) Period { return r.HoldingPeriod })
	colNAVDate      = dateColumn("nav_period", "NAV Date", func(r ResultRecord) Period { return r.NAVPeriod })
	colMonthEnd     = dateColumn("month_end", "Month End", func(r ResultRecord) Period { return r.HoldingPeriod })
)

// ReportColumns returns the output columns of a strategy, in order.
func ReportColumns(strategy Strategy) []Column {
	if strategy == StrategyPerISIN {
		return []Column{colISIN, colFundName, colUnits, colNAV, colRate, colHoldingValue, colCommission, colCurrency, colMonthEnd}
	}
	return []Column{colISIN, colCurrency, colHoldingDate, colUnits, colNAV, colNAVDate, colRate, colHoldingValue, colCommission}
}

// Report is the presentation projection of result records.
type Report struct {
	Sheet   string
	Columns []Column
	Records []ResultRecord
}

// NewReport selects and labels the columns of records for strategy.
func NewReport(strategy Strategy, records []ResultRecord) *Report {
	return &Report{
		Sheet:   SheetName,
		Columns: ReportColumns(strategy),
		Records: records,
	}
}

// Labels returns the column labels in order.
func (r *Report) Labels() []string {
	labels := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		labels[i] = c.Label
	}
	return labels
}

// Rows returns one slice of cell values per record, in column order.
func (r *Report) Rows() [][]any {
	rows := make([][]any, len(r.Records))
	for i, rec := range r.Records {
		cells := make([]any, len(r.Columns))
		for j, c := range r.Columns {
			cells[j] = c.Value(rec)
		}
		rows[i] = cells
	}
	return rows
}

type reportJSON struct {
	Sheet   string   `json:"sheet"`
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// MarshalJSON writes the report as {sheet, columns, rows}.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{Sheet: r.Sheet, Columns: r.Columns, Rows: r.Rows()})
}
