package trailfee

import (
	"iter"
	"sort"
	"strings"
)

// Table is a parsed input sheet: a header row followed by data rows of raw
// cell text. Rows may be shorter than the header; missing cells are blank.
type Table struct {
	Name    string     `json:"name,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// RequiredColumns returns the columns each input table must carry for the strategy.
// Tables the strategy does not read are absent from the map.
func RequiredColumns(strategy Strategy) map[string][]string {
	switch strategy {
	case StrategyPerISIN:
		return map[string][]string{
			TableHoldings:   {ColISIN, ColFundName, ColUnits, ColCurrency, ColMonthEnd},
			TableValuations: {ColISIN, ColNAV, ColMonthEnd},
			TableRates:      {ColISIN, ColBps},
		}
	default:
		return map[string][]string{
			TableHoldings:   {ColISIN, ColCurrency, ColUnits, ColMonthEnd},
			TableValuations: {ColISIN, ColNAV, ColMonthEnd},
		}
	}
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// index maps normalized column names to their position. The first
// occurrence of a repeated header wins.
func (t Table) index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		name := normalizeColumn(c)
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}

// ValidateColumns returns the required columns absent from t, sorted.
// An empty result means the schema is valid.
func ValidateColumns(t Table, required []string) []string {
	idx := t.index()
	var missing []string
	for _, col := range required {
		if _, ok := idx[normalizeColumn(col)]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

// checkSchemas validates every table the strategy needs before anything
// else runs, so one error names all the missing columns of all files.
func checkSchemas(strategy Strategy, tables map[string]Table) error {
	schemaErr := &SchemaError{Missing: map[string][]string{}}
	for name, required := range RequiredColumns(strategy) {
		if missing := ValidateColumns(tables[name], required); len(missing) > 0 {
			schemaErr.Missing[name] = missing
		}
	}
	if len(schemaErr.Missing) > 0 {
		return WrapError(ErrCodeSchema, "required columns are missing", schemaErr)
	}
	return nil
}

// row gives named access to the cells of one data row.
type row struct {
	table  string
	number int
	cells  []string
	idx    map[string]int
}

func (r row) get(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r row) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// rows iterates the non-blank data rows of t, labelled with the table name.
func (t Table) rows(name string) iter.Seq[row] {
	idx := t.index()
	return func(yield func(row) bool) {
		for i, cells := range t.Rows {
			r := row{table: name, number: i + 2, cells: cells, idx: idx}
			if r.blank() {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}
