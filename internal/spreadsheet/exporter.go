package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"trailfee/pkg/trailfee"
)

const (
	dateFormat  = "yyyy-mm-dd"
	columnWidth = 18
)

// Exporter writes reports as single-sheet xlsx workbooks. Money cells get
// the minor-unit digits of their row currency, unknown currencies get two.
type Exporter struct{}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export implements trailfee.Exporter.
func (e *Exporter) Export(rep *trailfee.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := rep.Sheet
	if sheet == "" {
		sheet = trailfee.SheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	for i, label := range rep.Labels() {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(sheet, cell, label); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	for r, rec := range rep.Records {
		for c, col := range rep.Columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := styles.write(sheet, cell, col.Kind, col.Value(rec), rec.Currency); err != nil {
				return nil, fmt.Errorf("write %s row %d: %w", col.Label, r+1, err)
			}
		}
	}

	if n := len(rep.Columns); n > 0 {
		last, err := excelize.ColumnNumberToName(n)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "A", last, columnWidth); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// styleSet caches style ids; money styles are created per fraction digits.
type styleSet struct {
	f      *excelize.File
	header int
	date   int
	money  map[int]int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	datefmt := dateFormat
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &datefmt})
	if err != nil {
		return nil, fmt.Errorf("date style: %w", err)
	}
	return &styleSet{f: f, header: header, date: date, money: map[int]int{}}, nil
}

func (s *styleSet) moneyStyle(currency string) (int, error) {
	fraction := trailfee.CurrencyFraction(currency)
	if id, ok := s.money[fraction]; ok {
		return id, nil
	}
	format := "#,##0"
	if fraction > 0 {
		format += "." + strings.Repeat("0", fraction)
	}
	id, err := s.f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, fmt.Errorf("money style: %w", err)
	}
	s.money[fraction] = id
	return id, nil
}

func (s *styleSet) write(sheet, cell string, kind trailfee.ColumnKind, value any, currency string) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return s.f.SetCellStr(sheet, cell, v)
	case trailfee.Period:
		if err := s.f.SetCellValue(sheet, cell, v.Time()); err != nil {
			return err
		}
		return s.f.SetCellStyle(sheet, cell, cell, s.date)
	case trailfee.Amount:
		if err := s.f.SetCellFloat(sheet, cell, v.InexactFloat64(), -1, 64); err != nil {
			return err
		}
		if kind != trailfee.KindMoney {
			return nil
		}
		style, err := s.moneyStyle(currency)
		if err != nil {
			return err
		}
		return s.f.SetCellStyle(sheet, cell, cell, style)
	default:
		return s.f.SetCellValue(sheet, cell, v)
	}
}
