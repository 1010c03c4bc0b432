// Package spreadsheet reads input tables from uploaded workbooks and CSV
// files and writes reports as single-sheet workbooks.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"trailfee/pkg/trailfee"
)

// Extensions lists the accepted input file extensions.
var Extensions = []string{".xlsx", ".xlsm", ".csv"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable parses r as the table called name. The format is picked from
// the extension of filename: workbooks are read from their first sheet
// with raw cell values, CSV files with a comma or semicolon delimiter.
func ReadTable(name, filename string, r io.Reader) (trailfee.Table, error) {
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return trailfee.Table{}, trailfee.NewError(trailfee.ErrCodeUnsupported,
			fmt.Sprintf("%s file %q: unsupported file type %q, expected one of %s", name, filename, ext, strings.Join(Extensions, ", ")))
	}
	if err != nil {
		return trailfee.Table{}, trailfee.WrapError(trailfee.ErrCodeProcessing, fmt.Sprintf("read %s file %q", name, filename), err)
	}

	t := trailfee.Table{Name: name}
	if len(records) > 0 {
		t.Columns = records[0]
		t.Rows = records[1:]
	}
	return t, nil
}

// ReadFile opens path and parses it with ReadTable.
func ReadFile(name, path string) (trailfee.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return trailfee.Table{}, trailfee.WrapError(trailfee.ErrCodeProcessing, fmt.Sprintf("open %s file", name), err)
	}
	defer f.Close()
	return ReadTable(name, filepath.Base(path), f)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// detectDelimiter picks ';' when the header line has more semicolons than
// commas, as written by spreadsheet programs in comma-decimal locales.
func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}
