package trailfee

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode defines error classification codes for structured error handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeSchema       ErrorCode = "SCHEMA_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeProcessing   ErrorCode = "PROCESSING_ERROR"
	ErrCodeUnsupported  ErrorCode = "UNSUPPORTED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with classification code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with classification code and additional context.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsErrorCode checks if an error, or any error it wraps, carries a specific code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// SchemaError lists the required columns absent from each input table.
type SchemaError struct {
	Missing map[string][]string
}

func (e *SchemaError) Error() string {
	tables := make([]string, 0, len(e.Missing))
	for table := range e.Missing {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	msgs := make([]string, 0, len(tables))
	for _, table := range tables {
		msgs = append(msgs, fmt.Sprintf("%s is missing columns [%s]", table, strings.Join(e.Missing[table], ", ")))
	}
	return strings.Join(msgs, "; ")
}

// maxCellErrors caps how many cell problems are reported for one run.
const maxCellErrors = 25

// CellError describes one malformed cell in an input table.
// Row is 1-based and counts the header, so it matches spreadsheet row numbers.
type CellError struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// CellErrors collects malformed cells found while decoding input tables.
type CellErrors struct {
	Cells     []CellError
	Truncated bool
}

func (e *CellErrors) add(c CellError) {
	if len(e.Cells) >= maxCellErrors {
		e.Truncated = true
		return
	}
	e.Cells = append(e.Cells, c)
}

func (e *CellErrors) empty() bool { return len(e.Cells) == 0 }

func (e *CellErrors) Error() string {
	msgs := make([]string, 0, len(e.Cells))
	for _, c := range e.Cells {
		msgs = append(msgs, fmt.Sprintf("%s row %d column %s: %s (%q)", c.Table, c.Row, c.Column, c.Reason, c.Value))
	}
	s := strings.Join(msgs, "; ")
	if e.Truncated {
		s += "; further errors omitted"
	}
	return s
}
