package trailfee

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// PeriodFormat is the canonical text form of a Period.
const PeriodFormat = "2006-01-02"

// Spreadsheet day serials accepted as dates: 1954-10-03 through 9999-12-31.
// Smaller numbers are more likely years or counts than dates.
const (
	minDateSerial = 20000
	maxDateSerial = 2958465
)

var periodLayouts = []string{
	"2006-1-2",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Period is a reporting date (usually a month end) with day granularity.
// The zero value means the period is unknown.
type Period struct {
	t time.Time
}

// NewPeriod returns the Period for the given calendar day.
func NewPeriod(year int, month time.Month, day int) Period {
	return Period{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// PeriodOf truncates t to its calendar day.
func PeriodOf(t time.Time) Period {
	return NewPeriod(t.Date())
}

// IsZero reports whether the period is unknown.
func (p Period) IsZero() bool { return p.t.IsZero() }

// Before reports whether p is strictly before q.
func (p Period) Before(q Period) bool { return p.t.Before(q.t) }

// After reports whether p is strictly after q.
func (p Period) After(q Period) bool { return p.t.After(q.t) }

// Equal reports whether p and q are the same day.
func (p Period) Equal(q Period) bool { return p.t.Equal(q.t) }

// Time returns midnight UTC of the period's day.
func (p Period) Time() time.Time { return p.t }

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return p.t.Format(PeriodFormat)
}

// MarshalJSON writes the period as "YYYY-MM-DD", or null when unknown.
func (p Period) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts any form ParsePeriod accepts, and null.
func (p *Period) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Period{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePeriod parses a date cell. Blank input yields the zero Period.
// Spreadsheet serial day numbers (e.g. 45322) are converted with the
// 1900 date system.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, nil
	}
	if t, err := time.Parse(PeriodFormat, s); err == nil {
		return PeriodOf(t), nil
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return PeriodOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < minDateSerial || serial > maxDateSerial {
			return Period{}, fmt.Errorf("invalid date %q: serial outside %d..%d", s, minDateSerial, maxDateSerial)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return Period{}, fmt.Errorf("invalid date serial %q: %w", s, err)
		}
		return PeriodOf(t), nil
	}
	return Period{}, fmt.Errorf("invalid date %q want format %q", s, PeriodFormat)
}

// MustParsePeriod is like ParsePeriod but panics on error.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err.Error())
	}
	return p
}
