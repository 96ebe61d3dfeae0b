package contracts

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for every date crossing the API boundary
const DateLayout = "2006-01-02"

// Date is a calendar date (UTC midnight) serialized as YYYY-MM-DD
// ⭐ SSOT: 월말 관측일은 모두 이 타입으로 표현
type Date struct {
	time.Time
}

// NewDate creates a date at UTC midnight
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date in UTC
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q (expected YYYY-MM-DD)", ErrInvalidInput, s)
	}
	return DateOf(t), nil
}

// MonthEnd returns the last calendar day of the given month
func MonthEnd(year int, month time.Month) Date {
	return Date{time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)}
}

// MonthIndex returns year*12 + (month-1)
// 달력 월 단위 윈도우 계산용 (일수 차이 무시)
func (d Date) MonthIndex() int {
	return d.Year()*12 + int(d.Month()) - 1
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes "YYYY-MM-DD"
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange bounds a series; nil means unbounded on that side
type DateRange struct {
	Start *Date `json:"start_date,omitempty"`
	End   *Date `json:"end_date,omitempty"`
}

// ParseDateRange builds a range from optional ISO strings
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	if start != "" {
		d, err := ParseDate(start)
		if err != nil {
			return r, err
		}
		r.Start = &d
	}
	if end != "" {
		d, err := ParseDate(end)
		if err != nil {
			return r, err
		}
		r.End = &d
	}
	return r, r.Validate()
}

// Validate rejects an inverted range
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(r.End.Time) {
		return fmt.Errorf("%w: start_date %s is after end_date %s", ErrInvalidInput, r.Start, r.End)
	}
	return nil
}

// Contains reports whether d lies inside the range (inclusive)
func (r DateRange) Contains(d Date) bool {
	if r.Start != nil && d.Before(r.Start.Time) {
		return false
	}
	if r.End != nil && d.After(r.End.Time) {
		return false
	}
	return true
}

// IsZero reports whether both bounds are open
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}
