package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// dateLayouts are tried in order when parsing feed values. SAP list
// exports use slashed dates; the ledger tables store ISO dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// Date is a calendar date with no time component. The zero value means
// "unknown" — unparseable or absent dates collapse to it rather than
// erroring, and all comparisons are date-only.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current wall-clock date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a feed value into a Date. Values that fail every
// known layout come back as the zero Date, never as an error.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t)
		}
	}
	return Date{}
}

// IsZero reports whether the date is unknown.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns the date as a UTC midnight time.Time.
func (d Date) Time() time.Time { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return Date{}
	}
	return DateOf(d.t.AddDate(0, 0, n))
}

// DaysSince returns d minus o in whole days. Both dates must be known.
func (d Date) DaysSince(o Date) int {
	return int(d.t.Sub(o.t) / (24 * time.Hour))
}

// Year and Month expose components for calendar bucketing.
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }

// StartOfWeek returns the Monday on or before d.
func (d Date) StartOfWeek() Date {
	if d.IsZero() {
		return Date{}
	}
	offset := (int(d.t.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	if d.IsZero() {
		return Date{}
	}
	return NewDate(d.t.Year(), d.t.Month(), 1)
}

// String renders ISO format, or the empty string when unknown.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return eris.Wrap(err, "date: unmarshal")
	}
	if s == nil {
		*d = Date{}
		return nil
	}
	*d = ParseDate(*s)
	return nil
}

// Value stores the date as an ISO string, NULL when unknown.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan accepts NULL, ISO strings, and driver-native times.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v)
	case string:
		*d = ParseDate(v)
	case []byte:
		*d = ParseDate(string(v))
	default:
		return eris.Errorf("date: cannot scan %T", src)
	}
	return nil
}
