package core

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted textual date form.
const DateLayout = "2006-01-02"

var (
	isoDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	isoMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// Date is a calendar date at midnight UTC.
type Date struct {
	time.Time
}

// ParseDate accepts a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if !isoDate.MatchString(s) {
		return Date{}, Invalid("date", ErrInvalidDate, "date must be in ISO format YYYY-MM-DD")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, Invalid("date", ErrInvalidDate, "date must be a real calendar date")
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before and After compare calendar dates.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return Invalid("date", ErrInvalidDate, "date cannot be zero")
	}
	return nil
}

// Month is a calendar month such as 2025-03.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts YYYY-MM with a month between 01 and 12.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if !isoMonth.MatchString(s) {
		return Month{}, Invalid("month", ErrInvalidMonth, "month must be YYYY-MM")
	}
	y, _ := strconv.Atoi(s[:4])
	m, _ := strconv.Atoi(s[5:])
	if m < 1 || m > 12 {
		return Month{}, Invalid("month", ErrInvalidMonth, "month must be between 01 and 12")
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Day returns the given day of the month. Callers keep day within 1..28.
func (m Month) Day(day int) Date {
	return NewDate(m.Year, int(m.Month), day)
}

// First and Last bound the month, both inclusive.
func (m Month) First() Date { return m.Day(1) }
func (m Month) Last() Date  { return Date{Time: m.First().AddDate(0, 1, -1)} }
