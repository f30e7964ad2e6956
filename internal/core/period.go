// Package core provides the activity record domain and the calendar helpers
// shared by aggregation and export.
//
// Dates travel as zero-padded ISO strings (YYYY-MM-DD) so that lexicographic
// order equals chronological order. Date is the value type used where real
// calendar arithmetic is needed (windows, day counts, period bounds).
package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	PeriodMonth  PeriodMode = "month"
	PeriodLast30 PeriodMode = "30d"
	PeriodAll    PeriodMode = "all"

	// AllTimeStart is the sentinel lower bound of the "all" period.
	AllTimeStart = "0000-01-01"

	dateLayout = "2006-01-02"
)

type (
	PeriodMode string

	// Date is a calendar day without time of day or zone.
	Date struct {
		time.Time
	}

	// Period is an inclusive date range.
	Period struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
)

// NewDate creates a Date from year, month, day. Out of range values are
// normalized the same way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string, rejecting impossible days.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// YearMonth returns the YYYY-MM prefix of the date.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// YearMonthOf returns the year-month prefix of an ISO date string.
// Malformed strings yield whatever prefix they have.
func YearMonthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// ResolvePeriod turns a period mode into concrete bounds ending today.
// Unknown modes fall back to the current month.
func ResolvePeriod(mode PeriodMode, today Date) Period {
	end := today.String()
	switch mode {
	case PeriodLast30:
		return Period{Start: today.AddDays(-29).String(), End: end}
	case PeriodAll:
		return Period{Start: AllTimeStart, End: end}
	default:
		return Period{Start: today.FirstOfMonth().String(), End: end}
	}
}

// ParsePeriodMode accepts the canonical modes plus the original selector values.
func ParsePeriodMode(s string) PeriodMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "30d", "30", "last30":
		return PeriodLast30
	case "all", "todo":
		return PeriodAll
	default:
		return PeriodMonth
	}
}

// Contains reports whether date falls within the period, bounds included.
// Comparison is lexicographic on the ISO strings.
func (p Period) Contains(date string) bool {
	return date >= p.Start && date <= p.End
}

// InclusiveDays counts calendar days from Start to End inclusive. It returns
// zero or a negative count when End precedes Start, and zero when either
// bound does not parse.
func (p Period) InclusiveDays() int {
	start, err := ParseDate(p.Start)
	if err != nil {
		return 0
	}
	end, err := ParseDate(p.End)
	if err != nil {
		return 0
	}
	// Unix seconds rather than time.Duration: the all-time sentinel is more
	// than 292 years back and would saturate Sub.
	return int((end.Unix()-start.Unix())/secondsPerDay) + 1
}

const secondsPerDay = 24 * 60 * 60
