// Package report turns activity record snapshots into the numbers and
// exports the dashboard needs. Every function here is pure.
package report

import (
	"math"
	"sort"

	"fieldlog/internal/core"
)

// DefaultWindowDays is the trailing window of the daily series.
const DefaultWindowDays = 30

type (
	// Totals holds per-type sums plus an overall total. Total counts every
	// record that passed the filter, including types outside the registry,
	// so it can exceed the sum of ByType.
	Totals struct {
		ByType map[core.ActivityType]int `json:"byType"`
		Total  int                       `json:"total"`
	}

	DailyPoint struct {
		Date     string `json:"date"`
		Quantity int    `json:"qty"`
	}

	// MonthBucket is one column of the monthly stacked breakdown. Like
	// Totals, Total counts every record of the month including types outside
	// the registry, while ByType holds known types only.
	MonthBucket struct {
		Month  string                    `json:"month"`
		ByType map[core.ActivityType]int `json:"byType"`
		Total  int                       `json:"total"`
	}
)

func newTotals() Totals {
	t := Totals{ByType: make(map[core.ActivityType]int)}
	for _, at := range core.KnownTypes() {
		t.ByType[at] = 0
	}
	return t
}

func (t *Totals) add(r core.ActivityRecord) {
	t.Total += r.Quantity
	if r.Type.IsKnown() {
		t.ByType[r.Type] += r.Quantity
	}
}

// Of returns the total for one type.
func (t Totals) Of(at core.ActivityType) int {
	return t.ByType[at]
}

// Prune and Spacer are shorthands for the two built-in types.
func (t Totals) Prune() int  { return t.Of(core.Prune) }
func (t Totals) Spacer() int { return t.Of(core.Spacer) }

func (b MonthBucket) Prune() int  { return b.ByType[core.Prune] }
func (b MonthBucket) Spacer() int { return b.ByType[core.Spacer] }

// MonthTotals sums the records whose date starts with yearMonth (YYYY-MM).
func MonthTotals(records []core.ActivityRecord, yearMonth string) Totals {
	t := newTotals()
	for _, r := range records {
		if core.YearMonthOf(r.Date) == yearMonth {
			t.add(r)
		}
	}
	return t
}

// PeriodTotals sums the records dated within the period, bounds included.
func PeriodTotals(records []core.ActivityRecord, period core.Period) Totals {
	t := newTotals()
	for _, r := range records {
		if period.Contains(r.Date) {
			t.add(r)
		}
	}
	return t
}

// DailySeries returns one point per calendar day for the windowDays days
// ending at anchor, oldest first. Days without records are zero.
func DailySeries(records []core.ActivityRecord, at core.ActivityType, windowDays int, anchor core.Date) []DailyPoint {
	if windowDays <= 0 {
		return []DailyPoint{}
	}
	series := make([]DailyPoint, windowDays)
	index := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		d := anchor.AddDays(i - (windowDays - 1)).String()
		series[i] = DailyPoint{Date: d}
		index[d] = i
	}
	for _, r := range records {
		if r.Type != at {
			continue
		}
		if i, ok := index[r.Date]; ok {
			series[i].Quantity += r.Quantity
		}
	}
	return series
}

// AveragePerDay divides total by the period's inclusive day count, floored
// at one day, and rounds to one decimal place.
func AveragePerDay(total int, period core.Period) float64 {
	days := period.InclusiveDays()
	if days < 1 {
		days = 1
	}
	return math.Round(float64(total)/float64(days)*10) / 10
}

// MonthlyBreakdown returns twelve buckets, January first, for the given year.
func MonthlyBreakdown(records []core.ActivityRecord, year int) []MonthBucket {
	buckets := make([]MonthBucket, 12)
	index := make(map[string]int, 12)
	for m := 0; m < 12; m++ {
		key := core.NewDate(year, m+1, 1).YearMonth()
		buckets[m] = MonthBucket{Month: key, ByType: make(map[core.ActivityType]int)}
		for _, at := range core.KnownTypes() {
			buckets[m].ByType[at] = 0
		}
		index[key] = m
	}
	for _, r := range records {
		i, ok := index[core.YearMonthOf(r.Date)]
		if !ok {
			continue
		}
		if r.Type.IsKnown() {
			buckets[i].ByType[r.Type] += r.Quantity
		}
		buckets[i].Total += r.Quantity
	}
	return buckets
}

// SortNewestFirst returns a copy ordered by date descending. Records sharing
// a date keep their stored order.
func SortNewestFirst(records []core.ActivityRecord) []core.ActivityRecord {
	out := append([]core.ActivityRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// FilterByDate keeps the records dated exactly on date. An empty date keeps all.
func FilterByDate(records []core.ActivityRecord, date string) []core.ActivityRecord {
	if date == "" {
		return append([]core.ActivityRecord(nil), records...)
	}
	out := make([]core.ActivityRecord, 0, len(records))
	for _, r := range records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

// FilterByPeriod keeps the records dated within the period.
func FilterByPeriod(records []core.ActivityRecord, period core.Period) []core.ActivityRecord {
	out := make([]core.ActivityRecord, 0, len(records))
	for _, r := range records {
		if period.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}
