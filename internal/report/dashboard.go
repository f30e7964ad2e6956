package report

import (
	"fieldlog/internal/core"
)

type (
	// Series is one line of the trailing-window chart.
	Series struct {
		Type  core.ActivityType `json:"type"`
		Label string            `json:"label"`
		Data  []int             `json:"data"`
	}

	// Dashboard is the executive view for one company and period.
	Dashboard struct {
		Mode        core.PeriodMode `json:"mode"`
		Period      core.Period     `json:"period"`
		Totals      Totals          `json:"totals"`
		AvgPerDay   float64         `json:"avgPerDay"`
		Labels      []string        `json:"labels"`
		Series      []Series        `json:"series"`
		Year        int             `json:"year"`
		Monthly     []MonthBucket   `json:"monthly"`
		RecordCount int             `json:"recordCount"`
	}

	// RecordsSummary backs the stat cards of the records view.
	RecordsSummary struct {
		Month  string `json:"month"`
		Totals Totals `json:"totals"`
	}
)

// BuildDashboard computes the dashboard for the given period mode. The
// trailing series only sees records inside the selected period, while the
// monthly breakdown covers the whole of today's year.
func BuildDashboard(records []core.ActivityRecord, mode core.PeriodMode, today core.Date) Dashboard {
	period := core.ResolvePeriod(mode, today)
	inRange := FilterByPeriod(records, period)
	totals := PeriodTotals(inRange, period)

	d := Dashboard{
		Mode:        mode,
		Period:      period,
		Totals:      totals,
		AvgPerDay:   AveragePerDay(totals.Total, period),
		Year:        today.Year(),
		Monthly:     MonthlyBreakdown(records, today.Year()),
		RecordCount: len(inRange),
	}

	for i, at := range core.KnownTypes() {
		points := DailySeries(inRange, at, DefaultWindowDays, today)
		if i == 0 {
			d.Labels = make([]string, len(points))
			for j, p := range points {
				d.Labels[j] = p.Date
			}
		}
		data := make([]int, len(points))
		for j, p := range points {
			data[j] = p.Quantity
		}
		d.Series = append(d.Series, Series{Type: at, Label: at.Label(), Data: data})
	}
	return d
}

// BuildRecordsSummary returns the current month totals.
func BuildRecordsSummary(records []core.ActivityRecord, today core.Date) RecordsSummary {
	month := today.YearMonth()
	return RecordsSummary{Month: month, Totals: MonthTotals(records, month)}
}
