package core

import "testing"

func TestResolvePeriod(t *testing.T) {
	today := NewDate(2025, 8, 27)
	cases := []struct {
		mode  PeriodMode
		start string
	}{
		{PeriodMonth, "2025-08-01"},
		{PeriodLast30, "2025-07-29"},
		{PeriodAll, AllTimeStart},
		{"bogus", "2025-08-01"},
	}
	for _, tc := range cases {
		p := ResolvePeriod(tc.mode, today)
		if p.Start != tc.start || p.End != "2025-08-27" {
			t.Fatalf("%s: got %+v", tc.mode, p)
		}
	}
}

func TestLast30SpansThirtyDays(t *testing.T) {
	p := ResolvePeriod(PeriodLast30, NewDate(2024, 3, 1))
	if p.Start != "2024-01-31" {
		t.Fatalf("leap-year window start: %s", p.Start)
	}
	if n := p.InclusiveDays(); n != 30 {
		t.Fatalf("expected 30 days, got %d", n)
	}
}

func TestInclusiveDays(t *testing.T) {
	cases := []struct {
		p    Period
		want int
	}{
		{Period{"2025-08-01", "2025-08-01"}, 1},
		{Period{"2025-08-01", "2025-08-31"}, 31},
		{Period{"2025-08-10", "2025-08-01"}, -8},
		{Period{"garbage", "2025-08-01"}, 0},
	}
	for _, tc := range cases {
		if got := tc.p.InclusiveDays(); got != tc.want {
			t.Fatalf("%+v: expected %d, got %d", tc.p, tc.want, got)
		}
	}

	all := ResolvePeriod(PeriodAll, NewDate(2025, 1, 1))
	if n := all.InclusiveDays(); n < 2025*365 {
		t.Fatalf("all-time period too short: %d", n)
	}
}

func TestPeriodContainsIsInclusive(t *testing.T) {
	p := Period{Start: "2025-08-01", End: "2025-08-31"}
	for _, d := range []string{"2025-08-01", "2025-08-15", "2025-08-31"} {
		if !p.Contains(d) {
			t.Fatalf("%s should be inside %+v", d, p)
		}
	}
	for _, d := range []string{"2025-07-31", "2025-09-01"} {
		if p.Contains(d) {
			t.Fatalf("%s should be outside %+v", d, p)
		}
	}
}

func TestParsePeriodMode(t *testing.T) {
	cases := map[string]PeriodMode{
		"":      PeriodMonth,
		"mes":   PeriodMonth,
		"month": PeriodMonth,
		"30":    PeriodLast30,
		"30d":   PeriodLast30,
		"all":   PeriodAll,
	}
	for in, want := range cases {
		if got := ParsePeriodMode(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2025-08-27")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.YearMonth() != "2025-08" || d.String() != "2025-08-27" {
		t.Fatalf("unexpected formatting: %s %s", d.YearMonth(), d)
	}
	if d.AddDays(5).String() != "2025-09-01" {
		t.Fatalf("AddDays across month: %s", d.AddDays(5))
	}
	if YearMonthOf("2025-08-27") != "2025-08" || YearMonthOf("bad") != "bad" {
		t.Fatalf("YearMonthOf mismatch")
	}
}
