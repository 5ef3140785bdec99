package timecalc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Tiliavir/punch/internal/timecalc"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m"},
		{90, "1m"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{5400, "1h 30m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDurationHHMMSS(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDurationHHMMSS(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDurationHHMMSS(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday; weeks run Sunday to Saturday.
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	sunday, saturday := timecalc.WeekRange(fri)

	wantSunday := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	wantSaturday := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)

	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}
	if !saturday.Equal(wantSaturday) {
		t.Errorf("WeekRange saturday = %v, want %v", saturday, wantSaturday)
	}

	// A Sunday starts its own week.
	sun := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	start, _ := timecalc.WeekRange(sun)
	if !timecalc.SameDay(start, sun) {
		t.Errorf("WeekRange(sunday) start = %v, want same day", start)
	}
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		period    string
		wantStart string
		wantEnd   string
	}{
		{"", "2026-02-27", "2026-02-27"},
		{"today", "2026-02-27", "2026-02-27"},
		{"this-week", "2026-02-22", "2026-02-28"},
		{"this-month", "2026-02-01", "2026-02-28"},
		{"2024-02", "2024-02-01", "2024-02-29"},
		{"2026-12", "2026-12-01", "2026-12-31"},
	}
	for _, tt := range tests {
		w, err := timecalc.ParsePeriod(tt.period, now)
		if err != nil {
			t.Fatalf("ParsePeriod(%q): %v", tt.period, err)
		}
		if w.Start != tt.wantStart || w.End != tt.wantEnd {
			t.Errorf("ParsePeriod(%q) = %s..%s, want %s..%s", tt.period, w.Start, w.End, tt.wantStart, tt.wantEnd)
		}
	}

	if _, err := timecalc.ParsePeriod("yesterday", now); err == nil {
		t.Error("ParsePeriod(yesterday): expected error")
	}
}

func TestCustomWindow(t *testing.T) {
	w, err := timecalc.CustomWindow("2026-01-05", "2026-01-09")
	if err != nil {
		t.Fatalf("CustomWindow: %v", err)
	}
	if w.Start != "2026-01-05" || w.End != "2026-01-09" {
		t.Errorf("CustomWindow = %+v", w)
	}
	if _, err := timecalc.CustomWindow("2026-01-09", "2026-01-05"); !errors.Is(err, timecalc.ErrInvalidRange) {
		t.Errorf("reversed range error = %v, want ErrInvalidRange", err)
	}
	if _, err := timecalc.CustomWindow("2026/01/05", "2026-01-09"); err == nil {
		t.Error("expected error for malformed start date")
	}
}

func TestMonthsSince(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	got := timecalc.MonthsSince(time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC), now)
	want := []string{"2026-03", "2026-02", "2026-01", "2025-12"}
	if len(got) != len(want) {
		t.Fatalf("MonthsSince = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MonthsSince[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// An earliest date in the future still yields the current month.
	got = timecalc.MonthsSince(now.AddDate(0, 2, 0), now)
	if len(got) != 1 || got[0] != "2026-03" {
		t.Errorf("MonthsSince(future) = %v, want [2026-03]", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	for _, ts := range []string{
		"2026-02-27T09:00:00Z",
		"2026-02-27T09:00:00.000Z",
		"2026-02-27T10:00:00+01:00",
		"2026-02-27T09:00:00",
		"2026-02-27T09:00:00.123",
	} {
		got, err := timecalc.ParseTimestamp(ts)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", ts, err)
			continue
		}
		if !got.Truncate(time.Second).Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", ts, got, want)
		}
	}
	if _, err := timecalc.ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 27, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	if !timecalc.SameDay(a, b) {
		t.Error("SameDay: expected same day for a and b")
	}
	if timecalc.SameDay(a, c) {
		t.Error("SameDay: expected different day for a and c")
	}
}
