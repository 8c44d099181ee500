package digest

import (
	"testing"
	"time"
)

func TestDailyWindow(t *testing.T) {
	w := DailyWindow(time.Date(2026, 3, 2, 15, 45, 0, 0, time.UTC))
	if w.Label != "2026-03-02" {
		t.Errorf("label = %q", w.Label)
	}
	if w.StartString() != "2026-03-02T00:00:00Z" || w.EndString() != "2026-03-03T00:00:00Z" {
		t.Errorf("window = [%s, %s)", w.StartString(), w.EndString())
	}
}

func TestWindowContainsHalfOpen(t *testing.T) {
	w := DailyWindow(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	cases := []struct {
		ts   string
		want bool
	}{
		{"2026-03-02T00:00:00Z", true},  // start is inclusive
		{"2026-03-02T23:59:59Z", true},
		{"2026-03-03T00:00:00Z", false}, // end is exclusive
		{"2026-03-01T23:59:59Z", false},
	}
	for _, tc := range cases {
		if got := w.Contains(tc.ts); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.ts, got, tc.want)
		}
	}
}

func TestWeeklyWindow(t *testing.T) {
	// 2026-01-08 is a Thursday; its ISO week starts Monday 2026-01-05.
	w := WeeklyWindow(time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC))
	if w.Label != "2026-W02" {
		t.Errorf("label = %q, want 2026-W02", w.Label)
	}
	if w.StartString() != "2026-01-05T00:00:00Z" {
		t.Errorf("start = %s", w.StartString())
	}
	if w.EndString() != "2026-01-12T00:00:00Z" {
		t.Errorf("end = %s", w.EndString())
	}
}

func TestWeeklyWindowMondayIsItsOwnWeek(t *testing.T) {
	w := WeeklyWindow(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if w.StartString() != "2026-01-05T00:00:00Z" {
		t.Errorf("monday target moved the window start to %s", w.StartString())
	}
}

func TestWeeklyWindowYearBoundary(t *testing.T) {
	// 2026-01-01 is a Thursday inside ISO week 2026-W01, which starts on
	// Monday 2025-12-29.
	w := WeeklyWindow(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	if w.Label != "2026-W01" {
		t.Errorf("label = %q, want 2026-W01", w.Label)
	}
	if w.StartString() != "2025-12-29T00:00:00Z" {
		t.Errorf("start = %s", w.StartString())
	}

	// 2027-01-01 is a Friday belonging to ISO week 2026-W53.
	w = WeeklyWindow(time.Date(2027, 1, 1, 8, 0, 0, 0, time.UTC))
	if w.Label != "2026-W53" {
		t.Errorf("label = %q, want 2026-W53", w.Label)
	}
}

func TestWindowDays(t *testing.T) {
	w := WeeklyWindow(time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))
	days := w.Days()
	if len(days) != 7 {
		t.Fatalf("days = %d, want 7", len(days))
	}
	if days[0] != "2026-01-05" || days[6] != "2026-01-11" {
		t.Errorf("days = %v", days)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2026-03-02"); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	if _, err := ParseDate("03/02/2026"); err == nil {
		t.Error("invalid date accepted")
	}
}
