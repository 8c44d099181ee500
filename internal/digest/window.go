// Package digest synthesizes time-windowed artifacts: daily summaries over
// one calendar day and weekly reports over one ISO week.
package digest

import (
	"fmt"
	"time"
)

// Window is a half-open UTC interval [Start, End) with a human label.
type Window struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether ts (RFC 3339 UTC) falls inside the window. The
// comparison is lexical; RFC 3339 UTC strings order the same as the instants
// they name.
func (w Window) Contains(ts string) bool {
	return ts >= w.StartString() && ts < w.EndString()
}

func (w Window) StartString() string { return w.Start.Format(time.RFC3339) }
func (w Window) EndString() string   { return w.End.Format(time.RFC3339) }

// DailyWindow is the UTC calendar day containing target, labeled YYYY-MM-DD.
func DailyWindow(target time.Time) Window {
	t := target.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Label: start.Format("2006-01-02"),
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}
}

// WeeklyWindow is the ISO week containing target: it starts on the most
// recent Monday at or before target's UTC midnight, spans seven days, and is
// labeled YYYY-Www from the ISO week of that Monday.
func WeeklyWindow(target time.Time) Window {
	t := target.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	monday := day.AddDate(0, 0, -offset)
	year, week := monday.ISOWeek()
	return Window{
		Label: fmt.Sprintf("%04d-W%02d", year, week),
		Start: monday,
		End:   monday.AddDate(0, 0, 7),
	}
}

// Days lists the daily labels the window covers, in order.
func (w Window) Days() []string {
	var out []string
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}

// ParseDate parses a YYYY-MM-DD window target.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("digest: bad date %q: %w", s, err)
	}
	return t, nil
}
