package events

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Schedule configures when window-closed events fire, in UTC.
type Schedule struct {
	DailyAt   string       // "HH:MM"
	WeeklyAt  string       // "HH:MM"
	WeeklyDay time.Weekday // day the weekly event fires
}

// Scheduler emits WindowClosed events at the configured wall-clock times.
// It checks once per interval and fires at most once per calendar day for
// each window kind, so delayed ticks cannot double-fire.
type Scheduler struct {
	schedule Schedule
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	lastDaily  string // date label of the last daily fire
	lastWeekly string
}

// NewScheduler creates a scheduler. A zero interval defaults to 30 seconds.
func NewScheduler(schedule Schedule, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		interval: 30 * time.Second,
		now:      time.Now,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled, emitting due events.
func (s *Scheduler) Run(ctx context.Context, emit func(WindowClosed)) error {
	dailyH, dailyM, err := parseClock(s.schedule.DailyAt)
	if err != nil {
		return fmt.Errorf("scheduler: daily_at: %w", err)
	}
	weeklyH, weeklyM, err := parseClock(s.schedule.WeeklyAt)
	if err != nil {
		return fmt.Errorf("scheduler: weekly_at: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler: started",
		slog.String("daily_at", s.schedule.DailyAt),
		slog.String("weekly_at", s.schedule.WeeklyAt),
		slog.String("weekly_day", s.schedule.WeeklyDay.String()))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: stopped")
			return nil
		case <-ticker.C:
			now := s.now().UTC()
			day := now.Format("2006-01-02")

			if s.lastDaily != day && pastClock(now, dailyH, dailyM) {
				s.lastDaily = day
				s.logger.Info("scheduler: daily window closed", slog.String("day", day))
				emit(WindowClosed{Kind: WindowDaily})
			}
			if s.lastWeekly != day && now.Weekday() == s.schedule.WeeklyDay && pastClock(now, weeklyH, weeklyM) {
				s.lastWeekly = day
				s.logger.Info("scheduler: weekly window closed", slog.String("day", day))
				emit(WindowClosed{Kind: WindowWeekly})
			}
		}
	}
}

// parseClock parses "HH:MM".
func parseClock(clock string) (hour, minute int, err error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock %q", clock)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed hour in %q", clock)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed minute in %q", clock)
	}
	return hour, minute, nil
}

func pastClock(now time.Time, hour, minute int) bool {
	return now.Hour() > hour || (now.Hour() == hour && now.Minute() >= minute)
}
