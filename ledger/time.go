package ledger

import "time"

// =============================================================================
// CLOCK - Authoritative timestamp source
// =============================================================================

// Clock provides the authoritative current time for event ordering.
// Components never call time.Now directly; tests pin the clock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test fixture.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// =============================================================================
// BUSINESS-DAY WINDOWS
// =============================================================================
// One canonical day-boundary rule, used by the cash-sales deriver, the
// daily close, and shift/date range queries alike. Two different cutoff
// rules between components is a latent reconciliation bug.

// DayWindow returns the half-open window [00:00:00, next day 00:00:00)
// in UTC for the date carrying t.
func DayWindow(t time.Time) (from, to time.Time) {
	from = Date(t)
	return from, from.AddDate(0, 0, 1)
}

// Date truncates t to day granularity in UTC.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool { return Date(a).Equal(Date(b)) }

// WeekWindow returns the half-open window [weekStart 00:00, weekEnd+1d 00:00)
// used by payroll aggregation.
func WeekWindow(weekStart, weekEnd time.Time) (from, to time.Time) {
	return Date(weekStart), Date(weekEnd).AddDate(0, 0, 1)
}

// InWindow reports whether t falls in the half-open window [from, to).
func InWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
