// Package quota tracks per-user daily download counts. Counters are keyed by
// UTC calendar day and reset implicitly at the next UTC midnight.
package quota

import "time"

// Counter is the daily-count store. Consume increments the user's counter for
// today if it is still under limit and reports whether the increment was
// applied along with the count remaining afterwards.
type Counter interface {
	Used(userID string) (int, error)
	Consume(userID string, limit int) (allowed bool, remaining int, err error)
}

// DayKey returns the UTC calendar-day component of counter keys.
func DayKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// DayStart returns the UTC midnight opening the day containing now.
func DayStart(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextReset returns the next UTC midnight after now, when daily counters roll.
func NextReset(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
