package clock

import "time"

// Clock is the time source injected into every usecase.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the wall clock in UTC.
func System() Clock { return systemClock{} }

// Fixed always returns T. Useful in tests.
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }

// AddMonths adds n calendar months to t, clamping the day to the last day of the target
// month (Jan 31 + 1 month = Feb 28/29, not Mar 3).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
