package booking

import "time"

// Frequency is the step of a recurring block request.
type Frequency string

const (
	FreqNone     Frequency = "none"
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
	FreqMonthly  Frequency = "monthly"
)

// Valid reports whether f is a known frequency. The empty frequency is
// treated as none.
func (f Frequency) Valid() bool {
	switch f {
	case "", FreqNone, FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly:
		return true
	}
	return false
}

// Recurrence expands a single block request into a series of candidate
// intervals. It is transient; only the materialized bookings persist.
type Recurrence struct {
	Frequency Frequency
	Until     time.Time
}

// Interval is one candidate occurrence.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Occurrences generates the candidate intervals for a block request: the
// first interval always, then repeated steps until the candidate start
// passes rec.Until. Every candidate is derived from the anchor interval, not
// from the previous candidate, so a shift forced by one irregular month never
// carries into the rest of the series. Monthly advances by calendar month,
// preserving day-of-month and time-of-day; anchors on the 29th-31st are
// clamped to the last day of shorter months (Jan 31 -> Feb 28).
func Occurrences(start, end time.Time, rec Recurrence) []Interval {
	out := []Interval{{Start: start, End: end}}

	var stepDays int
	switch rec.Frequency {
	case FreqDaily:
		stepDays = 1
	case FreqWeekly:
		stepDays = 7
	case FreqBiweekly:
		stepDays = 14
	case FreqMonthly:
		stepDays = 0
	default:
		return out
	}

	for i := 1; ; i++ {
		var s, e time.Time
		if stepDays > 0 {
			s = start.AddDate(0, 0, i*stepDays)
			e = end.AddDate(0, 0, i*stepDays)
		} else {
			s = addMonths(start, i)
			e = addMonths(end, i)
		}

		if s.After(rec.Until) {
			return out
		}
		out = append(out, Interval{Start: s, End: e})
	}
}

// addMonths moves t forward by n calendar months, clamping the day to the
// target month's length instead of letting the overflow normalize into the
// following month (time.AddDate would turn Jan 31 + 1 month into Mar 3).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(n), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
