package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrences_None(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	got := Occurrences(start, end, Recurrence{Frequency: FreqNone})
	require.Len(t, got, 1)
	assert.Equal(t, start, got[0].Start)
	assert.Equal(t, end, got[0].End)

	// The empty frequency behaves like none.
	assert.Len(t, Occurrences(start, end, Recurrence{}), 1)
}

func TestOccurrences_Daily(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	until := start.AddDate(0, 0, 3)

	got := Occurrences(start, end, Recurrence{Frequency: FreqDaily, Until: until})
	require.Len(t, got, 4)
	for i, iv := range got {
		assert.Equal(t, start.AddDate(0, 0, i), iv.Start)
		assert.Equal(t, end.AddDate(0, 0, i), iv.End)
	}
}

func TestOccurrences_Weekly(t *testing.T) {
	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC) // a Monday
	end := start.Add(2 * time.Hour)
	until := start.AddDate(0, 0, 21)

	got := Occurrences(start, end, Recurrence{Frequency: FreqWeekly, Until: until})
	require.Len(t, got, 4)
	for _, iv := range got {
		assert.Equal(t, time.Monday, iv.Start.Weekday())
	}
}

func TestOccurrences_Biweekly(t *testing.T) {
	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	until := start.AddDate(0, 0, 28)

	got := Occurrences(start, end, Recurrence{Frequency: FreqBiweekly, Until: until})
	require.Len(t, got, 3)
	assert.Equal(t, start.AddDate(0, 0, 14), got[1].Start)
	assert.Equal(t, start.AddDate(0, 0, 28), got[2].Start)
}

func TestOccurrences_MonthlyKeepsDayAndTime(t *testing.T) {
	start := time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	until := start.AddDate(0, 3, 0)

	got := Occurrences(start, end, Recurrence{Frequency: FreqMonthly, Until: until})
	require.Len(t, got, 4)
	for i, iv := range got {
		assert.Equal(t, 15, iv.Start.Day())
		assert.Equal(t, 14, iv.Start.Hour())
		assert.Equal(t, 30, iv.Start.Minute())
		assert.Equal(t, time.Month(1+i), iv.Start.Month())
	}
}

func TestOccurrences_MonthlyClampsMonthEnd(t *testing.T) {
	start := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	until := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	got := Occurrences(start, end, Recurrence{Frequency: FreqMonthly, Until: until})
	require.Len(t, got, 4)

	// A day-31 anchor clamps to the last day of shorter months and snaps
	// back to the 31st afterwards; February is never skipped and the clamp
	// never drifts into later months.
	wantStarts := []time.Time{
		time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC),
	}
	for i, iv := range got {
		assert.Equal(t, wantStarts[i], iv.Start)
		assert.Equal(t, wantStarts[i].Add(2*time.Hour), iv.End)
	}
}

func TestOccurrences_MonthlyLeapFebruary(t *testing.T) {
	start := time.Date(2028, 1, 31, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	until := time.Date(2028, 3, 1, 0, 0, 0, 0, time.UTC)

	got := Occurrences(start, end, Recurrence{Frequency: FreqMonthly, Until: until})
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC), got[1].Start)
}

func TestOccurrences_UntilBeforeFirstStep(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// Until lands between the first occurrence and the next step: the first
	// occurrence still happens, nothing else does.
	got := Occurrences(start, end, Recurrence{Frequency: FreqDaily, Until: start.Add(2 * time.Hour)})
	assert.Len(t, got, 1)
}

func TestFrequencyValid(t *testing.T) {
	for _, f := range []Frequency{"", FreqNone, FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly} {
		assert.True(t, f.Valid(), "frequency %q", f)
	}
	assert.False(t, Frequency("hourly").Valid())
}
