package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestForDateOnOrAfterTwentyFirst(t *testing.T) {
	p := ForDate(date(2025, time.October, 21))

	require.Equal(t, date(2025, time.October, 21), p.StartDate)
	require.Equal(t, date(2025, time.November, 20), p.EndDate)
	require.Equal(t, "Oct 21 - Nov 20", p.Label)
}

func TestForDateBeforeTwentyFirst(t *testing.T) {
	p := ForDate(date(2025, time.October, 5))

	require.Equal(t, date(2025, time.September, 21), p.StartDate)
	require.Equal(t, date(2025, time.October, 20), p.EndDate)
	require.Equal(t, "Sep 21 - Oct 20", p.Label)
}

func TestForDateWrapsYearBackwardInJanuary(t *testing.T) {
	p := ForDate(date(2025, time.January, 10))

	require.Equal(t, date(2024, time.December, 21), p.StartDate)
	require.Equal(t, date(2025, time.January, 20), p.EndDate)
	require.Equal(t, "Dec 21 - Jan 20", p.Label)
}

func TestForDateWrapsYearForwardInDecember(t *testing.T) {
	p := ForDate(date(2025, time.December, 25))

	require.Equal(t, date(2025, time.December, 21), p.StartDate)
	require.Equal(t, date(2026, time.January, 20), p.EndDate)
	require.Equal(t, "Dec 21 - Jan 20", p.Label)
}

func TestForDateStartDayAlwaysTwentyFirst(t *testing.T) {
	for _, d := range []time.Time{
		date(2024, time.February, 20), // leap-year February
		date(2024, time.February, 29),
		date(2025, time.March, 1),
		date(2025, time.July, 31),
		date(2023, time.January, 1),
	} {
		p := ForDate(d)
		require.Equal(t, 21, p.StartDate.Day(), "start day for %s", d)
		require.Equal(t, 20, p.EndDate.Day(), "end day for %s", d)
		require.True(t, p.Contains(d), "period should contain %s", d)

		// End month is exactly one calendar month after the start.
		next := p.StartDate.AddDate(0, 1, 0)
		require.Equal(t, next.Month(), p.EndDate.Month())
		require.Equal(t, next.Year(), p.EndDate.Year())
	}
}

func TestAvailableChronologicalAndEndsWithCurrent(t *testing.T) {
	from := date(2025, time.October, 27)
	periods := Available(from, 12)

	require.Len(t, periods, 12)
	require.True(t, periods[len(periods)-1].Equal(ForDate(from)))

	for i := 1; i < len(periods); i++ {
		require.True(t, periods[i-1].StartDate.Before(periods[i].StartDate),
			"periods must increase: %s vs %s", periods[i-1].Label, periods[i].Label)
		require.True(t, periods[i-1].Equal(Previous(periods[i])))
	}
}

func TestAvailableCrossesYearBoundary(t *testing.T) {
	periods := Available(date(2025, time.February, 1), 4)

	require.Len(t, periods, 4)
	require.Equal(t, date(2024, time.October, 21), periods[0].StartDate)
	require.Equal(t, date(2025, time.January, 21), periods[3].StartDate)
}

func TestLastThree(t *testing.T) {
	periods := LastThree(date(2025, time.October, 27))

	require.Len(t, periods, 3)
	require.Equal(t, "Aug 21 - Sep 20", periods[0].Label)
	require.Equal(t, "Sep 21 - Oct 20", periods[1].Label)
	require.Equal(t, "Oct 21 - Nov 20", periods[2].Label)
}

func TestPreviousNextRoundTrip(t *testing.T) {
	seeds := []time.Time{
		date(2025, time.October, 21),
		date(2025, time.January, 5),
		date(2025, time.December, 31),
		date(2024, time.February, 29),
	}
	for _, seed := range seeds {
		p := ForDate(seed)
		require.True(t, Next(Previous(p)).Equal(p), "round trip for %s", p.Label)
		require.True(t, Previous(Next(p)).Equal(p), "round trip for %s", p.Label)
	}
}

func TestDateRange(t *testing.T) {
	start, end := ForDate(date(2025, time.October, 21)).DateRange()
	require.Equal(t, "2025-10-21", start)
	require.Equal(t, "2025-11-20", end)
}
