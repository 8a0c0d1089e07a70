// Package period implements the 21st-to-20th reporting calendar used to
// bucket inspection records. A period always runs from the 21st of one
// month through the 20th of the next, inclusive.
package period

import (
	"fmt"
	"time"
)

var monthAbbrev = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Period is the value object for one reporting window. StartDate is
// always the 21st, EndDate the 20th of the following month, both at
// midnight UTC. The label carries no year, so two periods a year apart
// render identically; callers show the year separately.
type Period struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Label     string    `json:"label"`
}

// ForDate returns the period containing the given date. Dates before
// the 21st belong to the period that started the previous month.
func ForDate(t time.Time) Period {
	year, month, day := t.Year(), int(t.Month()), t.Day()

	startYear, startMonth := year, month
	endYear, endMonth := year, month+1

	if day < 21 {
		startMonth = month - 1
		if month == 1 {
			startYear = year - 1
			startMonth = 12
		}
		endYear = year
		endMonth = month
	} else if month == 12 {
		endYear = year + 1
		endMonth = 1
	}

	start := time.Date(startYear, time.Month(startMonth), 21, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.Month(endMonth), 20, 0, 0, 0, 0, time.UTC)

	label := fmt.Sprintf("%s 21 - %s 20", monthAbbrev[startMonth-1], monthAbbrev[endMonth-1])

	return Period{StartDate: start, EndDate: end, Label: label}
}

// Available returns count periods ending with the one containing from,
// ordered oldest to newest.
func Available(from time.Time, count int) []Period {
	if count <= 0 {
		return nil
	}

	periods := make([]Period, 0, count)
	current := ForDate(from)
	for i := 0; i < count; i++ {
		periods = append(periods, current)
		// Recompute from the 21st of the month preceding the current
		// start so each step lands exactly one period earlier.
		current = ForDate(current.StartDate.AddDate(0, -1, 0))
	}

	for i, j := 0, len(periods)-1; i < j; i, j = i+1, j-1 {
		periods[i], periods[j] = periods[j], periods[i]
	}
	return periods
}

// LastThree returns the period containing to plus the two before it,
// oldest first.
func LastThree(to time.Time) []Period {
	return Available(to, 3)
}

// Previous returns the period immediately before p.
func Previous(p Period) Period {
	return ForDate(p.StartDate.AddDate(0, -1, 0))
}

// Next returns the period immediately after p.
func Next(p Period) Period {
	return ForDate(p.EndDate.AddDate(0, 1, 0))
}

// Contains reports whether the date falls inside the period, inclusive.
func (p Period) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// Equal compares the date fields; labels are derived so they follow.
func (p Period) Equal(other Period) bool {
	return p.StartDate.Equal(other.StartDate) && p.EndDate.Equal(other.EndDate)
}

// DateRange formats the bounds as YYYY-MM-DD strings for store queries.
func (p Period) DateRange() (string, string) {
	return p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02")
}
