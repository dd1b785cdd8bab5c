// Package daterange handles acquisition window parsing, chunking, and the
// calendar bucketing used when thinning search results to a cadence.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for acquisition dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", value)
	}
	return t.UTC(), nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Range is an inclusive acquisition window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Parse builds a Range from two YYYY-MM-DD strings, rejecting inverted
// windows.
func Parse(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	if e.Before(s) {
		return Range{}, fmt.Errorf("invalid range: end %s precedes start %s", FormatDate(e), FormatDate(s))
	}
	return Range{Start: s, End: e}, nil
}

// Contains reports whether t falls inside the window, endpoints included.
func (r Range) Contains(t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	return !t.After(r.End)
}

// IsZero reports whether the range carries no dates. Basemap orders have no
// acquisition window.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r Range) String() string {
	if r.IsZero() {
		return "(no window)"
	}
	return FormatDate(r.Start) + " to " + FormatDate(r.End)
}

// Subdivide splits the window into consecutive chunks spanning at most
// maxMonths each. Chunks cover the window exactly with no gaps or overlap.
func (r Range) Subdivide(maxMonths int) []Range {
	if maxMonths < 1 {
		maxMonths = 1
	}
	var chunks []Range
	cursor := r.Start
	for !cursor.After(r.End) {
		chunkEnd := addMonths(cursor, maxMonths).AddDate(0, 0, -1)
		if chunkEnd.After(r.End) {
			chunkEnd = r.End
		}
		chunks = append(chunks, Range{Start: cursor, End: chunkEnd})
		cursor = chunkEnd.AddDate(0, 0, 1)
	}
	return chunks
}

// addMonths advances by whole calendar months, clamping to the last day when
// the target month is shorter. Jan 31 plus one month is Feb 28, not Mar 3.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekStart returns the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -int(t.Weekday()))
}

// Cadence selects how densely scenes are kept when thinning search results.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// ParseCadence validates a cadence label.
func ParseCadence(value string) (Cadence, error) {
	switch Cadence(strings.ToLower(strings.TrimSpace(value))) {
	case CadenceDaily:
		return CadenceDaily, nil
	case CadenceWeekly:
		return CadenceWeekly, nil
	case CadenceMonthly:
		return CadenceMonthly, nil
	}
	return "", fmt.Errorf("invalid cadence %q: must be daily, weekly, or monthly", value)
}

// IntervalKey buckets a date by cadence. Daily keys are the date itself,
// weekly keys the preceding Sunday, monthly keys the YYYY-MM prefix.
func IntervalKey(t time.Time, cadence Cadence) string {
	switch cadence {
	case CadenceDaily:
		return FormatDate(t)
	case CadenceMonthly:
		return t.UTC().Format("2006-01")
	default:
		return FormatDate(WeekStart(t))
	}
}
