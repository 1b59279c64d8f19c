package stats

import (
	"fmt"
	"time"
)

// Period is the width of a trend bucket.
type Period string

const (
	// Weekly buckets start on ISO week Monday 00:00.
	Weekly Period = "weekly"
	// Monthly buckets start on the first day of the calendar month.
	Monthly Period = "monthly"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Weekly, Monthly:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown period %q (must be: weekly, monthly)", s)
	}
}

// WeekStart returns Monday 00:00 of the ISO week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// Sunday is 0 in time.Weekday, ISO weeks end on it
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of t's month at 00:00, in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// BucketStart aligns t to the start of its bucket.
func (p Period) BucketStart(t time.Time) time.Time {
	if p == Monthly {
		return MonthStart(t)
	}
	return WeekStart(t)
}

// Next returns the start of the bucket following the one starting at start.
func (p Period) Next(start time.Time) time.Time {
	if p == Monthly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 7)
}

// Buckets returns the starts of every bucket overlapping [from, to], in order.
// Empty spans still produce their buckets.
func (p Period) Buckets(from, to time.Time) []time.Time {
	if to.Before(from) {
		return nil
	}

	var starts []time.Time
	for start := p.BucketStart(from); !start.After(to); start = p.Next(start) {
		starts = append(starts, start)
	}
	return starts
}
