package model

import (
	"time"

	"github.com/festy23/prmetrics/internal/validation"
)

// ChangeStats counts the changes in a pull request.
// Zero changed files implies zero additions and deletions.
type ChangeStats struct {
	ChangedFiles int `json:"changed_files"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
}

// NewChangeStats validates and builds ChangeStats.
func NewChangeStats(changedFiles, additions, deletions int) (ChangeStats, error) {
	if changedFiles < 0 || additions < 0 || deletions < 0 {
		return ChangeStats{}, validation.Invalid(
			"change stats must be non-negative (files=%d, additions=%d, deletions=%d)",
			changedFiles, additions, deletions)
	}
	if changedFiles == 0 && (additions > 0 || deletions > 0) {
		return ChangeStats{}, validation.Invalid(
			"change stats report %d additions and %d deletions across zero files", additions, deletions)
	}
	return ChangeStats{ChangedFiles: changedFiles, Additions: additions, Deletions: deletions}, nil
}

// TotalLines returns additions plus deletions.
func (s ChangeStats) TotalLines() int {
	return s.Additions + s.Deletions
}

// Timing holds the lifecycle timestamps of a pull request.
type Timing struct {
	CreatedAt time.Time  `json:"created_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// NewTiming validates ordering: merge and close happen no earlier than creation,
// and a merge never happens after the close it caused.
func NewTiming(createdAt time.Time, mergedAt, closedAt *time.Time) (Timing, error) {
	if createdAt.IsZero() {
		return Timing{}, validation.Invalid("created_at is required")
	}
	if mergedAt != nil && mergedAt.Before(createdAt) {
		return Timing{}, validation.Invalid("merged_at %s is before created_at %s",
			mergedAt.Format(time.RFC3339), createdAt.Format(time.RFC3339))
	}
	if closedAt != nil && closedAt.Before(createdAt) {
		return Timing{}, validation.Invalid("closed_at %s is before created_at %s",
			closedAt.Format(time.RFC3339), createdAt.Format(time.RFC3339))
	}
	if mergedAt != nil && closedAt != nil && mergedAt.After(*closedAt) {
		return Timing{}, validation.Invalid("merged_at %s is after closed_at %s",
			mergedAt.Format(time.RFC3339), closedAt.Format(time.RFC3339))
	}
	return Timing{CreatedAt: createdAt, MergedAt: mergedAt, ClosedAt: closedAt}, nil
}

// TimeToMerge returns the time from creation to merge, if merged.
func (t Timing) TimeToMerge() (DurationMinutes, bool) {
	if t.MergedAt == nil {
		return 0, false
	}
	d, err := Between(t.CreatedAt, *t.MergedAt)
	return d, err == nil
}

// Lifespan returns the time from creation to close, if closed.
func (t Timing) Lifespan() (DurationMinutes, bool) {
	if t.ClosedAt == nil {
		return 0, false
	}
	d, err := Between(t.CreatedAt, *t.ClosedAt)
	return d, err == nil
}

// DurationMinutes is a non-negative elapsed time in whole minutes.
type DurationMinutes int64

// NewDurationMinutes validates a minute count.
func NewDurationMinutes(minutes int64) (DurationMinutes, error) {
	if minutes < 0 {
		return 0, validation.Invalid("duration must be non-negative, got %d minutes", minutes)
	}
	return DurationMinutes(minutes), nil
}

// Between returns the whole minutes from start to end. End before start is invalid.
func Between(start, end time.Time) (DurationMinutes, error) {
	if end.Before(start) {
		return 0, validation.Invalid("end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return DurationMinutes(end.Sub(start) / time.Minute), nil
}

// Plus adds two durations.
func (d DurationMinutes) Plus(other DurationMinutes) DurationMinutes {
	return d + other
}

// Minus subtracts other, failing if the result would be negative.
func (d DurationMinutes) Minus(other DurationMinutes) (DurationMinutes, error) {
	return NewDurationMinutes(int64(d) - int64(other))
}

// Less reports whether d is shorter than other.
func (d DurationMinutes) Less(other DurationMinutes) bool {
	return d < other
}

// Minutes returns the raw minute count.
func (d DurationMinutes) Minutes() int64 {
	return int64(d)
}

// Duration converts to time.Duration.
func (d DurationMinutes) Duration() time.Duration {
	return time.Duration(d) * time.Minute
}
