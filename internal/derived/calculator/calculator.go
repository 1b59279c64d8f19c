// Package calculator holds the pure derived-metric formulas. It never touches storage.
package calculator

import (
	"sort"
	"time"

	"github.com/samber/lo"

	appConfig "github.com/festy23/prmetrics/internal/config"
	derivedModel "github.com/festy23/prmetrics/internal/derived/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	reviewModel "github.com/festy23/prmetrics/internal/review/model"
	reviewerModel "github.com/festy23/prmetrics/internal/reviewer/model"
	"github.com/festy23/prmetrics/pkg/stats"
)

// Calculator computes derived metrics with configurable size weights and thresholds.
type Calculator struct {
	size appConfig.SizeConfig
}

// New creates a calculator. Callers validate cfg beforehand.
func New(cfg appConfig.SizeConfig) *Calculator {
	return &Calculator{size: cfg}
}

// SizeScore is the weighted sum of additions, deletions and changed files, rounded to 2 decimals.
func (c *Calculator) SizeScore(s pullrequestModel.ChangeStats) float64 {
	score := c.size.WeightAdditions*float64(s.Additions) +
		c.size.WeightDeletions*float64(s.Deletions) +
		c.size.WeightFiles*float64(s.ChangedFiles)
	return stats.Round2(score)
}

// Grade buckets total changed lines. A value equal to a threshold belongs to the next grade up.
func (c *Calculator) Grade(totalLines int) derivedModel.SizeGrade {
	switch {
	case totalLines < c.size.ThresholdXS:
		return derivedModel.GradeXS
	case totalLines < c.size.ThresholdS:
		return derivedModel.GradeS
	case totalLines < c.size.ThresholdM:
		return derivedModel.GradeM
	case totalLines < c.size.ThresholdL:
		return derivedModel.GradeL
	default:
		return derivedModel.GradeXL
	}
}

// Size builds the size record of a pull request.
func (c *Calculator) Size(
	pr *pullrequestModel.PullRequest,
	files []pullrequestModel.File,
	now time.Time,
) *derivedModel.PullRequestSize {
	changes := pr.ChangeStats()
	return &derivedModel.PullRequestSize{
		PullRequestID:       pr.ID,
		Additions:           changes.Additions,
		Deletions:           changes.Deletions,
		ChangedFiles:        changes.ChangedFiles,
		SizeScore:           c.SizeScore(changes),
		SizeGrade:           c.Grade(changes.TotalLines()),
		FileChangeDiversity: FileChangeDiversity(files),
		CalculatedAt:        now,
	}
}

var diversityCategories = []pullrequestModel.FileStatus{
	pullrequestModel.FileAdded,
	pullrequestModel.FileModified,
	pullrequestModel.FileRemoved,
	pullrequestModel.FileRenamed,
}

// FileChangeDiversity is the number of distinct change categories present
// (added, modified, removed, renamed) divided by the number of changed files.
func FileChangeDiversity(files []pullrequestModel.File) float64 {
	if len(files) == 0 {
		return 0
	}
	present := lo.Uniq(lo.FilterMap(files, func(f pullrequestModel.File, _ int) (pullrequestModel.FileStatus, bool) {
		return f.Status, lo.Contains(diversityCategories, f.Status)
	}))
	return float64(len(present)) / float64(len(files))
}

// SortReviews orders reviews by submission time, then by GitHub id for ties.
func SortReviews(reviews []reviewModel.Review) []reviewModel.Review {
	sorted := make([]reviewModel.Review, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].SubmittedAt.Equal(sorted[j].SubmittedAt) {
			return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
		}
		return sorted[i].GithubReviewID < sorted[j].GithubReviewID
	})
	return sorted
}

// RoundTrips counts CHANGES_REQUESTED reviews that are followed by any later review.
func RoundTrips(reviews []reviewModel.Review) int {
	sorted := SortReviews(reviews)
	trips := 0
	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].State == reviewModel.StateChangesRequested {
			trips++
		}
	}
	return trips
}

// FirstReviewAt returns the earliest submission time, if any review exists.
func FirstReviewAt(reviews []reviewModel.Review) (time.Time, bool) {
	if len(reviews) == 0 {
		return time.Time{}, false
	}
	return SortReviews(reviews)[0].SubmittedAt, true
}

// Lifecycle builds the closure record. The pull request must be MERGED or CLOSED.
func Lifecycle(
	pr *pullrequestModel.PullRequest,
	reviewCount int,
	now time.Time,
) *derivedModel.PullRequestLifecycle {
	timing := pr.Timing()
	lifecycle := &derivedModel.PullRequestLifecycle{
		PullRequestID:       pr.ID,
		FinalState:          string(pr.State),
		IsMerged:            pr.State == pullrequestModel.StateMerged,
		IsClosed:            pr.State.IsTerminal(),
		ClosedWithoutReview: pr.State.IsTerminal() && reviewCount == 0,
		CalculatedAt:        now,
	}
	if timing.ClosedAt != nil {
		lifecycle.ClosedAt = *timing.ClosedAt
	}
	if lifespan, ok := timing.Lifespan(); ok {
		lifecycle.TotalLifespanMinutes = lifespan.Minutes()
	}
	if ttm, ok := timing.TimeToMerge(); ok {
		minutes := ttm.Minutes()
		lifecycle.TimeToMergeMinutes = &minutes
	}
	return lifecycle
}

// Activity builds the review activity record at closure. Additional reviewers are
// review requests added after the first review; changes after review are commits
// made after it.
func Activity(
	pullRequestID uint,
	reviews []reviewModel.Review,
	reviewerHistory []reviewerModel.History,
	commits []pullrequestModel.Commit,
	now time.Time,
) *derivedModel.ReviewActivity {
	activity := &derivedModel.ReviewActivity{
		PullRequestID:     pullRequestID,
		ReviewCount:       len(reviews),
		ReviewRoundTrips:  RoundTrips(reviews),
		TotalCommentCount: lo.SumBy(reviews, func(r reviewModel.Review) int { return r.CommentCount }),
		HasReviewActivity: len(reviews) > 0,
		CalculatedAt:      now,
	}

	firstReview, ok := FirstReviewAt(reviews)
	if !ok {
		return activity
	}
	activity.HasAdditionalReviewersRequested = lo.SomeBy(reviewerHistory, func(h reviewerModel.History) bool {
		return h.Action == reviewerModel.ActionAdded && h.ChangedAt.After(firstReview)
	})
	activity.HasChangesAfterReview = lo.SomeBy(commits, func(c pullrequestModel.Commit) bool {
		return c.CommittedAt.After(firstReview)
	})
	return activity
}

// Session summarizes one reviewer's reviews on a pull request. It returns nil when
// the reviewer has no reviews.
func Session(
	pullRequestID uint,
	reviewerID int64,
	reviews []reviewModel.Review,
	now time.Time,
) *derivedModel.ReviewSession {
	own := SortReviews(lo.Filter(reviews, func(r reviewModel.Review, _ int) bool {
		return r.ReviewerID == reviewerID
	}))
	if len(own) == 0 {
		return nil
	}

	first := own[0].SubmittedAt
	last := own[len(own)-1].SubmittedAt
	duration, err := pullrequestModel.Between(first, last)
	if err != nil {
		duration = 0
	}

	return &derivedModel.ReviewSession{
		PullRequestID:          pullRequestID,
		ReviewerID:             reviewerID,
		ReviewCount:            len(own),
		FirstActivityAt:        first,
		LastActivityAt:         last,
		SessionDurationMinutes: duration.Minutes(),
		CalculatedAt:           now,
	}
}

// ResponseTime replays reviews in order. Each CHANGES_REQUESTED opens (or re-opens) an
// outstanding request; the next APPROVED resolves it and records the resolution time.
func ResponseTime(
	pullRequestID uint,
	reviews []reviewModel.Review,
	now time.Time,
) *derivedModel.ReviewResponseTime {
	rt := &derivedModel.ReviewResponseTime{
		PullRequestID: pullRequestID,
		CalculatedAt:  now,
	}

	outstanding := false
	for _, r := range SortReviews(reviews) {
		switch r.State {
		case reviewModel.StateChangesRequested:
			at := r.SubmittedAt
			rt.ChangesRequestedCount++
			rt.LastChangesRequestedAt = &at
			rt.FirstApproveAfterChangesAt = nil
			rt.ChangesResolutionMinutes = nil
			rt.Resolved = false
			outstanding = true
		case reviewModel.StateApproved:
			if !outstanding {
				continue
			}
			at := r.SubmittedAt
			resolution, err := pullrequestModel.Between(*rt.LastChangesRequestedAt, at)
			if err != nil {
				continue
			}
			minutes := resolution.Minutes()
			rt.FirstApproveAfterChangesAt = &at
			rt.ChangesResolutionMinutes = &minutes
			rt.Resolved = true
			outstanding = false
		}
	}
	return rt
}
