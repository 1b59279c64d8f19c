// Package service provides business logic for statistics module.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	derivedModel "github.com/festy23/prmetrics/internal/derived/model"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	projectRepository "github.com/festy23/prmetrics/internal/project/repository"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	reviewModel "github.com/festy23/prmetrics/internal/review/model"
	"github.com/festy23/prmetrics/internal/statistics/model"
	"github.com/festy23/prmetrics/internal/statistics/repository"
	"github.com/festy23/prmetrics/internal/validation"
	"github.com/festy23/prmetrics/pkg/stats"
)

// topReviewersLimit caps the reviewer list of the concentration report.
const topReviewersLimit = 5

// Service defines statistics queries. Every query checks that the project
// belongs to userID and fails with projectModel.ErrProjectNotFound otherwise.
type Service interface {
	ReviewerConcentration(ctx context.Context, userID string, projectID uint, r model.DateRange) (*model.ReviewerConcentrationResponse, error)
	SizeCorrelation(ctx context.Context, userID string, projectID uint, r model.DateRange) (*model.SizeCorrelationResponse, error)
	ReviewWaitTime(ctx context.Context, userID string, projectID uint, r model.DateRange) (*model.ReviewWaitTimeResponse, error)
	Trend(ctx context.Context, userID string, projectID uint, r model.DateRange, period stats.Period) (*model.TrendResponse, error)
	SizeDistribution(ctx context.Context, userID string, projectID uint, r model.DateRange) (*model.SizeDistributionResponse, error)
	LifecycleSummary(ctx context.Context, userID string, projectID uint, r model.DateRange) (*model.LifecycleSummaryResponse, error)
}

type service struct {
	projects projectRepository.Repository
	repo     repository.Repository
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// Option configures the statistics service.
type Option func(*service)

// WithClock overrides the clock used for open-ended trend ranges.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new statistics service instance.
func New(
	projects projectRepository.Repository,
	repo repository.Repository,
	logger *zap.SugaredLogger,
	opts ...Option,
) Service {
	s := &service{
		projects: projects,
		repo:     repo,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// bounds is a date range resolved to instants in the project's zone. To is exclusive.
type bounds struct {
	from *time.Time
	to   *time.Time
}

func resolve(r model.DateRange, loc *time.Location) (bounds, error) {
	var b bounds
	if r.From != nil {
		from := startOfDay(*r.From, loc)
		b.from = &from
	}
	if r.To != nil {
		to := startOfDay(*r.To, loc).AddDate(0, 0, 1)
		b.to = &to
	}
	if b.from != nil && b.to != nil && !b.from.Before(*b.to) {
		return b, validation.Invalid("from must not be after to")
	}
	return b, nil
}

func startOfDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (s *service) load(
	ctx context.Context,
	userID string,
	projectID uint,
	r model.DateRange,
) (*projectModel.Project, bounds, *model.Snapshot, error) {
	project, err := s.projects.GetOwnedByUser(ctx, userID, projectID)
	if err != nil {
		return nil, bounds{}, nil, err
	}

	b, err := resolve(r, project.Location())
	if err != nil {
		return nil, bounds{}, nil, err
	}

	snapshot, err := s.repo.Load(ctx, project.ID, b.from, b.to)
	if err != nil {
		return nil, bounds{}, nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	return project, b, snapshot, nil
}

// ReviewerConcentration reports how reviews are spread across reviewers.
func (s *service) ReviewerConcentration(
	ctx context.Context,
	userID string,
	projectID uint,
	r model.DateRange,
) (*model.ReviewerConcentrationResponse, error) {
	_, _, snapshot, err := s.load(ctx, userID, projectID, r)
	if err != nil {
		return nil, err
	}

	byReviewer := lo.GroupBy(snapshot.Reviews, func(rv reviewModel.Review) int64 { return rv.ReviewerID })
	shares := make([]model.ReviewerShare, 0, len(byReviewer))
	counts := make([]float64, 0, len(byReviewer))
	for reviewerID, reviews := range byReviewer {
		shares = append(shares, model.ReviewerShare{
			ReviewerID:  reviewerID,
			Login:       reviews[len(reviews)-1].ReviewerLogin,
			ReviewCount: len(reviews),
			Share:       stats.Percent(len(reviews), len(snapshot.Reviews)),
		})
		counts = append(counts, float64(len(reviews)))
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].ReviewCount != shares[j].ReviewCount {
			return shares[i].ReviewCount > shares[j].ReviewCount
		}
		return shares[i].ReviewerID < shares[j].ReviewerID
	})
	if len(shares) > topReviewersLimit {
		shares = shares[:topReviewersLimit]
	}

	return &model.ReviewerConcentrationResponse{
		ProjectID:     projectID,
		TotalReviews:  len(snapshot.Reviews),
		ReviewerCount: len(byReviewer),
		Gini:          stats.Round2(stats.Gini(counts)),
		TopReviewers:  shares,
	}, nil
}

// SizeCorrelation relates size score to review wait and to review round trips.
func (s *service) SizeCorrelation(
	ctx context.Context,
	userID string,
	projectID uint,
	r model.DateRange,
) (*model.SizeCorrelationResponse, error) {
	_, _, snapshot, err := s.load(ctx, userID, projectID, r)
	if err != nil {
		return nil, err
	}

	firstReviews := firstReviewTimes(snapshot.Reviews)

	var sizeForWait, waits, sizeForTrips, trips []float64
	for _, pr := range snapshot.PullRequests {
		size, ok := snapshot.Sizes[pr.ID]
		if !ok {
			continue
		}
		if first, reviewed := firstReviews[pr.ID]; reviewed {
			sizeForWait = append(sizeForWait, size.SizeScore)
			waits = append(waits, minutesBetween(pr.CreatedAt, first))
		}
		if activity, ok := snapshot.Activities[pr.ID]; ok {
			sizeForTrips = append(sizeForTrips, size.SizeScore)
			trips = append(trips, float64(activity.ReviewRoundTrips))
		}
	}

	return &model.SizeCorrelationResponse{
		ProjectID:             projectID,
		SizeVsReviewWait:      correlate(sizeForWait, waits),
		SizeVsReviewRoundTrip: correlate(sizeForTrips, trips),
	}, nil
}

func correlate(xs, ys []float64) model.Correlation {
	c := model.Correlation{SampleSize: len(xs), Interpretation: "insufficient data"}
	coefficient, ok := stats.Pearson(xs, ys)
	if !ok {
		return c
	}
	rounded := stats.Round2(coefficient)
	c.Coefficient = &rounded
	c.Interpretation = stats.Interpret(coefficient)
	return c
}

// ReviewWaitTime summarizes minutes from creation to the first review.
func (s *service) ReviewWaitTime(
	ctx context.Context,
	userID string,
	projectID uint,
	r model.DateRange,
) (*model.ReviewWaitTimeResponse, error) {
	_, _, snapshot, err := s.load(ctx, userID, projectID, r)
	if err != nil {
		return nil, err
	}

	firstReviews := firstReviewTimes(snapshot.Reviews)
	waits := make([]float64, 0, len(firstReviews))
	for _, pr := range snapshot.PullRequests {
		if first, ok := firstReviews[pr.ID]; ok {
			waits = append(waits, minutesBetween(pr.CreatedAt, first))
		}
	}

	return &model.ReviewWaitTimeResponse{
		ProjectID:       projectID,
		ReviewedCount:   len(waits),
		UnreviewedCount: len(snapshot.PullRequests) - len(waits),
		P50Minutes:      stats.Round2(stats.Percentile(waits, 50)),
		P90Minutes:      stats.Round2(stats.Percentile(waits, 90)),
		AverageMinutes:  stats.Round2(stats.Mean(waits)),
	}, nil
}

// Trend buckets pull requests by creation week or month in the project's zone.
// Buckets without pull requests are reported with zero values.
func (s *service) Trend(
	ctx context.Context,
	userID string,
	projectID uint,
	r model.DateRange,
	period stats.Period,
) (*model.TrendResponse, error) {
	project, b, snapshot, err := s.load(ctx, userID, projectID, r)
	if err != nil {
		return nil, err
	}
	loc := project.Location()

	resp := &model.TrendResponse{
		ProjectID: projectID,
		Period:    string(period),
		TimeZone:  loc.String(),
		Buckets:   []model.TrendBucket{},
	}

	from, to, ok, err := s.trendSpan(ctx, project, b, loc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp, nil
	}

	byBucket := lo.GroupBy(snapshot.PullRequests, func(pr pullrequestModel.PullRequest) string {
		return period.BucketStart(pr.CreatedAt.In(loc)).Format(model.DateLayout)
	})

	for _, start := range period.Buckets(from, to) {
		prs := byBucket[start.Format(model.DateLayout)]
		var sizes, ttms []float64
		merged := 0
		for _, pr := range prs {
			if size, ok := snapshot.Sizes[pr.ID]; ok {
				sizes = append(sizes, size.SizeScore)
			}
			if pr.State == pullrequestModel.StateMerged {
				merged++
			}
			if lc, ok := snapshot.Lifecycles[pr.ID]; ok && lc.TimeToMergeMinutes != nil {
				ttms = append(ttms, float64(*lc.TimeToMergeMinutes))
			}
		}
		resp.Buckets = append(resp.Buckets, model.TrendBucket{
			Start:                     start.Format(model.DateLayout),
			End:                       period.Next(start).AddDate(0, 0, -1).Format(model.DateLayout),
			PullRequestCount:          len(prs),
			MergedCount:               merged,
			AverageSizeScore:          stats.Round2(stats.Mean(sizes)),
			AverageTimeToMergeMinutes: stats.Round2(stats.Mean(ttms)),
		})
	}
	return resp, nil
}

// trendSpan fills open bounds with the first pull request and the current time.
func (s *service) trendSpan(
	ctx context.Context,
	project *projectModel.Project,
	b bounds,
	loc *time.Location,
) (time.Time, time.Time, bool, error) {
	var from, to time.Time
	if b.from != nil {
		from = *b.from
	} else {
		earliest, found, err := s.repo.EarliestCreatedAt(ctx, project.ID)
		if err != nil {
			return from, to, false, fmt.Errorf("failed to resolve trend start: %w", err)
		}
		if !found {
			return from, to, false, nil
		}
		from = earliest.In(loc)
	}
	if b.to != nil {
		// last instant of the inclusive end date
		to = b.to.Add(-time.Nanosecond)
	} else {
		to = s.now().In(loc)
	}
	return from, to, !to.Before(from), nil
}

// SizeDistribution counts pull requests per size grade.
func (s *service) SizeDistribution(
	ctx context.Context,
	userID string,
	projectID uint,
	r model.DateRange,
) (*model.SizeDistributionResponse, error) {
	_, _, snapshot, err := s.load(ctx, userID, projectID, r)
	if err != nil {
		return nil, err
	}

	counts := lo.CountValuesBy(lo.Values(snapshot.Sizes), func(size derivedModel.PullRequestSize) derivedModel.SizeGrade {
		return size.SizeGrade
	})
	total := len(snapshot.Sizes)

	grades := make([]model.GradeShare, 0, len(derivedModel.Grades))
	for _, grade := range derivedModel.Grades {
		grades = append(grades, model.GradeShare{
			Grade:      grade,
			Count:      counts[grade],
			Percentage: stats.Percent(counts[grade], total),
		})
	}

	return &model.SizeDistributionResponse{
		ProjectID: projectID,
		Total:     total,
		Grades:    grades,
	}, nil
}

// LifecycleSummary reports how pull requests in the range ended.
func (s *service) LifecycleSummary(
	ctx context.Context,
	userID string,
	projectID uint,
	r model.DateRange,
) (*model.LifecycleSummaryResponse, error) {
	_, _, snapshot, err := s.load(ctx, userID, projectID, r)
	if err != nil {
		return nil, err
	}

	resp := &model.LifecycleSummaryResponse{
		ProjectID: projectID,
		Total:     len(snapshot.PullRequests),
	}
	for _, pr := range snapshot.PullRequests {
		switch pr.State {
		case pullrequestModel.StateMerged:
			resp.Merged++
		case pullrequestModel.StateClosed:
			resp.Closed++
		default:
			resp.Open++
		}
	}

	var ttms, trips []float64
	withoutReview := 0
	for _, lc := range snapshot.Lifecycles {
		if lc.ClosedWithoutReview {
			withoutReview++
		}
		if lc.TimeToMergeMinutes != nil {
			ttms = append(ttms, float64(*lc.TimeToMergeMinutes))
		}
	}
	for _, activity := range snapshot.Activities {
		trips = append(trips, float64(activity.ReviewRoundTrips))
	}

	resp.MergeRate = stats.Percent(resp.Merged, resp.Merged+resp.Closed)
	resp.ClosedWithoutReviewRate = stats.Percent(withoutReview, len(snapshot.Lifecycles))
	resp.AverageTimeToMergeMinutes = stats.Round2(stats.Mean(ttms))
	resp.AverageReviewRoundTrips = stats.Round2(stats.Mean(trips))
	return resp, nil
}

func firstReviewTimes(reviews []reviewModel.Review) map[uint]time.Time {
	first := make(map[uint]time.Time)
	for _, rv := range reviews {
		if at, ok := first[rv.PullRequestID]; !ok || rv.SubmittedAt.Before(at) {
			first[rv.PullRequestID] = rv.SubmittedAt
		}
	}
	return first
}

func minutesBetween(from, to time.Time) float64 {
	return float64(int64(to.Sub(from) / time.Minute))
}
