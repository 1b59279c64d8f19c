// Package model provides query inputs and response DTOs for the statistics module.
package model

import (
	"time"

	derivedModel "github.com/festy23/prmetrics/internal/derived/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	reviewModel "github.com/festy23/prmetrics/internal/review/model"
)

// DateLayout is the format of from/to query parameters and bucket bounds.
const DateLayout = "2006-01-02"

// DateRange limits a query to pull requests created between From and To, both
// inclusive calendar dates in the project's time zone. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Snapshot is the raw material of every statistic: pull requests created in the
// range with their derived records and reviews.
type Snapshot struct {
	PullRequests []pullrequestModel.PullRequest
	Sizes        map[uint]derivedModel.PullRequestSize
	Lifecycles   map[uint]derivedModel.PullRequestLifecycle
	Activities   map[uint]derivedModel.ReviewActivity
	Reviews      []reviewModel.Review
}

// ReviewerShare is one reviewer's part of the review load.
type ReviewerShare struct {
	ReviewerID  int64   `json:"reviewer_id"`
	Login       string  `json:"login"`
	ReviewCount int     `json:"review_count"`
	Share       float64 `json:"share_percent"`
}

// ReviewerConcentrationResponse describes how evenly reviews are spread.
type ReviewerConcentrationResponse struct {
	ProjectID     uint            `json:"project_id"`
	TotalReviews  int             `json:"total_reviews"`
	ReviewerCount int             `json:"reviewer_count"`
	Gini          float64         `json:"gini_coefficient"`
	TopReviewers  []ReviewerShare `json:"top_reviewers"`
}

// Correlation is a Pearson coefficient with its reading. Coefficient is nil when
// there is not enough data.
type Correlation struct {
	SampleSize     int      `json:"sample_size"`
	Coefficient    *float64 `json:"coefficient"`
	Interpretation string   `json:"interpretation"`
}

// SizeCorrelationResponse relates pull request size to review wait and round trips.
type SizeCorrelationResponse struct {
	ProjectID             uint        `json:"project_id"`
	SizeVsReviewWait      Correlation `json:"size_vs_review_wait"`
	SizeVsReviewRoundTrip Correlation `json:"size_vs_review_round_trips"`
}

// ReviewWaitTimeResponse summarizes minutes from pull request creation to first review.
type ReviewWaitTimeResponse struct {
	ProjectID       uint    `json:"project_id"`
	ReviewedCount   int     `json:"reviewed_count"`
	UnreviewedCount int     `json:"unreviewed_count"`
	P50Minutes      float64 `json:"p50_minutes"`
	P90Minutes      float64 `json:"p90_minutes"`
	AverageMinutes  float64 `json:"average_minutes"`
}

// TrendBucket is one calendar week or month.
type TrendBucket struct {
	Start                     string  `json:"start"`
	End                       string  `json:"end"`
	PullRequestCount          int     `json:"pull_request_count"`
	MergedCount               int     `json:"merged_count"`
	AverageSizeScore          float64 `json:"average_size_score"`
	AverageTimeToMergeMinutes float64 `json:"average_time_to_merge_minutes"`
}

// TrendResponse lists buckets in order, empty ones included.
type TrendResponse struct {
	ProjectID uint          `json:"project_id"`
	Period    string        `json:"period"`
	TimeZone  string        `json:"time_zone"`
	Buckets   []TrendBucket `json:"buckets"`
}

// GradeShare is the count and share of one size grade.
type GradeShare struct {
	Grade      derivedModel.SizeGrade `json:"grade"`
	Count      int                    `json:"count"`
	Percentage float64                `json:"percentage"`
}

// SizeDistributionResponse lists every grade, empty ones included.
type SizeDistributionResponse struct {
	ProjectID uint         `json:"project_id"`
	Total     int          `json:"total"`
	Grades    []GradeShare `json:"grades"`
}

// LifecycleSummaryResponse summarizes how pull requests end.
type LifecycleSummaryResponse struct {
	ProjectID                 uint    `json:"project_id"`
	Total                     int     `json:"total"`
	Open                      int     `json:"open"`
	Merged                    int     `json:"merged"`
	Closed                    int     `json:"closed"`
	MergeRate                 float64 `json:"merge_rate_percent"`
	ClosedWithoutReviewRate   float64 `json:"closed_without_review_rate_percent"`
	AverageTimeToMergeMinutes float64 `json:"average_time_to_merge_minutes"`
	AverageReviewRoundTrips   float64 `json:"average_review_round_trips"`
}
