// Package handler provides HTTP handlers for statistics endpoints.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/statistics/model"
	"github.com/festy23/prmetrics/internal/statistics/service"
	"github.com/festy23/prmetrics/pkg/stats"
)

// HeaderUserID carries the caller's user id. Projects are visible only to their owner.
const HeaderUserID = "X-User-ID"

// Handler handles HTTP requests for statistics endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new statistics handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// request holds the parameters shared by every statistics endpoint.
type request struct {
	userID    string
	projectID uint
	dates     model.DateRange
}

func (h *Handler) parse(c *gin.Context) (request, bool) {
	var req request

	req.userID = c.GetHeader(HeaderUserID)
	if req.userID == "" {
		errorResponse(c, "UNAUTHORIZED", "missing "+HeaderUserID+" header", http.StatusUnauthorized)
		return req, false
	}

	id, err := strconv.ParseUint(c.Param("projectId"), 10, 64)
	if err != nil || id == 0 {
		errorResponse(c, "INVALID_REQUEST", "invalid project id", http.StatusBadRequest)
		return req, false
	}
	req.projectID = uint(id)

	for name, dst := range map[string]**time.Time{"from": &req.dates.From, "to": &req.dates.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		d, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			errorResponse(c, "INVALID_REQUEST", name+" must be a YYYY-MM-DD date", http.StatusBadRequest)
			return req, false
		}
		*dst = &d
	}
	if req.dates.From != nil && req.dates.To != nil && req.dates.From.After(*req.dates.To) {
		errorResponse(c, "INVALID_REQUEST", "from must not be after to", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func serve[T any](
	h *Handler,
	c *gin.Context,
	q func(ctx context.Context, userID string, projectID uint, r model.DateRange) (*T, error),
) {
	req, ok := h.parse(c)
	if !ok {
		return
	}
	resp, err := q(c.Request.Context(), req.userID, req.projectID, req.dates)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReviewerConcentration handles GET /statistics/projects/:projectId/reviewer-concentration.
// @Summary Review load concentration across reviewers
// @Tags Statistics
// @Produce json
// @Param projectId path int true "Project ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} model.ReviewerConcentrationResponse
// @Failure 404 {object} ErrorResponse
// @Router /statistics/projects/{projectId}/reviewer-concentration [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetReviewerConcentration(c *gin.Context) {
	serve(h, c, h.service.ReviewerConcentration)
}

// GetSizeCorrelation handles GET /statistics/projects/:projectId/size-correlation.
// @Summary Correlation of pull request size with review wait and round trips
// @Tags Statistics
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} model.SizeCorrelationResponse
// @Failure 404 {object} ErrorResponse
// @Router /statistics/projects/{projectId}/size-correlation [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetSizeCorrelation(c *gin.Context) {
	serve(h, c, h.service.SizeCorrelation)
}

// GetReviewWaitTime handles GET /statistics/projects/:projectId/review-wait.
// @Summary Time from creation to first review
// @Tags Statistics
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} model.ReviewWaitTimeResponse
// @Failure 404 {object} ErrorResponse
// @Router /statistics/projects/{projectId}/review-wait [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetReviewWaitTime(c *gin.Context) {
	serve(h, c, h.service.ReviewWaitTime)
}

// GetTrend handles GET /statistics/projects/:projectId/trend.
// @Summary Weekly or monthly pull request trend
// @Tags Statistics
// @Produce json
// @Param projectId path int true "Project ID"
// @Param period query string false "weekly (default) or monthly"
// @Success 200 {object} model.TrendResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /statistics/projects/{projectId}/trend [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetTrend(c *gin.Context) {
	period, err := stats.ParsePeriod(c.DefaultQuery("period", string(stats.Weekly)))
	if err != nil {
		errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		return
	}
	serve(h, c, func(ctx context.Context, userID string, projectID uint, r model.DateRange) (*model.TrendResponse, error) {
		return h.service.Trend(ctx, userID, projectID, r, period)
	})
}

// GetSizeDistribution handles GET /statistics/projects/:projectId/size-distribution.
// @Summary Pull request count per size grade
// @Tags Statistics
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} model.SizeDistributionResponse
// @Failure 404 {object} ErrorResponse
// @Router /statistics/projects/{projectId}/size-distribution [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetSizeDistribution(c *gin.Context) {
	serve(h, c, h.service.SizeDistribution)
}

// GetLifecycleSummary handles GET /statistics/projects/:projectId/lifecycle.
// @Summary Merge and close outcomes
// @Tags Statistics
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} model.LifecycleSummaryResponse
// @Failure 404 {object} ErrorResponse
// @Router /statistics/projects/{projectId}/lifecycle [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetLifecycleSummary(c *gin.Context) {
	serve(h, c, h.service.LifecycleSummary)
}
