package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	projectModel "github.com/festy23/prmetrics/internal/project/model"
	"github.com/festy23/prmetrics/internal/statistics/model"
	"github.com/festy23/prmetrics/internal/statistics/service"
	"github.com/festy23/prmetrics/internal/validation"
	"github.com/festy23/prmetrics/pkg/stats"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ReviewerConcentration(
	ctx context.Context, userID string, projectID uint, r model.DateRange,
) (*model.ReviewerConcentrationResponse, error) {
	args := m.Called(ctx, userID, projectID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewerConcentrationResponse), args.Error(1)
}

func (m *mockService) SizeCorrelation(
	ctx context.Context, userID string, projectID uint, r model.DateRange,
) (*model.SizeCorrelationResponse, error) {
	args := m.Called(ctx, userID, projectID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SizeCorrelationResponse), args.Error(1)
}

func (m *mockService) ReviewWaitTime(
	ctx context.Context, userID string, projectID uint, r model.DateRange,
) (*model.ReviewWaitTimeResponse, error) {
	args := m.Called(ctx, userID, projectID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewWaitTimeResponse), args.Error(1)
}

func (m *mockService) Trend(
	ctx context.Context, userID string, projectID uint, r model.DateRange, period stats.Period,
) (*model.TrendResponse, error) {
	args := m.Called(ctx, userID, projectID, r, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrendResponse), args.Error(1)
}

func (m *mockService) SizeDistribution(
	ctx context.Context, userID string, projectID uint, r model.DateRange,
) (*model.SizeDistributionResponse, error) {
	args := m.Called(ctx, userID, projectID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SizeDistributionResponse), args.Error(1)
}

func (m *mockService) LifecycleSummary(
	ctx context.Context, userID string, projectID uint, r model.DateRange,
) (*model.LifecycleSummaryResponse, error) {
	args := m.Called(ctx, userID, projectID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LifecycleSummaryResponse), args.Error(1)
}

var _ service.Service = (*mockService)(nil)

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/projects/:projectId/trend", h.GetTrend)
	r.GET("/projects/:projectId/lifecycle", h.GetLifecycleSummary)
	r.GET("/projects/:projectId/review-wait", h.GetReviewWaitTime)
	return r
}

func get(r *gin.Engine, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_GetTrend(t *testing.T) {
	t.Run("parses range and period", func(t *testing.T) {
		mockSvc := new(mockService)
		mockSvc.On("Trend", mock.Anything, "u1", uint(7), mock.MatchedBy(func(r model.DateRange) bool {
			return r.From != nil && r.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) &&
				r.To != nil && r.To.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
		}), stats.Monthly).Return(&model.TrendResponse{ProjectID: 7, Period: "monthly"}, nil)

		r := setupRouter(New(mockSvc, zap.NewNop().Sugar()))
		w := get(r, "/projects/7/trend?from=2024-01-01&to=2024-03-31&period=monthly", "u1")

		require.Equal(t, http.StatusOK, w.Code)
		var resp model.TrendResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "monthly", resp.Period)
		mockSvc.AssertExpectations(t)
	})

	t.Run("defaults to weekly", func(t *testing.T) {
		mockSvc := new(mockService)
		mockSvc.On("Trend", mock.Anything, "u1", uint(7), model.DateRange{}, stats.Weekly).
			Return(&model.TrendResponse{}, nil)

		r := setupRouter(New(mockSvc, zap.NewNop().Sugar()))
		w := get(r, "/projects/7/trend", "u1")

		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown period", func(t *testing.T) {
		mockSvc := new(mockService)
		r := setupRouter(New(mockSvc, zap.NewNop().Sugar()))
		w := get(r, "/projects/7/trend?period=daily", "u1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "Trend")
	})
}

func TestHandler_RequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		user   string
		status int
	}{
		{name: "missing user", path: "/projects/7/lifecycle", status: http.StatusUnauthorized},
		{name: "bad project id", path: "/projects/abc/lifecycle", user: "u1", status: http.StatusBadRequest},
		{name: "bad date", path: "/projects/7/lifecycle?from=01-01-2024", user: "u1", status: http.StatusBadRequest},
		{name: "reversed range", path: "/projects/7/lifecycle?from=2024-02-01&to=2024-01-01", user: "u1", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mockService)
			r := setupRouter(New(mockSvc, zap.NewNop().Sugar()))
			w := get(r, tt.path, tt.user)

			assert.Equal(t, tt.status, w.Code)
			mockSvc.AssertNotCalled(t, "LifecycleSummary")
		})
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "foreign project", err: projectModel.ErrProjectNotFound, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "invalid argument", err: validation.Invalid("bad"), status: http.StatusBadRequest, code: "INVALID_REQUEST"},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mockService)
			mockSvc.On("ReviewWaitTime", mock.Anything, "u1", uint(7), model.DateRange{}).Return(nil, tt.err)

			r := setupRouter(New(mockSvc, zap.NewNop().Sugar()))
			w := get(r, "/projects/7/review-wait", "u1")

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
