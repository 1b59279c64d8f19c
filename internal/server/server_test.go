package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appConfig "github.com/festy23/prmetrics/internal/config"
	"github.com/festy23/prmetrics/internal/database/dbtest"
	"github.com/festy23/prmetrics/internal/derived/calculator"
	derivedService "github.com/festy23/prmetrics/internal/derived/service"
	"github.com/festy23/prmetrics/internal/event"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	statisticsHandler "github.com/festy23/prmetrics/internal/statistics/handler"
	statisticsModel "github.com/festy23/prmetrics/internal/statistics/model"
	"github.com/festy23/prmetrics/internal/webhook"
)

const apiKey = "key-1"

func setup(t *testing.T) (*gin.Engine, *projectModel.Project) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	project := dbtest.SeedProject(t, db, "user-1", apiKey)
	logger := zap.NewNop().Sugar()

	dispatcher := event.NewDispatcher(logger)
	derivedService.New(db, calculator.New(appConfig.DefaultSizeConfig()), 0, logger).Subscribe(dispatcher)

	return NewRouter(Deps{DB: db, Publisher: dispatcher, Logger: logger}), project
}

func do(r *gin.Engine, method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_WebhookToStatistics(t *testing.T) {
	r, project := setup(t)
	auth := map[string]string{webhook.HeaderAPIKey: apiKey}

	opened := `{
		"number": 1, "head_commit_sha": "c1", "occurred_at": "2024-01-15T10:00:00Z",
		"title": "Add cache", "link": "https://github.com/acme/app/pull/1", "author": "octocat",
		"changed_files": 1, "additions": 80, "deletions": 20,
		"commits": [{"sha": "c1", "committed_at": "2024-01-15T09:00:00Z"}],
		"files": [{"path": "cache.go", "status": "added", "additions": 80, "deletions": 20}],
		"created_at": "2024-01-15T10:00:00Z"
	}`
	w := do(r, http.MethodPost, "/webhooks/pull-requests/opened", auth, opened)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"accepted"}`, w.Body.String())

	// redelivery is absorbed
	w = do(r, http.MethodPost, "/webhooks/pull-requests/opened", auth, opened)
	require.Equal(t, http.StatusAccepted, w.Code)

	closed := `{"number": 1, "head_commit_sha": "c1", "occurred_at": "2024-01-15T12:00:00Z",
		"merged": true, "closed_at": "2024-01-15T12:00:00Z"}`
	w = do(r, http.MethodPost, "/webhooks/pull-requests/closed", auth, closed)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	path := "/statistics/projects/" + strconv.FormatUint(uint64(project.ID), 10) + "/lifecycle?from=2024-01-01&to=2024-01-31"
	w = do(r, http.MethodGet, path, map[string]string{statisticsHandler.HeaderUserID: "user-1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary statisticsModel.LifecycleSummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Merged)
	assert.InDelta(t, 120.0, summary.AverageTimeToMergeMinutes, 0.001)
	assert.InDelta(t, 100.0, summary.ClosedWithoutReviewRate, 0.001)
}

func TestRouter_Webhooks(t *testing.T) {
	r, _ := setup(t)

	t.Run("unknown api key", func(t *testing.T) {
		w := do(r, http.MethodPost, "/webhooks/labels/added", map[string]string{webhook.HeaderAPIKey: "nope"}, `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("label on unknown pull request", func(t *testing.T) {
		body := `{"number": 9, "head_commit_sha": "x", "occurred_at": "2024-01-15T10:00:00Z", "name": "bug"}`
		w := do(r, http.MethodPost, "/webhooks/labels/added", map[string]string{webhook.HeaderAPIKey: apiKey}, body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("label removal on unknown pull request is absorbed", func(t *testing.T) {
		body := `{"number": 9, "head_commit_sha": "x", "occurred_at": "2024-01-15T10:00:00Z", "name": "bug"}`
		w := do(r, http.MethodPost, "/webhooks/labels/removed", map[string]string{webhook.HeaderAPIKey: apiKey}, body)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestRouter_Operational(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := appConfig.ServerConfig{
		Host:         "127.0.0.1",
		Port:         "0",
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
	}
	srv := New(cfg, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:0", srv.Addr)

	ctx, cancel := context.WithCancel(context.Background())
	g, gCtx := errgroup.WithContext(ctx)
	Run(gCtx, g, srv, time.Second, zap.NewNop().Sugar())

	cancel()
	assert.NoError(t, g.Wait())
}
