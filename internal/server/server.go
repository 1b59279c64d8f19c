// Package server assembles the HTTP router and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	appConfig "github.com/festy23/prmetrics/internal/config"
	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/health"
	"github.com/festy23/prmetrics/internal/ingest"
	labelRouter "github.com/festy23/prmetrics/internal/label/router"
	"github.com/festy23/prmetrics/internal/middleware"
	projectRepository "github.com/festy23/prmetrics/internal/project/repository"
	pullrequestRouter "github.com/festy23/prmetrics/internal/pullrequest/router"
	reviewRouter "github.com/festy23/prmetrics/internal/review/router"
	reviewerRouter "github.com/festy23/prmetrics/internal/reviewer/router"
	statisticsRouter "github.com/festy23/prmetrics/internal/statistics/router"
	"github.com/festy23/prmetrics/internal/webhook"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	DB          *gorm.DB
	Publisher   event.Publisher
	LockTimeout time.Duration
	// MaxBodyBytes caps webhook bodies; zero disables the cap.
	MaxBodyBytes int64
	Logger       *zap.SugaredLogger
	// HealthChecks are probed by GET /health in addition to the database.
	HealthChecks []health.Option
}

// NewRouter registers every route on a new gin engine.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.Metrics(),
	)

	r.GET("/health", health.New(d.DB, d.Logger, d.HealthChecks...).Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	projects := projectRepository.New(d.DB, d.Logger)
	runner := ingest.New(d.DB, projects, d.Publisher, d.LockTimeout, d.Logger)

	webhooks := r.Group("/webhooks",
		middleware.BodyLimit(d.MaxBodyBytes),
		webhook.Authenticate(projects, d.Logger),
	)
	pullrequestRouter.RegisterRoutes(webhooks, runner, d.Logger)
	labelRouter.RegisterRoutes(webhooks, runner, d.Logger)
	reviewerRouter.RegisterRoutes(webhooks, runner, d.Logger)
	reviewRouter.RegisterRoutes(webhooks, runner, d.Logger)

	statisticsRouter.RegisterRoutes(r, d.DB, d.Logger)

	return r
}

// New builds the http.Server for handler.
func New(cfg appConfig.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetAddress(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run serves srv in g and shuts it down gracefully once ctx is done.
func Run(
	ctx context.Context,
	g *errgroup.Group,
	srv *http.Server,
	shutdownTimeout time.Duration,
	logger *zap.SugaredLogger,
) {
	g.Go(func() error {
		logger.Infow("http server started", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		logger.Infow("http server stopped listening")
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Infow("http server is shutting down", "timeout", shutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		logger.Infow("http server shut down gracefully")
		return nil
	})
}
