package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appConfig "github.com/festy23/prmetrics/internal/config"
	dbConfig "github.com/festy23/prmetrics/internal/database/config"
	"github.com/festy23/prmetrics/internal/database/database"
	"github.com/festy23/prmetrics/internal/database/migrate"
	"github.com/festy23/prmetrics/internal/derived/calculator"
	derivedService "github.com/festy23/prmetrics/internal/derived/service"
	"github.com/festy23/prmetrics/internal/event"
	"github.com/festy23/prmetrics/internal/health"
	"github.com/festy23/prmetrics/internal/metrics"
	"github.com/festy23/prmetrics/internal/server"
	"github.com/festy23/prmetrics/pkg/logger"
)

const dbStatsInterval = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and statistics HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := appConfig.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	log, db, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Errorw("failed to close database", "error", err)
		}
		_ = log.Sync()
	}()

	if cfg.MigrateOnStart {
		if err := migrate.Migrate(db); err != nil {
			return err
		}
		log.Infow("migrations applied", "path", migrate.GetMigrationsPath())
	}

	lockTimeout := dbConfig.LoadConfigFromEnv().LockTimeout

	dispatcher := event.NewDispatcher(logger.Component(log, "events"))
	engine := derivedService.New(db, calculator.New(cfg.Size), lockTimeout, logger.Component(log, "derived"))
	engine.Subscribe(dispatcher)

	g, gCtx := errgroup.WithContext(ctx)

	deps := server.Deps{
		DB:           db,
		Publisher:    dispatcher,
		LockTimeout:  lockTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	}

	if cfg.Events.Backend == appConfig.EventsBackendAsynq {
		publisher := event.NewAsynqPublisher(cfg.Events, logger.Component(log, "events"))
		defer publisher.Close()
		probe := event.NewProbe(cfg.Events)
		defer probe.Close()

		deps.Publisher = publisher
		deps.HealthChecks = append(deps.HealthChecks, health.WithCheck("events", probe.Check))

		worker := event.NewServer(cfg.Events, logger.Component(log, "asynq"))
		g.Go(func() error {
			if err := worker.Start(event.NewServeMux(dispatcher)); err != nil {
				return fmt.Errorf("failed to start event worker: %w", err)
			}
			log.Infow("event worker started", "queue", cfg.Events.Queue)
			<-gCtx.Done()
			worker.Shutdown()
			return nil
		})
	}

	sqlDB, err := database.SQL(db)
	if err != nil {
		return err
	}
	g.Go(func() error {
		metrics.CollectDBStats(gCtx, sqlDB, dbStatsInterval, logger.Component(log, "metrics"))
		return nil
	})

	srv := server.New(cfg.Server, server.NewRouter(deps))
	server.Run(gCtx, g, srv, cfg.Server.ShutdownTimeout, log)

	return g.Wait()
}
