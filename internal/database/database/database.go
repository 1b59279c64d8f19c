// Package database opens and closes the PostgreSQL connection behind every repository.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/festy23/prmetrics/internal/database/config"
	"github.com/festy23/prmetrics/internal/database/pool"
	"github.com/festy23/prmetrics/pkg/retry"
)

// connectTimeout bounds the whole retry loop, not a single attempt.
const connectTimeout = 2 * time.Minute

var errNilDB = errors.New("database connection is nil")

// New connects with DB_* and DB_POOL_* settings.
func New(logger *zap.SugaredLogger) (*gorm.DB, error) {
	return NewWithConfig(config.LoadConfigFromEnv(), pool.LoadPoolConfigFromEnv(), logger)
}

// NewWithConfig opens a PostgreSQL connection, retrying while the server is unreachable.
// Errors never carry the password.
func NewWithConfig(cfg config.Config, poolCfg pool.Config, logger *zap.SugaredLogger) (*gorm.DB, error) {
	if err := poolCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	retryCfg := config.LoadRetryConfigFromEnv()
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warnw("database unreachable, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", config.SanitizeError(err, cfg),
		)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(logger, cfg.SlowQueryThreshold),
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*gorm.DB, error) {
		return open(ctx, config.BuildDSN(cfg), gormCfg)
	})
	if err != nil {
		return nil, config.SanitizeError(err, cfg)
	}

	if err := pool.SetupConnectionPool(db, poolCfg); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to setup connection pool: %w", err)
	}

	logger.Infow("database connected",
		"host", cfg.Host,
		"db", cfg.DBName,
		"lock_timeout", cfg.LockTimeout,
		"max_open_conns", poolCfg.MaxOpenConns,
	)
	return db, nil
}

func open(ctx context.Context, dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	if err := HealthCheck(ctx, db); err != nil {
		_ = Close(db)
		return nil, err
	}
	return db, nil
}

// SQL returns the pool underneath db.
func SQL(db *gorm.DB) (*sql.DB, error) {
	if db == nil {
		return nil, errNilDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// HealthCheck pings the database.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := SQL(db)
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the pool. A nil db is a no-op.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := SQL(db)
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
