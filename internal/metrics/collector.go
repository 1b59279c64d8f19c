package metrics

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// CollectDBStats samples connection pool statistics every interval until ctx is done.
func CollectDBStats(ctx context.Context, sqlDB *sql.DB, interval time.Duration, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			RecordDBStats(sqlDB.Stats())
			logger.Debugw("updated db connection pool metrics", "in_use", sqlDB.Stats().InUse)
		case <-ctx.Done():
			logger.Infow("stopping db stats collector")
			return
		}
	}
}

// RecordDBStats copies pool statistics into the gauges.
func RecordDBStats(stats sql.DBStats) {
	DBConnectionsInUse.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
	DBWaitCount.Set(float64(stats.WaitCount))
}
