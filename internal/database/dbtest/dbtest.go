// Package dbtest opens in-memory SQLite databases with the full schema for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	derivedModel "github.com/festy23/prmetrics/internal/derived/model"
	labelModel "github.com/festy23/prmetrics/internal/label/model"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	reviewModel "github.com/festy23/prmetrics/internal/review/model"
	reviewerModel "github.com/festy23/prmetrics/internal/reviewer/model"
)

// Models lists every table of the schema in dependency order.
func Models() []interface{} {
	return []interface{}{
		&projectModel.Project{},
		&pullrequestModel.PullRequest{},
		&pullrequestModel.StateHistory{},
		&pullrequestModel.Commit{},
		&pullrequestModel.File{},
		&labelModel.Label{},
		&labelModel.History{},
		&reviewerModel.RequestedReviewer{},
		&reviewerModel.History{},
		&reviewModel.Review{},
		&reviewModel.Comment{},
		&derivedModel.PullRequestSize{},
		&derivedModel.ReviewActivity{},
		&derivedModel.PullRequestLifecycle{},
		&derivedModel.ReviewSession{},
		&derivedModel.ReviewResponseTime{},
	}
}

// Open returns a migrated in-memory database closed at test cleanup.
// A single connection serializes transactions the way row locks do on PostgreSQL.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(Models()...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SeedProject stores a project with the given API key.
func SeedProject(t *testing.T, db *gorm.DB, userID, apiKey string) *projectModel.Project {
	t.Helper()
	project := &projectModel.Project{
		UserID:   userID,
		Name:     "project-" + apiKey,
		APIKey:   apiKey,
		TimeZone: "UTC",
	}
	require.NoError(t, db.Create(project).Error)
	return project
}
