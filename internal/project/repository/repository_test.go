package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	projectModel "github.com/festy23/prmetrics/internal/project/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&projectModel.Project{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New(setupTestDB(t), zap.NewNop().Sugar())

	project := &projectModel.Project{UserID: "u1", Name: "backend", APIKey: "key-1"}
	require.NoError(t, repo.Create(ctx, project))
	require.NotZero(t, project.ID)
	assert.Equal(t, "UTC", project.TimeZone)

	t.Run("find by api key", func(t *testing.T) {
		found, err := repo.FindByAPIKey(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, project.ID, found.ID)
	})

	t.Run("unknown api key", func(t *testing.T) {
		_, err := repo.FindByAPIKey(ctx, "nope")
		assert.ErrorIs(t, err, projectModel.ErrInvalidAPIKey)

		_, err = repo.FindByAPIKey(ctx, "")
		assert.ErrorIs(t, err, projectModel.ErrInvalidAPIKey)
	})

	t.Run("owned by user", func(t *testing.T) {
		found, err := repo.GetOwnedByUser(ctx, "u1", project.ID)
		require.NoError(t, err)
		assert.Equal(t, "backend", found.Name)
	})

	t.Run("not owned by user", func(t *testing.T) {
		_, err := repo.GetOwnedByUser(ctx, "u2", project.ID)
		assert.ErrorIs(t, err, projectModel.ErrProjectNotFound)

		_, err = repo.GetOwnedByUser(ctx, "u1", project.ID+100)
		assert.ErrorIs(t, err, projectModel.ErrProjectNotFound)
	})
}
