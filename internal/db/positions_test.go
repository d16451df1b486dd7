package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationkit/aircheck/internal/logger"
	"github.com/stationkit/aircheck/internal/models"
)

func setupPositionsTest(t *testing.T) *PositionRepository {
	t.Helper()

	logger.Init("error", false)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	err = RunMigrations(sqlDB, "file://../../migrations")
	require.NoError(t, err)

	return NewPositionRepository(database)
}

func TestPositionRepository_UpsertAndGet(t *testing.T) {
	repo := setupPositionsTest(t)
	ctx := context.Background()

	pos := &models.ListenerPosition{
		ListenerID: "listener-1",
		Year:       2024, Month: 1, Day: 15, Hour: 14, Minute: 30, Second: 45,
	}
	require.NoError(t, repo.Upsert(ctx, pos))

	got, err := repo.GetByListenerID(ctx, "listener-1")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, 14, got.Hour)
	assert.Equal(t, 30, got.Minute)
	assert.Equal(t, 45, got.Second)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestPositionRepository_UpsertReplacesExisting(t *testing.T) {
	repo := setupPositionsTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.ListenerPosition{
		ListenerID: "listener-1",
		Year:       2024, Month: 1, Day: 15, Hour: 14,
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ListenerPosition{
		ListenerID: "listener-1",
		Year:       2024, Month: 1, Day: 16, Hour: 9, Minute: 5,
	}))

	got, err := repo.GetByListenerID(ctx, "listener-1")
	require.NoError(t, err)
	assert.Equal(t, 16, got.Day)
	assert.Equal(t, 9, got.Hour)
	assert.Equal(t, 5, got.Minute)
}

func TestPositionRepository_GetMissing(t *testing.T) {
	repo := setupPositionsTest(t)

	_, err := repo.GetByListenerID(context.Background(), "nobody")
	assert.True(t, IsNotFound(err))
}

func TestPositionRepository_InvalidInput(t *testing.T) {
	repo := setupPositionsTest(t)
	ctx := context.Background()

	_, err := repo.GetByListenerID(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, repo.Upsert(ctx, nil), ErrInvalidInput)
	assert.ErrorIs(t, repo.Upsert(ctx, &models.ListenerPosition{}), ErrInvalidInput)
}

func TestPositionRepository_Delete(t *testing.T) {
	repo := setupPositionsTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.ListenerPosition{
		ListenerID: "listener-1",
		Year:       2024, Month: 1, Day: 15, Hour: 14,
	}))
	require.NoError(t, repo.Delete(ctx, "listener-1"))

	_, err := repo.GetByListenerID(ctx, "listener-1")
	assert.True(t, IsNotFound(err))
}
