package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/finquest/internal/infrastructure/config"
)

func TestRunMigrationsSQLiteAndSeed(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "finquest.db"),
	}}

	repo, cleanup, err := runMigrations(ctx, cfg)
	require.NoError(t, err)
	defer cleanup()

	created, err := seedUsers(ctx, repo, []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = seedUsers(ctx, repo, []string{"alice", "carol"})
	require.NoError(t, err)
	assert.Equal(t, 1, created, "alice already has progress")

	got, err := repo.Find(ctx, "carol")
	require.NoError(t, err)
	assert.Zero(t, got.XP)
	assert.Empty(t, got.CompletedLessons)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "finquest.db")}}

	for i := 0; i < 2; i++ {
		_, cleanup, err := runMigrations(ctx, cfg)
		require.NoError(t, err)
		cleanup()
	}
}

func TestNormalizeUsers(t *testing.T) {
	assert.Nil(t, normalizeUsers(nil))
	assert.Nil(t, normalizeUsers([]string{" ", ""}))
	assert.Equal(t, []string{"a", "b"}, normalizeUsers([]string{" a", "", "b "}))
}

func TestProgressStep(t *testing.T) {
	assert.Equal(t, 1000, progressStep(0))
	assert.Equal(t, 1, progressStep(10))
	assert.Equal(t, 50, progressStep(1000))
	assert.Equal(t, 1000, progressStep(1_000_000))
}
