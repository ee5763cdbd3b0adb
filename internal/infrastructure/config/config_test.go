package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseDriverAliases(t *testing.T) {
	cases := map[string]string{
		"":           "sqlite3",
		"sqlite":     "sqlite3",
		"SQLite3":    "sqlite3",
		"postgresql": "postgres",
		"pgx":        "postgres",
		"memory":     "memory",
	}
	for in, want := range cases {
		cfg := &Config{Database: DatabaseConfig{Driver: in}}
		assert.Equal(t, want, cfg.DatabaseDriver(), "driver %q", in)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "mongo"}}
	require.Error(t, cfg.Validate())

	cfg = &Config{Database: DatabaseConfig{Driver: "memory"}, Redis: RedisConfig{Enabled: true}}
	require.Error(t, cfg.Validate())

	cfg.Redis.Addr = "localhost:6379"
	require.NoError(t, cfg.Validate())
}

func TestConnectionStrings(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		User: "fq", Password: "secret", Host: "db", Port: 5433, Name: "finquest", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://fq:secret@db:5433/finquest?sslmode=disable", cfg.DatabaseURL())

	cfg.Database.Path = "/tmp/fq.db"
	assert.Equal(t, "file:/tmp/fq.db?_busy_timeout=5000&_journal_mode=WAL", cfg.SQLiteDSN())

	cfg.Database.Path = "file::memory:?cache=shared"
	assert.Equal(t, "file::memory:?cache=shared", cfg.SQLiteDSN())
}
