package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE_BACKEND", "TRICK_DELAY", "ADVANCE_DELAY", "ACTION_LOG", "DATABASE_URL", "PG_HOST", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "fs", c.StorageBackend)
	assert.Equal(t, 3*time.Second, c.TrickDelay)
	assert.Equal(t, time.Second, c.AdvanceDelay)
	assert.False(t, c.ActionLog)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("TRICK_DELAY", "250")
	t.Setenv("ADVANCE_DELAY", "2s")
	t.Setenv("GAME_ROUNDS", "eight")
	t.Setenv("ACTION_LOG", "on")
	t.Setenv("DOKO_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "")
	t.Setenv("POSTGRES_USER", "doko")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("PG_DATABASE", "doko")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", c.StorageBackend)
	assert.Equal(t, 250*time.Millisecond, c.TrickDelay)
	assert.Equal(t, 2*time.Second, c.AdvanceDelay)
	assert.Equal(t, 16, c.Rounds, "malformed numbers keep the default")
	assert.True(t, c.ActionLog)
	assert.True(t, c.Production())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, "postgres://doko:pw@db:5432/doko", c.DatabaseURL)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "azure")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_HOST", "")
	_, err = Load()
	assert.Error(t, err)
}
