package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.True(t, cfg.ArchiveEnabled)
	assert.Equal(t, 100, cfg.RecentMaxItems)
	assert.Equal(t, time.Hour, cfg.RecentTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearLiteEnv(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.True(t, cfg.ArchiveEnabled)
	assert.Equal(t, 100, cfg.RecentMaxItems)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearLiteEnv(t)

	t.Setenv("PHARMAGUARD_DATA_DIR", "/tmp/test-pharmaguard")
	t.Setenv("PHARMAGUARD_ARCHIVE", "false")
	t.Setenv("PHARMAGUARD_RECENT_MAX_ITEMS", "25")
	t.Setenv("PHARMAGUARD_RECENT_TTL", "10m")
	t.Setenv("PHARMAGUARD_LOG_LEVEL", "debug")
	t.Setenv("PHARMAGUARD_LOG_FORMAT", "text")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-pharmaguard", cfg.DataDir)
	assert.False(t, cfg.ArchiveEnabled)
	assert.Equal(t, 25, cfg.RecentMaxItems)
	assert.Equal(t, 10*time.Minute, cfg.RecentTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_IgnoresInvalidValues(t *testing.T) {
	clearLiteEnv(t)

	t.Setenv("PHARMAGUARD_ARCHIVE", "maybe")
	t.Setenv("PHARMAGUARD_RECENT_MAX_ITEMS", "-3")
	t.Setenv("PHARMAGUARD_RECENT_TTL", "soon")

	cfg := LoadLiteConfig()

	assert.True(t, cfg.ArchiveEnabled)
	assert.Equal(t, 100, cfg.RecentMaxItems)
	assert.Equal(t, time.Hour, cfg.RecentTTL)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.pharmaguard"}

	assert.Equal(t, "/home/user/.pharmaguard/runs.db", cfg.ArchiveDBPath())
	assert.Equal(t, "/home/user/.pharmaguard/exports", cfg.ExportDir())
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "pharmaguard")}

	require.NoError(t, cfg.EnsureDataDir())

	_, err := os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearLiteEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"PHARMAGUARD_DATA_DIR",
		"PHARMAGUARD_ARCHIVE",
		"PHARMAGUARD_RECENT_MAX_ITEMS",
		"PHARMAGUARD_RECENT_TTL",
		"PHARMAGUARD_LOG_LEVEL",
		"PHARMAGUARD_LOG_FORMAT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}
