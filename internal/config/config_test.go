package config

import (
	"testing"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(50*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:8000", m.GetAnalysisServiceConfig().BaseURL)
	assert.Equal(t, 120*time.Second, m.GetAnalysisServiceConfig().Timeout)
	assert.Equal(t, "memory", m.GetSessionConfig().Backend)
	assert.Equal(t, 12*time.Hour, m.GetSessionConfig().TTL)
	assert.Equal(t, "none", m.GetArchiveConfig().Backend)
	assert.Zero(t, m.GetArchiveConfig().RetentionDays)
	assert.Equal(t, "@daily", m.GetArchiveConfig().RetentionSchedule)
	assert.Equal(t, "pharmaguard", m.GetDatabaseConfig().Database)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())

	assert.NoError(t, m.Validate())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PHARMAGUARD_SERVER_PORT", "9090")
	t.Setenv("PHARMAGUARD_ANALYSIS_SERVICE_BASE_URL", "https://pgx.example.org")
	t.Setenv("PHARMAGUARD_SESSION_BACKEND", "redis")
	t.Setenv("PHARMAGUARD_SERVER_ALLOWED_ORIGINS", "https://a.example.org, https://b.example.org")
	t.Setenv("PHARMAGUARD_ENVIRONMENT", "production")

	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 9090, m.GetServerConfig().Port)
	assert.Equal(t, "https://pgx.example.org", m.GetAnalysisServiceConfig().BaseURL)
	assert.Equal(t, "redis", m.GetSessionConfig().Backend)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, m.GetServerConfig().AllowedOrigins)
	assert.True(t, m.IsProduction())
	assert.NoError(t, m.Validate())
}

func validConfig() *domain.Config {
	return &domain.Config{
		Server:          domain.ServerConfig{Port: 8080, MaxUploadBytes: 1024},
		AnalysisService: domain.AnalysisServiceConfig{BaseURL: "http://localhost:8000", RateLimit: 5},
		Session:         domain.SessionConfig{Backend: "memory", MaxEntries: 10},
		Archive:         domain.ArchiveConfig{Backend: "none"},
		Database:        domain.DatabaseConfig{Host: "localhost", Database: "pharmaguard", Username: "postgres"},
		Logging:         domain.LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "bad port", mutate: func(c *domain.Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "no upload size", mutate: func(c *domain.Config) { c.Server.MaxUploadBytes = 0 }, wantErr: "max upload size"},
		{name: "missing base url", mutate: func(c *domain.Config) { c.AnalysisService.BaseURL = "" }, wantErr: "base URL is required"},
		{name: "relative base url", mutate: func(c *domain.Config) { c.AnalysisService.BaseURL = "/api" }, wantErr: "invalid analysis service base URL"},
		{name: "unknown session backend", mutate: func(c *domain.Config) { c.Session.Backend = "memcached" }, wantErr: "invalid session backend"},
		{name: "redis without url", mutate: func(c *domain.Config) {
			c.Session.Backend = "redis"
			c.Session.RedisURL = ""
		}, wantErr: "Redis URL is required"},
		{name: "sqlite without path", mutate: func(c *domain.Config) { c.Archive.Backend = "sqlite" }, wantErr: "sqlite path"},
		{name: "postgres without host", mutate: func(c *domain.Config) {
			c.Archive.Backend = "postgres"
			c.Database.Host = ""
		}, wantErr: "database host is required"},
		{name: "analytics without database name", mutate: func(c *domain.Config) {
			c.Archive.Analytics = true
			c.Database.Database = ""
		}, wantErr: "database name is required"},
		{name: "negative retention", mutate: func(c *domain.Config) { c.Archive.RetentionDays = -1 }, wantErr: "retention days"},
		{name: "bad log level", mutate: func(c *domain.Config) { c.Logging.Level = "verbose" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseStrings(t *testing.T) {
	db := domain.DatabaseConfig{
		Host: "db", Port: 5432, Database: "pharmaguard",
		Username: "pg", Password: "p@ss", SSLMode: "disable",
	}

	assert.Equal(t, "host=db port=5432 user=pg password=p@ss dbname=pharmaguard sslmode=disable",
		DatabaseConnectionString(db))
	assert.Equal(t, "postgres://pg:p%40ss@db:5432/pharmaguard?sslmode=disable", DatabaseURL(db))
}
