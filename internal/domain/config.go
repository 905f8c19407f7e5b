package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	AnalysisService AnalysisServiceConfig `mapstructure:"analysis_service"`
	Session         SessionConfig         `mapstructure:"session"`
	Archive         ArchiveConfig         `mapstructure:"archive"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Logging         LoggingConfig         `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	TLSEnabled     bool          `mapstructure:"tls_enabled"`
	CertFile       string        `mapstructure:"cert_file"`
	KeyFile        string        `mapstructure:"key_file"`
}

// AnalysisServiceConfig configures the remote pharmacogenomic analysis service
type AnalysisServiceConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RateLimit        int           `mapstructure:"rate_limit"` // requests per second
	RetryCount       int           `mapstructure:"retry_count"`
	BreakerThreshold uint32        `mapstructure:"breaker_threshold"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
}

// SessionConfig selects the session store backend
type SessionConfig struct {
	Backend    string        `mapstructure:"backend"` // "memory", "redis"
	RedisURL   string        `mapstructure:"redis_url"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	PoolSize   int           `mapstructure:"pool_size"`
}

// ArchiveConfig selects where completed analysis runs are archived
type ArchiveConfig struct {
	Backend    string `mapstructure:"backend"` // "none", "sqlite", "postgres"
	SQLitePath string `mapstructure:"sqlite_path"`
	Analytics  bool   `mapstructure:"analytics"` // also write per-drug rows through pgx

	RetentionDays     int    `mapstructure:"retention_days"` // 0 keeps runs forever
	RetentionSchedule string `mapstructure:"retention_schedule"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json", "text"
	Output string `mapstructure:"output"` // "stdout", "stderr", or a file path
}
