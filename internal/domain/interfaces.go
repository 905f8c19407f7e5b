package domain

import (
	"context"
)

// AnalysisServiceClient talks to the remote pharmacogenomic analysis service
type AnalysisServiceClient interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*BackendAnalysisResponse, error)
	ValidateVCF(ctx context.Context, fileName string, content []byte) (*VCFValidationResult, error)
	SupportedDrugs(ctx context.Context) ([]SupportedDrug, error)
	Health(ctx context.Context) (*ServiceHealth, error)
}

// RunSink receives archived analysis runs. Sinks are plain write targets; a failing
// sink never affects the analysis outcome.
type RunSink interface {
	SaveRun(ctx context.Context, run *AnalysisRun) error
}

// StatusPublisher fans analysis status changes out to dashboard listeners
type StatusPublisher interface {
	Publish(event StatusEvent)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetAnalysisServiceConfig() *AnalysisServiceConfig
	GetSessionConfig() *SessionConfig
	GetArchiveConfig() *ArchiveConfig
	GetDatabaseConfig() *DatabaseConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	IsProduction() bool
	IsDevelopment() bool
}
