// Package mcp exposes the aggregation pipeline to MCP clients over stdio.
// It requires no external services: runs are archived to a local SQLite file.
package mcp

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-dashboard/internal/aggregator"
	"github.com/pharmaguard-dashboard/internal/archive"
	"github.com/pharmaguard-dashboard/internal/config"
	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/pharmaguard-dashboard/internal/logging"
)

const (
	serverName    = "pharmaguard-mcp-server"
	serverVersion = "v0.1.0"

	// mcpSessionID tags runs archived through the MCP server.
	mcpSessionID = "mcp"
)

// Server is the MCP server wrapping the aggregator and the run archive.
type Server struct {
	config     *config.LiteConfig
	mcpServer  *mcp.Server
	aggregator *aggregator.Aggregator
	archive    archive.Store
	recent     *expirable.LRU[string, *domain.AnalysisRun]
	logger     *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server) error

// WithArchive sets a custom run archive, replacing the SQLite file.
func WithArchive(store archive.Store) ServerOption {
	return func(s *Server) error {
		s.archive = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		if logger == nil {
			return fmt.Errorf("logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// WithAggregator sets the aggregator, mainly to pin its clock in tests.
func WithAggregator(agg *aggregator.Aggregator) ServerOption {
	return func(s *Server) error {
		s.aggregator = agg
		return nil
	}
}

// NewServer creates the MCP server. Logs go to stderr because stdout carries the protocol.
func NewServer(cfg *config.LiteConfig, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultLiteConfig()
	}

	logger, err := logging.New(domain.LoggingConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	server := &Server{
		config:     cfg,
		aggregator: aggregator.New(),
		logger:     logger,
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.archive == nil && cfg.ArchiveEnabled {
		if err := cfg.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := archive.NewSQLiteStore(cfg.ArchiveDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create run archive: %w", err)
		}
		server.archive = store
	}

	maxItems := cfg.RecentMaxItems
	if maxItems <= 0 {
		maxItems = 100
	}
	server.recent = expirable.NewLRU[string, *domain.AnalysisRun](maxItems, nil, cfg.RecentTTL)

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)
	server.registerTools()

	server.logger.WithFields(logrus.Fields{
		"archive_enabled": server.archive != nil,
		"recent_max":      maxItems,
	}).Info("MCP server initialized")
	return server, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "aggregate_analysis",
		Description: "Aggregate a raw pharmacogenomic analysis response into the dashboard view model: deduplicated variants, per-drug risk rows, toxicity breakdown and overall risk.",
	}, s.handleAggregateAnalysis)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_analysis_run",
		Description: "Fetch an aggregated run by id, from recent results or the run archive.",
	}, s.handleGetRun)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_analysis_runs",
		Description: "List archived runs newest first, optionally filtered by session.",
	}, s.handleListRuns)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "export_analysis_runs",
		Description: "Write every archived run to a JSON file in the export directory.",
	}, s.handleExportRuns)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "import_analysis_runs",
		Description: "Load runs from a JSON export in the export directory. Runs already archived are skipped.",
	}, s.handleImportRuns)

	s.logger.WithField("tool_count", 5).Debug("Registered MCP tools")
}

// Start runs the server over stdio until the context is cancelled or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting PharmaGuard MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close releases the run archive.
func (s *Server) Close() error {
	s.recent.Purge()
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close run archive")
			return err
		}
	}
	return nil
}
