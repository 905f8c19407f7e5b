// Package api exposes the dashboard gateway over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-dashboard/internal/archive"
	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/pharmaguard-dashboard/internal/middleware"
	"github.com/pharmaguard-dashboard/internal/realtime"
	"github.com/pharmaguard-dashboard/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// AnalyticsReader serves the drug/risk-label aggregate view.
type AnalyticsReader interface {
	RiskDistributionByDrug(ctx context.Context) ([]domain.DrugRiskCount, error)
}

// Dependencies are the components the routes are served from. Archive and
// Analytics are optional; their routes answer 503 when unset.
type Dependencies struct {
	Analysis  *service.AnalysisService
	Hub       *realtime.Hub
	Archive   archive.Store
	Analytics AnalyticsReader
	Logger    *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	deps          Dependencies
	router        *gin.Engine
	upgrader      *websocket.Upgrader
	server        *http.Server
	log           *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		deps:          deps,
		router:        router,
		upgrader:      realtime.NewUpgrader(cfg.Server.AllowedOrigins),
		log:           deps.Logger,
	}

	server.setupRoutes()

	return server
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{
			"addr": addr,
			"tls":  cfg.TLSEnabled,
		}).Info("HTTP server listening")

		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/drugs", s.handleSupportedDrugs)
		v1.POST("/validate-vcf", s.handleValidateVCF)
		v1.POST("/aggregate", s.handleAggregate)

		sessions := v1.Group("/sessions/:session_id")
		sessions.POST("/analyze", s.handleAnalyze)
		sessions.GET("/result", s.handleGetResult)
		sessions.DELETE("/result", s.handleClearResult)
		sessions.GET("/events", s.handleEvents)

		runs := v1.Group("/archive")
		runs.GET("/runs", s.handleListRuns)
		runs.GET("/runs/:id", s.handleGetRun)
		runs.GET("/export", s.handleExportRuns)

		v1.GET("/analytics/drug-risk", s.handleDrugRisk)
	}
}
