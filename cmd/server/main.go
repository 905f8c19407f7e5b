package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pharmaguard-dashboard/internal/api"
	"github.com/pharmaguard-dashboard/internal/archive"
	"github.com/pharmaguard-dashboard/internal/config"
	"github.com/pharmaguard-dashboard/internal/database"
	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/pharmaguard-dashboard/internal/logging"
	"github.com/pharmaguard-dashboard/internal/realtime"
	"github.com/pharmaguard-dashboard/internal/repository"
	"github.com/pharmaguard-dashboard/internal/service"
	"github.com/pharmaguard-dashboard/internal/session"
	"github.com/pharmaguard-dashboard/pkg/external"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()

	logger.WithFields(logrus.Fields{
		"host":             cfg.Server.Host,
		"port":             cfg.Server.Port,
		"analysis_service": cfg.AnalysisService.BaseURL,
		"session_backend":  cfg.Session.Backend,
		"archive_backend":  cfg.Archive.Backend,
		"analytics":        cfg.Archive.Analytics,
	}).Info("Starting PharmaGuard dashboard gateway")

	client := external.NewAnalysisClient(cfg.AnalysisService, logger)

	hub := realtime.NewHub(logger)
	defer hub.Close()

	store, err := newSessionStore(ctx, cfg.Session, hub, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var sinks []domain.RunSink
	deps := api.Dependencies{Hub: hub, Logger: logger}

	if cfg.Archive.Backend == "postgres" || cfg.Archive.Analytics {
		if err := migrate(ctx, cfg.Database, logger); err != nil {
			return err
		}
	}

	archiveStore, err := newArchive(cfg)
	if err != nil {
		return err
	}
	if archiveStore != nil {
		defer archiveStore.Close()
		sinks = append(sinks, archiveStore)
		deps.Archive = archiveStore
	}

	if cfg.Archive.Analytics {
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := repository.NewAnalysisRepository(db.Pool, logger)
		sinks = append(sinks, repo)
		deps.Analytics = repo
	}

	analysis := service.NewAnalysisService(client, store, logger,
		service.WithSinks(sinks...),
		service.WithPublisher(hub),
		service.WithSessionTTL(cfg.Session.TTL),
	)
	defer analysis.WaitForArchives()
	deps.Analysis = analysis

	server := api.NewServer(configManager, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	if archiveStore != nil && cfg.Archive.RetentionDays > 0 {
		maxAge := time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour
		retention := archive.NewRetention(archiveStore, maxAge, logger)
		g.Go(func() error {
			return retention.Run(gctx, cfg.Archive.RetentionSchedule)
		})
	}
	return g.Wait()
}

// newSessionStore builds the configured session backend. With Redis, status events
// also travel through Redis pub/sub so every replica's listeners receive them.
func newSessionStore(ctx context.Context, cfg domain.SessionConfig, hub *realtime.Hub, logger *logrus.Logger) (session.Store, error) {
	if cfg.Backend != "redis" {
		return session.NewMemoryStore(cfg.MaxEntries, cfg.TTL), nil
	}

	store, err := session.NewRedisStore(cfg)
	if err != nil {
		return nil, err
	}

	bus, err := realtime.NewRedisBus(store.Client(), realtime.DefaultChannel, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := hub.AttachBus(ctx, bus); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to attach status bus: %w", err)
	}
	return store, nil
}

func newArchive(cfg *domain.Config) (archive.Store, error) {
	switch cfg.Archive.Backend {
	case "sqlite":
		store, err := archive.NewSQLiteStore(cfg.Archive.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite archive: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := archive.NewPostgresStoreFromConfig(config.DatabaseConnectionString(cfg.Database), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres archive: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}

// migrate brings the PostgreSQL schema used by the archive and analytics up to date.
func migrate(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(config.DatabaseURL(cfg), cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return runner.Up(ctx)
}
