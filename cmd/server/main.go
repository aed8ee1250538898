// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/api"
	"github.com/andresuchdata/decision-intel/backend-go/internal/cache"
	"github.com/andresuchdata/decision-intel/backend-go/internal/config"
	"github.com/andresuchdata/decision-intel/backend-go/internal/decision"
	"github.com/andresuchdata/decision-intel/backend-go/internal/drive"
	"github.com/andresuchdata/decision-intel/backend-go/internal/events"
	"github.com/andresuchdata/decision-intel/backend-go/internal/repository"
	"github.com/andresuchdata/decision-intel/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/decision-intel/backend-go/internal/scheduler"
	"github.com/andresuchdata/decision-intel/backend-go/internal/service"
	"github.com/andresuchdata/decision-intel/backend-go/internal/storage"
	"github.com/andresuchdata/decision-intel/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize dataset store")
	}
	defer closeRepo()

	datasetCache, err := cache.NewDatasetCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dataset cache unavailable, continuing without cache")
		datasetCache = cache.NewNoopDatasetCache()
	}

	objectStorage, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Object storage unavailable, uploads will not be archived")
		objectStorage = storage.NewNoop()
	}

	publisher, err := events.New(ctx, cfg.Events)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Event publisher unavailable, events will be dropped")
		publisher = events.NewNoopPublisher()
	}
	defer publisher.Close()

	// Initialize services
	engine := decision.NewEngine(decision.Config{
		SlowMovingThresholdDays:  cfg.Decision.SlowMovingThresholdDays,
		LowStockThresholdPercent: cfg.Decision.LowStockThresholdPercent,
		LeadTimeDays:             cfg.Decision.LeadTimeDays,
		SafetyBufferDays:         cfg.Decision.SafetyBufferDays,
	})
	decisionService := service.NewDecisionService(repo, engine,
		service.WithCache(datasetCache),
		service.WithStorage(objectStorage, cfg.Storage.Prefix),
		service.WithPublisher(publisher),
		service.WithIngestWorkers(cfg.App.IngestWorkers),
		service.WithDatasetTTL(cfg.Store.DatasetTTL),
	)

	sched := scheduler.New(logger.Log)
	if err := registerJobs(ctx, sched, cfg, decisionService); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to register background jobs")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{DecisionService: decisionService}, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: int64(cfg.App.MaxUploadMB) << 20,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("store", cfg.Store.Backend).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func newRepository(ctx context.Context, cfg *config.Config) (repository.DatasetRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory, "":
		return repository.NewMemoryDatasetRepository(), func() {}, nil
	case config.StoreBackendPostgres:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewDatasetRepository(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func registerJobs(ctx context.Context, sched *scheduler.Scheduler, cfg *config.Config, svc *service.DecisionService) error {
	if cfg.Store.DatasetTTL > 0 && cfg.Store.PurgeSchedule != "" {
		if err := sched.AddJob(cfg.Store.PurgeSchedule, service.NewPurgeJob(svc)); err != nil {
			return fmt.Errorf("purge job: %w", err)
		}
	}

	if cfg.Drive.SyncSchedule == "" {
		return nil
	}
	if cfg.Drive.CredentialsJSON == "" || cfg.Drive.FolderID == "" {
		logger.Log.Warn().Msg("Drive sync schedule set without credentials or folder id, skipping")
		return nil
	}
	driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		return err
	}
	job := service.NewDriveSyncJob(svc, drive.NewDownloader(driveService), drive.DownloadOptions{
		FolderID:    cfg.Drive.FolderID,
		DownloadDir: cfg.Drive.DownloadDir,
	})
	if err := sched.AddJob(cfg.Drive.SyncSchedule, job); err != nil {
		return fmt.Errorf("drive sync job: %w", err)
	}
	return nil
}
