package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iconidentify/imgsniff/internal/api"
	"github.com/iconidentify/imgsniff/internal/api/handler"
	"github.com/iconidentify/imgsniff/internal/config"
	"github.com/iconidentify/imgsniff/internal/fetcher"
	"github.com/iconidentify/imgsniff/internal/repository"
	"github.com/iconidentify/imgsniff/internal/service"
	"github.com/iconidentify/imgsniff/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// maxMemoryReports bounds the in-memory report store.
const maxMemoryReports = 1000

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("imgsniff-server %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting imgsniff server",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	reports, dataPath, closeReports, err := openReportRepository(cfg.Storage)
	if err != nil {
		logger.Error("failed to open report storage", "error", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	defer closeReports()

	// Initialize dependencies
	jobRepo := repository.NewInMemoryJobRepository()
	opener := fetcher.NewHTTPOpener(cfg.Fetch)
	f := fetcher.New(cfg.Fetch, opener, logger)

	probeSvc := service.NewProbeService(f, reports, jobRepo, cfg.Fetch, cfg.Worker, logger)

	// Initialize handlers
	probeHandler := handler.NewProbeHandler(probeSvc, logger)
	healthHandler := handler.NewHealthHandler(jobRepo, probeSvc, dataPath, logger)

	// Setup router
	router := api.NewRouter(probeHandler, healthHandler, cfg.Server.APIKey, logger)

	var pool *worker.Pool
	if cfg.Worker.Count > 0 {
		pool = worker.NewPool(
			worker.Config{
				Workers:      cfg.Worker.Count,
				PollInterval: cfg.Worker.PollInterval,
			},
			jobRepo,
			probeSvc,
			logger,
		)
		pool.Start()
	}

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server",
			"addr", srv.Addr,
			"fetch_mode", cfg.Fetch.Mode,
			"storage", cfg.Storage.Driver,
			"auth", cfg.Server.APIKey != "",
		)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop workers; in-flight jobs get 25s to drain before they are canceled
	if pool != nil {
		if err := pool.Stop(25 * time.Second); err != nil {
			logger.Error("worker pool shutdown error", "error", err)
		}
	}

	opener.CloseIdleConnections()
	logger.Info("shutdown complete")
}

// openReportRepository returns the configured report store, the directory
// holding its data (empty for memory) and a close function.
func openReportRepository(cfg config.StorageConfig) (repository.ReportRepository, string, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		repo, err := repository.NewSQLiteReportRepository(cfg.SQLitePath)
		if err != nil {
			return nil, "", nil, err
		}
		return repo, filepath.Dir(cfg.SQLitePath), func() { repo.Close() }, nil
	default:
		return repository.NewInMemoryReportRepository(maxMemoryReports), "", func() {}, nil
	}
}
