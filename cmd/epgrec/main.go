package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/smetzlaff/epgrec/internal/adapters/primary/http"
	"github.com/smetzlaff/epgrec/internal/adapters/secondary/guide"
	"github.com/smetzlaff/epgrec/internal/adapters/secondary/recorder"
	"github.com/smetzlaff/epgrec/internal/application/services"
	"github.com/smetzlaff/epgrec/internal/infrastructure/audit"
	"github.com/smetzlaff/epgrec/internal/infrastructure/config"
	"github.com/smetzlaff/epgrec/internal/infrastructure/storage"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("epgrec v%s (%s %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting epgrec", slog.String("version", version), slog.String("commit", commit), slog.String("date", date))

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("guide_url", cfg.Guide.BaseURL),
		slog.String("recorder_host", cfg.Recorder.Host),
		slog.Int("recorder_port", cfg.Recorder.Port),
		slog.String("server_host", cfg.Server.Host),
		slog.Int("server_port", cfg.Server.Port),
	)

	// Open audit log
	auditLog, err := audit.Open(cfg.Audit.File)
	if err != nil {
		logger.Error("failed to open audit log", slog.Any("error", err))
		os.Exit(1)
	}
	defer auditLog.Close()

	// Load stores
	channelStore := storage.NewChannelStore(cfg.Storage.ChannelsFile)
	if err := channelStore.Load(); err != nil {
		logger.Error("failed to load channel mapping", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("channel mapping loaded", slog.Int("channels", len(channelStore.IDs())))

	taskStore := storage.NewTaskStore(cfg.Storage.TasksFile)

	// Initialize clients
	guideClient := guide.NewClient(cfg.Guide.BaseURL, cfg.Guide.Timeout, version)
	recorderClient := recorder.NewClient(
		cfg.Recorder.Host,
		cfg.Recorder.Port,
		cfg.Recorder.Timeout,
		cfg.Recorder.PingTimeout,
		channelStore,
		auditLog,
	)

	// Attempt an early appliance probe (non-fatal).
	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := recorderClient.Ping(pingCtx); err != nil {
		logger.Warn("recording appliance not reachable (continuing without it)", slog.Any("error", err))
	} else {
		logger.Info("recording appliance reachable")
	}
	cancel()

	// Initialize services
	epgCache := services.NewEPGCache(cfg.Cache.EPGExpiry)
	epgService := services.NewEPGService(guideClient, epgCache, channelStore, logger)
	timerService := services.NewTimerService(recorderClient, logger)
	matcher := services.NewTaskMatcher(logger)
	scheduler := services.NewTaskScheduler(epgService, timerService, matcher, taskStore, channelStore, auditLog, logger, services.SchedulerOptions{
		DailySpec:     cfg.Scheduler.DailySpec,
		HourlySpec:    cfg.Scheduler.HourlySpec,
		CleanupSpec:   cfg.Scheduler.CleanupSpec,
		LookaheadDays: cfg.Scheduler.LookaheadDays,
		FetchDelay:    cfg.Scheduler.FetchDelay,
		TimerDelay:    cfg.Scheduler.TimerDelay,
	})

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize HTTP layer
	handler := httpAdapter.NewHandler(logger, epgService, timerService, scheduler, taskStore, channelStore)
	mux := httpAdapter.SetupRoutes(handler, &cfg.Server, logger)
	server := httpAdapter.NewServer(&cfg.Server, logger, mux)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	logger.Info("server started",
		slog.String("addr", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)),
	)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down...")

	scheduler.Stop()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
}
