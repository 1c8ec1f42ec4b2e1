package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"attendance-report/bot"
	"attendance-report/config"
	"attendance-report/internal/handlers"
	"attendance-report/internal/logger"
	"attendance-report/internal/repository"
	"attendance-report/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("config loaded", zap.String("store", cfg.Store), zap.String("addr", cfg.HTTPAddr))

	// Create application context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize application dependencies
	service, notifier := initApplication(cfg, registry, zl)

	// Initialize Telegram Bot
	if err := initBot(ctx, cfg, service, notifier, zl); err != nil {
		zl.Warn("telegram bot disabled", zap.Error(err))
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handlers.NewRouter(handlers.NewAttendanceHandler(service, zl), registry, zl),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zl.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	zl.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown error", zap.Error(err))
	}

	zl.Info("server stopped gracefully")
}

// initBot initializes the Telegram bot
func initBot(ctx context.Context, cfg *config.Config, service *services.AttendanceService, notifier *bot.Notifier, zl *zap.Logger) error {
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN not set")
	}
	b, err := bot.New(cfg.TelegramBotToken, cfg.AuthorizedChatID, service, zl.Named("bot"))
	if err != nil {
		return err
	}
	notifier.Attach(b)
	b.StartPolling(ctx)

	zl.Info("telegram bot initialized")
	return nil
}

// initApplication initializes all application dependencies
func initApplication(cfg *config.Config, registry *prometheus.Registry, zl *zap.Logger) (*services.AttendanceService, *bot.Notifier) {
	var (
		records repository.AttendanceStore
		reasons repository.ReasonStore
	)
	switch cfg.Store {
	case config.StoreMemory:
		records = repository.NewMemoryAttendanceStore()
		reasons = repository.NewMemoryReasonStore()
	default:
		pb := repository.PocketBaseConfig{
			BaseURL:           cfg.PocketBaseURL,
			AuthToken:         cfg.PocketBaseToken,
			RequestsPerSecond: cfg.PocketBaseRPS,
		}
		records = repository.NewPocketBaseAttendanceStore(pb, zl.Named("pocketbase"))
		reasons = repository.NewPocketBaseReasonStore(pb, zl.Named("pocketbase"))
	}

	// Notifier gets its bot once Telegram is up
	notifier := bot.NewNotifier(nil)

	service := services.NewAttendanceService(records, reasons, notifier, services.Options{
		Thresholds:      cfg.Thresholds,
		IncludeSaturday: cfg.IncludeSaturday,
		Metrics:         services.NewMetrics(registry),
		Printer:         services.NewPDFRenderer(cfg.ChromePath),
		Logger:          zl.Named("service"),
	})
	return service, notifier
}
