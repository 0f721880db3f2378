package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"therapypal-gateway/internal/config"
	"therapypal-gateway/internal/handlers"
	"therapypal-gateway/internal/logging"
	"therapypal-gateway/internal/metrics"
	"therapypal-gateway/internal/router"
	"therapypal-gateway/internal/services"
)

const version = "1.0.0"

func main() {
	cfg, logger, err := bootstrap(os.Stdout)
	if logger == nil {
		slog.Error("✗ logger initialization failed", "error", err)
		os.Exit(1)
	}
	if err != nil {
		logger.Close()
		os.Exit(1)
	}
	defer logger.Close()

	if err := run(cfg, logger.Logger); err != nil {
		logger.Error("✗ server stopped", "error", err)
		logger.Close()
		os.Exit(1)
	}
}

// bootstrap opens the logger before validating the rest of the configuration
// so a fatal config error is written to the log file too. The logger is nil
// only when it could not be created.
func bootstrap(console io.Writer) (*config.Config, *logging.Logger, error) {
	// ──── Step 1: Initialize Logger ────
	logs := config.LoadLogging()
	logger, err := logging.New(logging.Config{
		Level:    logs.Level,
		Format:   logs.Format,
		FilePath: logs.File,
		Console:  console,
	})
	if err != nil {
		return nil, nil, err
	}

	// ──── Step 2: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		logger.Error("✗ configuration invalid", "error", err)
		return nil, logger, err
	}
	logger.Info("✓ Environment variables loaded", "env", cfg.Env, "log_file", cfg.LogFile)

	return cfg, logger, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// ──── Step 3: Initialize Gemini Client ────
	ctx := context.Background()
	gemini, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("gemini client initialization failed: %w", err)
	}
	defer gemini.Close()
	logger.Info("✓ Gemini client initialized", "model", gemini.Model())

	// ──── Step 4: Startup Probe ────
	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout())
	err = gemini.Probe(probeCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("gemini connection test failed: %w", err)
	}
	logger.Info("✓ Gemini connection test successful")

	// ──── Step 5: Wire Services ────
	var collector *metrics.Collector
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector(nil)
		metricsHandler = collector.Handler()
	}

	chatService := services.NewChatService(
		gemini,
		services.RetryPolicy{MaxAttempts: cfg.GeminiMaxRetries, Backoff: cfg.RetryBackoff()},
		logger,
		services.WithRecorder(collector),
	)
	healthReporter := services.NewHealthReporter(gemini, cfg.APIKeyConfigured(), version, cfg.ProbeTimeout(), logger, collector)

	chatHandler := handlers.NewChatHandler(chatService, gemini.Model(), cfg.IsDevelopment(), logger, collector)
	healthHandler := handlers.NewHealthHandler(healthReporter)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(chatHandler, healthHandler, metricsHandler, cfg.CORSAllowedOrigins, logger)

	// WriteTimeout must outlast every attempt plus the backoff waits.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info("Starting server",
		"port", cfg.Port,
		"debug", cfg.IsDevelopment(),
		"api_key_configured", cfg.APIKeyConfigured(),
		"metrics", cfg.MetricsEnabled,
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
