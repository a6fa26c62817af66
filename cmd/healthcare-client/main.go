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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/healthcare-client/internal/app"
	"github.com/wolfman30/healthcare-client/internal/app/bootstrap"
	appconfig "github.com/wolfman30/healthcare-client/internal/config"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	// Load configuration
	cfg := appconfig.Load()

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger.Info("starting healthcare client", "api", cfg.APIBaseURL, "token_store", cfg.TokenStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	gatewayMetrics := bootstrap.BuildMetrics(registry)

	store, closeStore, err := bootstrap.BuildCredentialStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build token store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close token store", "error", err)
		}
	}()

	client, err := bootstrap.BuildGateway(cfg, logger, gatewayMetrics)
	if err != nil {
		logger.Error("failed to build booking API client", "error", err)
		os.Exit(1)
	}

	application, err := app.New(app.Deps{
		Config:      cfg,
		Logger:      logger,
		Metrics:     gatewayMetrics,
		Credentials: store,
		Gateway:     client,
	})
	if err != nil {
		logger.Error("failed to build client", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      newOpsRouter(registry, logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("ops server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("ops server error", "error", err)
			}
		}()
	}

	done := make(chan error, 1)
	go func() {
		done <- newShell(application, os.Stdin, os.Stdout).run(ctx)
	}()

	// Wait for the shell to exit or an interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-done:
		if err != nil {
			logger.Error("shell stopped", "error", err)
		}
	case sig := <-quit:
		logger.Info("received signal", "signal", sig.String())
		cancel()
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("ops server forced to shutdown", "error", err)
		}
	}
	logger.Info("healthcare client stopped")
}

// newLogger writes to LOG_FILE when set so log lines never interleave with
// the interactive output on stdout.
func newLogger(cfg *appconfig.Config) (*logging.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logging.New(cfg.LogLevel), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return logging.NewWithWriter(f, cfg.LogLevel), func() { _ = f.Close() }, nil
}
