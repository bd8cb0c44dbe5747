package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/adapters/httpapi"
	"github.com/stoik/mailshield/internal/application"
	"github.com/stoik/mailshield/internal/config"
	"github.com/stoik/mailshield/internal/di"
	"github.com/stoik/mailshield/internal/ports"
)

var (
	configPath = flag.String("config", "", "Path to the configuration file")
	scanOnce   = flag.Bool("once", false, "Scan every configured mailbox once, print the reports and exit")
)

const shutdownTimeout = 30 * time.Second

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var entry any = serve
	if *scanOnce {
		entry = scanAll
	}
	if err := container.Invoke(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the HTTP API and the per-subject scan loops until SIGINT/SIGTERM
func serve(
	cfg *config.Config,
	logger *zap.Logger,
	store ports.Storage,
	notifier ports.Notifier,
	service *application.ScanService,
	auto *application.AutoScanner,
	server *httpapi.Server,
) error {
	defer logger.Sync()
	defer closeResources(logger, store, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subjects, err := di.BootstrapSubjects(ctx, cfg, service, logger)
	if err != nil {
		return err
	}
	if cfg.GetBool("scanner.enabled") {
		for _, subject := range subjects {
			auto.Start(subject.ID)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.GetString("http.listen_address"),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			auto.StopAll()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	auto.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}

// scanAll scans every configured mailbox once and prints the reports as JSON
func scanAll(
	cfg *config.Config,
	logger *zap.Logger,
	store ports.Storage,
	notifier ports.Notifier,
	service *application.ScanService,
) error {
	defer logger.Sync()
	defer closeResources(logger, store, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subjects, err := di.BootstrapSubjects(ctx, cfg, service, logger)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		logger.Warn("No subjects configured, nothing to scan")
		return nil
	}

	reports := make([]*application.ScanReport, 0, len(subjects))
	for _, subject := range subjects {
		report, err := service.ScanSubject(ctx, subject.ID)
		if err != nil {
			// Don't fail the other mailboxes if one is unreachable
			logger.Error("Scan failed", zap.String("subject_id", subject.ID.String()), zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reports)
}

// closeResources releases the store and any notifier holding a connection
func closeResources(logger *zap.Logger, store ports.Storage, notifier ports.Notifier) {
	if closer, ok := notifier.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close notifier", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage", zap.Error(err))
	}
}
