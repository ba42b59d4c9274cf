package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkravets/docvault/internal/bootstrap"
	"github.com/mkravets/docvault/internal/config"
	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/infrastructure/scanner/localfs"
	"github.com/mkravets/docvault/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("docvault-worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.ImporterMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if cfg.ScanWatch {
		watcher := localfs.NewWatcher(app.Scanner, app.Queue.PublishImportBatch, logger)
		go func() {
			if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeImportBatches(ctx, func(handlerCtx context.Context, batch []domain.ScannedFile) error {
		importCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		for status := range app.Importer.ImportFiles(importCtx, batch) {
			switch status.Phase {
			case domain.ImportProgress:
				logger.Info("import progress",
					"current", status.Current, "total", status.Total, "file", status.CurrentName)
			case domain.ImportSuccess:
				logger.Info("import batch done",
					"imported", status.Imported, "total", status.Total)
			case domain.ImportError:
				logger.Error("import batch failed", "message", status.Message)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
