package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/cli"
	"kakeibo/internal/export"
	"kakeibo/internal/export/google"
	"kakeibo/internal/export/memory"
	applog "kakeibo/internal/log"
	"kakeibo/internal/worker"
)

func main() {
	logger := cli.Bootstrap(applog.ComponentExport)
	logger.Info("Starting kakeibo-worker")

	cfg := cli.LoadConfig(logger)

	repo := cli.OpenRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		appender export.RowAppender
		deleter  export.RowDeleter
	)
	if cfg.ExportEnabled() {
		client, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender, deleter = client, client
		logger.Info("Google Sheets export target initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		store := memory.New()
		appender, deleter = store, store
		logger.Info("Google Sheets disabled - exporting to in-memory target")
	}

	exportWorker := worker.NewExportWorker(repo, appender, deleter, cfg.SyncBatchSize)

	// Catch up on anything published while the worker was down.
	if err := exportWorker.SweepPending(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.Consume(ctx, exportWorker.HandleEvent); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Event consumption failed", "error", err)
				}
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep only")
	}

	go exportWorker.RunPeriodicSweep(ctx, cfg.SyncInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	// Give the in-flight handler a moment to ack before the process exits.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
