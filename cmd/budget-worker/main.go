package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetmanager/internal/amqp"
	"budgetmanager/internal/cli"
	applog "budgetmanager/internal/log"
	gsheet "budgetmanager/internal/sheets/google"
	"budgetmanager/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting budget-worker")

	if !cfg.MirrorEnabled() {
		logger.Error("Nothing to do - GOOGLE_SPREADSHEET_ID is not set")
		os.Exit(1)
	}

	store := cli.OpenStore(context.Background(), logger, cfg.SQLiteDBPath, false)
	defer store.Close()

	sheet, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if err := sheet.EnsureHeader(context.Background()); err != nil {
		logger.Error("Failed to prepare audit sheet", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	mirror := worker.NewMirrorWorker(store, sheet, worker.MirrorConfig{
		SweepInterval: cfg.MirrorInterval,
		BatchSize:     cfg.MirrorBatchSize,
	})

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
	} else {
		logger.Info("AMQP disabled - relying on the periodic sweep only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := mirror.Stop(ctx); err != nil {
			logger.Error("Mirror worker stop error", "error", err)
		}
	})

	if err := mirror.Start(ctx); err != nil {
		logger.Error("Failed to start mirror worker", "error", err)
		os.Exit(1)
	}

	if consumer != nil {
		go func() {
			err := consumer.ConsumeActivity(ctx, mirror.HandleActivityEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
