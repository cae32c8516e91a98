package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetmanager/internal/amqp"
	"budgetmanager/internal/cli"
	apphttp "budgetmanager/internal/http"
	applog "budgetmanager/internal/log"
	"budgetmanager/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)
	logger.Info("Starting budgetd", "port", cfg.Port, "db", cfg.SQLiteDBPath)

	store := cli.OpenStore(context.Background(), logger, cfg.SQLiteDBPath, cfg.SeedOnStartup)
	defer store.Close()

	// Activity publishing is optional; entries stay in SQLite either way and
	// the worker sweep picks them up.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP publishing disabled - no AMQP_URL provided")
	}

	svc := services.New(store, publisher, services.Options{
		PacingCacheTTL:   cfg.PacingCacheTTL,
		ImportPreviewTTL: cfg.ImportPreviewTTL,
	})
	svc.StartCacheCleanup(10 * time.Minute)
	defer svc.Close()

	srv := apphttp.NewServer(":"+cfg.Port, svc, store, apphttp.Options{
		DefaultActor:       cfg.DefaultActor,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
