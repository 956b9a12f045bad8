package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"moneybuddy/internal/amqp"
	"moneybuddy/internal/cli"
	"moneybuddy/internal/config"
	"moneybuddy/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting moneybuddy-worker")

	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Worker is reading a process-local memory store; exports will not see the web server's data",
			"backend", cfg.DataBackend)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	storeRes := cli.InitStore(startCtx, logger, cfg)
	cols := cli.NewCollections(storeRes.Store)

	sheetsClient, err := cli.InitSheets(startCtx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if sheetsClient == nil {
		logger.Error("The export worker needs GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(cols.Transactions, sheetsClient)

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeEvents(gctx, exportWorker.HandleEvent)
		})
	}
	// Periodic export backstop for missed messages.
	g.Go(func() error {
		return exportWorker.Run(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if storeRes.Cleanup != nil {
		if err := storeRes.Cleanup(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	}
	logger.Info("Worker shutdown complete")
}
