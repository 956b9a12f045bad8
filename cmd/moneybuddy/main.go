package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"moneybuddy/internal/amqp"
	"moneybuddy/internal/cli"
	apphttp "moneybuddy/internal/http"
	applog "moneybuddy/internal/log"
	"moneybuddy/internal/services"
	"moneybuddy/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	storeRes := cli.InitStore(startCtx, logger, cfg)
	cols := cli.NewCollections(storeRes.Store)

	l, tracker, err := cli.OpenFinance(startCtx, logger, cols)
	if err != nil {
		logger.Error("Failed to load finance data", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sheetsClient, err := cli.InitSheets(startCtx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	opts := []services.Option{services.WithImportLimit(cfg.ImportMaxBytes)}
	if sheetsClient != nil {
		opts = append(opts, services.WithSheetImport(sheetsClient))
	}

	// Events go to the broker when one is configured. Otherwise, with a
	// sheet configured, the export runs in process.
	var (
		amqpClient *amqp.Client
		processor  *services.ExportProcessor
	)
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		opts = append(opts, services.WithPublisher(amqpClient))
		logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else if sheetsClient != nil {
		pcfg := services.DefaultExportProcessorConfig()
		pcfg.PollInterval = cfg.SyncInterval
		processor = services.NewExportProcessor(worker.NewExportWorker(cols.Transactions, sheetsClient), pcfg)
		opts = append(opts, services.WithPublisher(processor))
	}

	svc := services.NewFinanceService(l, tracker, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithPinger(storeRes.Store),
		apphttp.WithImportLimit(cfg.ImportMaxBytes),
		apphttp.WithLogger(applog.New(applog.Config{
			Component: applog.ComponentHTTP,
			Handler:   logger.Handler(),
		})),
	)

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if processor != nil {
			if err := processor.Stop(shutdownCtx); err != nil {
				logger.Error("Export processor shutdown error", "error", err)
			}
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if storeRes.Cleanup != nil {
			if err := storeRes.Cleanup(); err != nil {
				logger.Error("Store close error", "error", err)
			}
		}
	})

	if processor != nil {
		if err := processor.Start(ctx); err != nil {
			logger.Error("Failed to start export processor", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Starting moneybuddy server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
