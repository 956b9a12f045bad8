// Command moneybuddy-import merges a spreadsheet into the configured store.
//
//	moneybuddy-import -file statement.xlsx
//	moneybuddy-import -sheet
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"moneybuddy/internal/amqp"
	"moneybuddy/internal/cli"
	"moneybuddy/internal/services"
)

func main() {
	file := flag.String("file", "", "path to an .xlsx or .csv file to import")
	fromSheet := flag.Bool("sheet", false, "import the configured Google Sheet range")
	flag.Parse()

	if (*file == "") == !*fromSheet {
		fmt.Fprintln(os.Stderr, "usage: moneybuddy-import -file <path> | -sheet")
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	storeRes := cli.InitStore(ctx, logger, cfg)
	defer func() {
		if storeRes.Cleanup != nil {
			_ = storeRes.Cleanup()
		}
	}()

	l, tracker, err := cli.OpenFinance(ctx, logger, cli.NewCollections(storeRes.Store))
	if err != nil {
		logger.Error("Failed to load finance data", "error", err)
		os.Exit(1)
	}

	opts := []services.Option{services.WithImportLimit(cfg.ImportMaxBytes)}
	if *fromSheet {
		sheetsClient, err := cli.InitSheets(ctx, logger, cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		if sheetsClient != nil {
			opts = append(opts, services.WithSheetImport(sheetsClient))
		}
	}
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, import will not notify the worker", "error", err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithPublisher(amqpClient))
		}
	}
	svc := services.NewFinanceService(l, tracker, opts...)

	var n int
	if *fromSheet {
		n, err = svc.ImportSheet(ctx)
	} else {
		n, err = importFile(ctx, svc, *file)
	}
	if err != nil {
		logger.Error("Import failed", "error", err)
		os.Exit(1)
	}

	totals := svc.Summary()
	fmt.Printf("imported %d transactions (income %s, expense %s, balance %s)\n",
		n, totals.TotalIncome.Format(), totals.TotalExpense.Format(), totals.Balance.Format())
}

func importFile(ctx context.Context, svc *services.FinanceService, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return svc.ImportFile(ctx, path, f)
}
