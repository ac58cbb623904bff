package main

import (
	"context"
	"errors"
	"os"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"
	"budget/internal/report"
	"budget/internal/report/google"
	"budget/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap("budget-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	if cfg.GoogleSpreadsheetID == "" {
		return errors.New("GOOGLE_SPREADSHEET_ID is required")
	}
	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is required")
	}

	slot, err := cli.OpenSharedSlot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer slot.Close()

	exporter, err := google.New(ctx, google.Config{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		ExpensesSheet: cfg.GoogleExpensesSheet,
		SummarySheet:  cfg.GoogleSummarySheet,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	labels := report.LabelsFor(cfg.ReportLocale)
	w := worker.NewReportWorker(slot.Slot, cfg.StateKey, exporter, labels, logger)

	// Catch up on changes made while the worker was down.
	if _, err := w.ExportNow(ctx); err != nil {
		logger.Warn("Startup export failed", applog.FieldError, err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.ConsumeBudgetChanged(ctx, w.HandleBudgetChanged)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
