// Command budget-export writes the saved budget to an xlsx workbook, or to
// the configured Google spreadsheet with -sheets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"
	"budget/internal/report"
	"budget/internal/report/google"
	"budget/internal/report/xlsx"
	"budget/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap("budget-export")

	outDir := flag.String("out", cfg.ExportDir, "directory the workbook is written to")
	lang := flag.String("lang", cfg.ReportLocale, "report language, e.g. en or pt-BR")
	toSheets := flag.Bool("sheets", false, "export to GOOGLE_SPREADSHEET_ID instead of a file")
	flag.Parse()

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	ref, err := run(ctx, cfg, logger, *outDir, *lang, *toSheets)
	if err != nil {
		logger.Error("Export failed", applog.FieldError, err)
		os.Exit(1)
	}
	fmt.Println(ref)
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, outDir, lang string, toSheets bool) (string, error) {
	slot, err := cli.OpenSharedSlot(ctx, cfg, logger)
	if err != nil {
		return "", err
	}
	defer slot.Close()

	var exporter report.Exporter
	if toSheets {
		if cfg.GoogleSpreadsheetID == "" {
			return "", fmt.Errorf("-sheets needs GOOGLE_SPREADSHEET_ID")
		}
		exporter, err = google.New(ctx, google.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			ExpensesSheet: cfg.GoogleExpensesSheet,
			SummarySheet:  cfg.GoogleSummarySheet,
		}, logger)
		if err != nil {
			return "", err
		}
	} else {
		exporter = xlsx.New(outDir, xlsx.WithLogger(logger))
	}

	w := worker.NewReportWorker(slot.Slot, cfg.StateKey, exporter, report.LabelsFor(lang), logger)
	return w.ExportNow(ctx)
}
