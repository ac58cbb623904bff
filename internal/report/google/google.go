// Package google mirrors a report into a Google Sheets spreadsheet, one tab
// for the expenses and one for the summary. Every export replaces the
// previous contents of both tabs.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "budget/internal/log"
	"budget/internal/report"
)

var _ report.Exporter = (*Client)(nil)

// Config selects the spreadsheet and, optionally, fixed tab names. Empty tab
// names follow the report labels.
type Config struct {
	SpreadsheetID string
	ExpensesSheet string
	SummarySheet  string
}

type Client struct {
	svc    *gsheet.Service
	cfg    Config
	logger *applog.Logger
}

// New creates a Sheets client. Without options, credentials come from the
// environment (see credentialsFromEnv).
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	cfg.SpreadsheetID = strings.TrimSpace(cfg.SpreadsheetID)
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentReport)

	if len(opts) == 0 {
		credentialsJSON, err := credentialsFromEnv(ctx, logger)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID)
	return &Client{svc: svc, cfg: cfg, logger: logger}, nil
}

// credentialsFromEnv reads service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func credentialsFromEnv(ctx context.Context, logger *applog.Logger) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) sheetNames(l report.Labels) (expenses, summary string) {
	expenses, summary = c.cfg.ExpensesSheet, c.cfg.SummarySheet
	if expenses == "" {
		expenses = l.ExpensesSheet
	}
	if summary == "" {
		summary = l.SummarySheet
	}
	return expenses, summary
}

// Export implements report.Exporter and returns the spreadsheet URL.
func (c *Client) Export(ctx context.Context, r report.Report) (string, error) {
	expenses, summary := c.sheetNames(r.Labels)
	id := c.cfg.SpreadsheetID

	if err := c.ensureSheets(ctx, expenses, summary); err != nil {
		return "", err
	}

	clearReq := &gsheet.BatchClearValuesRequest{Ranges: []string{quoteSheet(expenses), quoteSheet(summary)}}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(id, clearReq).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheets %s, %s: %w", expenses, summary, err)
	}

	update := &gsheet.BatchUpdateValuesRequest{
		// RAW keeps localized date text from being reinterpreted by the sheet locale.
		ValueInputOption: "RAW",
		Data: []*gsheet.ValueRange{
			{Range: quoteSheet(expenses) + "!A1", Values: r.ExpenseTable()},
			{Range: quoteSheet(summary) + "!A1", Values: r.SummaryTable()},
		},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(id, update).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write sheets %s, %s: %w", expenses, summary, err)
	}

	ref := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", id)
	c.logger.InfoContext(ctx, "Report exported",
		applog.FieldReportRef, ref,
		applog.FieldLocale, r.Labels.Tag.String(),
		"expenses", len(r.Expenses))
	return ref, nil
}

// ensureSheets adds any of the named tabs that do not exist yet.
func (c *Client) ensureSheets(ctx context.Context, names ...string) error {
	resp, err := c.svc.Spreadsheets.Get(c.cfg.SpreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.cfg.SpreadsheetID, err)
	}
	existing := map[string]bool{}
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}

	var requests []*gsheet.Request
	for _, name := range names {
		if existing[name] {
			continue
		}
		existing[name] = true
		requests = append(requests, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	batch := &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.cfg.SpreadsheetID, batch).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}
	c.logger.InfoContext(ctx, "Created missing sheets", "count", len(requests))
	return nil
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
