// Package xlsx renders a report as an Excel workbook with one sheet for the
// expenses and one for the summary.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	applog "budget/internal/log"
	"budget/internal/report"
)

// ContentType is the MIME type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// builtin number format "#,##0.00"
const amountNumFmt = 4

var _ report.Exporter = (*Writer)(nil)

// Writer renders workbooks and, as an Exporter, saves them into a directory.
type Writer struct {
	dir    string
	now    func() time.Time
	logger *applog.Logger
}

type Option func(*Writer)

func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

func WithLogger(logger *applog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger.WithComponent(applog.ComponentReport)
		}
	}
}

// New returns a Writer that exports into dir.
func New(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir:    dir,
		now:    time.Now,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentReport),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Render writes the workbook for r to out.
func Render(r report.Report, out io.Writer) error {
	f, err := workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes renders the workbook for r in memory.
func Bytes(r report.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(r, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func workbook(r report.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	expenses, summary := r.Labels.ExpensesSheet, r.Labels.SummarySheet

	if err := f.SetSheetName("Sheet1", expenses); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("add sheet %s: %w", summary, err)
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("amount style: %w", err)
	}

	if err := writeSheet(f, expenses, r.ExpenseTable(), "D", amountStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, summary, r.SummaryTable(), "B", amountStyle); err != nil {
		f.Close()
		return nil, err
	}
	_ = f.SetColWidth(expenses, "A", "A", 12)
	_ = f.SetColWidth(expenses, "B", "B", 32)
	_ = f.SetColWidth(expenses, "C", "D", 14)
	_ = f.SetColWidth(summary, "A", "A", 34)
	_ = f.SetColWidth(summary, "B", "B", 14)
	return f, nil
}

// writeSheet writes rows starting at A1 and applies style to amountCol below the header.
func writeSheet(f *excelize.File, sheet string, rows [][]any, amountCol string, style int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 1 {
		from := fmt.Sprintf("%s2", amountCol)
		to := fmt.Sprintf("%s%d", amountCol, len(rows))
		if err := f.SetCellStyle(sheet, from, to, style); err != nil {
			return fmt.Errorf("style %s: %w", sheet, err)
		}
	}
	return nil
}

// Export writes the workbook to the directory under report.FileName and
// returns the file path.
func (w *Writer) Export(ctx context.Context, r report.Report) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(w.dir, report.FileName(w.now(), r.Labels))

	data, err := Bytes(r)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	w.logger.InfoContext(ctx, "Report exported",
		applog.FieldReportRef, path,
		applog.FieldLocale, r.Labels.Tag.String(),
		"expenses", len(r.Expenses))
	return path, nil
}
