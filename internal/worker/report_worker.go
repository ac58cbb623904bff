// Package worker keeps an exported report in step with the budget state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"budget/internal/amqp"
	"budget/internal/budget"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/persist"
	"budget/internal/report"
)

// ReportWorker rebuilds and exports the report whenever the budget changes.
// It reads the state straight from the shared slot, so a message only says
// "something changed" and the newest state always wins.
type ReportWorker struct {
	slot     persist.Slot
	key      string
	exporter report.Exporter
	labels   report.Labels
	logger   *applog.Logger

	mu   sync.Mutex
	seen map[string]uint64
}

func NewReportWorker(slot persist.Slot, key string, exporter report.Exporter, labels report.Labels, logger *applog.Logger) *ReportWorker {
	if key == "" {
		key = budget.DefaultKey
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReportWorker{
		slot:     slot,
		key:      key,
		exporter: exporter,
		labels:   labels,
		logger:   logger.WithComponent(applog.ComponentWorker),
		seen:     map[string]uint64{},
	}
}

// HandleBudgetChanged processes a single budget changed message from AMQP.
// Messages older than one already handled from the same source are skipped.
// A returned error asks for redelivery.
func (w *ReportWorker) HandleBudgetChanged(ctx context.Context, msg *amqp.BudgetChangedMessage) error {
	if w.stale(msg) {
		w.logger.DebugContext(ctx, "Skipping stale budget change",
			applog.FieldRevision, msg.Revision,
			"source", msg.Source)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing budget change",
		applog.FieldRevision, msg.Revision,
		applog.FieldOperation, msg.Operation)

	if _, err := w.ExportNow(ctx); err != nil {
		if errors.Is(err, budget.ErrMalformedState) || errors.Is(err, errNoState) {
			// Redelivery cannot fix the payload; the next change will.
			w.logger.ErrorContext(ctx, "Cannot export budget state", applog.FieldError, err)
			w.markSeen(msg)
			return nil
		}
		return err
	}

	w.markSeen(msg)
	return nil
}

var errNoState = errors.New("no budget state stored")

// ExportNow exports the current slot contents and returns the exporter's reference.
// It is also run once at worker startup to catch up on missed messages.
func (w *ReportWorker) ExportNow(ctx context.Context) (string, error) {
	data, found, err := w.slot.Load(ctx, w.key)
	if err != nil {
		return "", fmt.Errorf("load budget state: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w under key %q", errNoState, w.key)
	}

	state, err := budget.Decode(data)
	if err != nil {
		return "", err
	}

	summary := core.ComputeSummary(state.MonthlyIncome, state.Expenses)
	r := report.Build(state.Expenses, summary, w.labels)

	ref, err := w.exporter.Export(ctx, r)
	if err != nil {
		return "", fmt.Errorf("export report: %w", err)
	}

	w.logger.InfoContext(ctx, "Report refreshed",
		applog.FieldReportRef, ref,
		applog.FieldIncome, summary.TotalIncome.String(),
		applog.FieldTotalSpent, summary.TotalSpent.String(),
		"expenses", len(state.Expenses))
	return ref, nil
}

func (w *ReportWorker) stale(msg *amqp.BudgetChangedMessage) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.seen[msg.Source]
	return ok && msg.Revision <= last
}

func (w *ReportWorker) markSeen(msg *amqp.BudgetChangedMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if msg.Revision > w.seen[msg.Source] {
		w.seen[msg.Source] = msg.Revision
	}
}
