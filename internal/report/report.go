// Package report turns a budget (expenses plus summary) into the two-sheet
// report read model consumed by the spreadsheet exporters.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// Exporter writes a report somewhere and returns a reference to the result,
// such as a file path or a spreadsheet URL.
type Exporter interface {
	Export(ctx context.Context, r Report) (ref string, err error)
}

type ExpenseRow struct {
	Date        time.Time
	DateText    string
	Description string
	Category    string
	Amount      decimal.Decimal
}

type SummaryRow struct {
	Item  string
	Value decimal.Decimal
}

// Report is the read model behind an export: one row per expense in
// insertion order and the twelve labelled summary figures.
type Report struct {
	Labels   Labels
	Expenses []ExpenseRow
	Summary  []SummaryRow
}

// Build assembles the report. It does not modify its inputs.
func Build(expenses []core.Expense, summary core.Summary, labels Labels) Report {
	rows := make([]ExpenseRow, len(expenses))
	for i, e := range expenses {
		rows[i] = ExpenseRow{
			Date:        e.Date,
			DateText:    labels.FormatDate(e.Date),
			Description: e.Description,
			Category:    labels.CategoryLabel(e.Category),
			Amount:      e.Amount.Decimal(),
		}
	}

	return Report{
		Labels:   labels,
		Expenses: rows,
		Summary:  summaryRows(summary, labels),
	}
}

func summaryRows(s core.Summary, l Labels) []SummaryRow {
	shares := map[core.Category]decimal.Decimal{
		core.Necessity: core.NecessityShare,
		core.Want:      core.WantShare,
		core.Saving:    core.SavingShare,
	}
	hundred := decimal.NewFromInt(100)

	rows := []SummaryRow{
		{l.Income, s.TotalIncome.Decimal()},
		{l.TotalSpent, s.TotalSpent.Decimal()},
		{l.TotalRemaining, s.TotalRemaining.Decimal()},
	}
	for _, c := range core.Categories() {
		item := fmt.Sprintf(l.AllocationFormat, l.categoryPlural(c), shares[c].Mul(hundred).String())
		rows = append(rows, SummaryRow{item, s.Allocations.Get(c).Decimal()})
	}
	for _, c := range core.Categories() {
		rows = append(rows, SummaryRow{fmt.Sprintf(l.SpentFormat, l.categoryPlural(c)), s.Spent.Get(c).Decimal()})
	}
	for _, c := range core.Categories() {
		rows = append(rows, SummaryRow{fmt.Sprintf(l.RemainingFormat, l.categoryPlural(c)), s.Remaining.Get(c).Decimal()})
	}
	return rows
}

// ExpenseTable returns the expenses sheet as rows of cell values, header first.
// Amounts are float64 so spreadsheets store them as numbers.
func (r Report) ExpenseTable() [][]any {
	l := r.Labels
	table := make([][]any, 0, len(r.Expenses)+1)
	table = append(table, []any{l.DateHeader, l.DescriptionHeader, l.CategoryHeader, l.AmountHeader})
	for _, e := range r.Expenses {
		table = append(table, []any{e.DateText, e.Description, e.Category, e.Amount.InexactFloat64()})
	}
	return table
}

// SummaryTable returns the summary sheet as rows of cell values, header first.
func (r Report) SummaryTable() [][]any {
	table := make([][]any, 0, len(r.Summary)+1)
	table = append(table, []any{r.Labels.ItemHeader, r.Labels.ValueHeader})
	for _, s := range r.Summary {
		table = append(table, []any{s.Item, s.Value.InexactFloat64()})
	}
	return table
}

// FileName returns the workbook name for an export made at now, using the
// UTC calendar date, e.g. "Budget_50-30-20_2025-04-30.xlsx".
func FileName(now time.Time, labels Labels) string {
	return fmt.Sprintf("%s_50-30-20_%s.xlsx", labels.FilePrefix, now.UTC().Format("2006-01-02"))
}
