package http

import (
	"time"

	"budget/internal/budget"
	"budget/internal/core"
)

// amountJSON carries money both as an exact decimal string and in cents.
type amountJSON struct {
	Amount string `json:"amount"`
	Cents  int64  `json:"cents"`
}

func newAmount(m core.Money) amountJSON {
	return amountJSON{Amount: m.String(), Cents: m.Cents}
}

type expenseJSON struct {
	ID          string     `json:"id"`
	Amount      amountJSON `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
}

func newExpenseResponse(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Amount:      newAmount(e.Amount),
		Category:    e.Category.String(),
		Description: e.Description,
		Date:        e.Date.UTC(),
	}
}

type categoryJSON struct {
	Category    string     `json:"category"`
	Allocation  amountJSON `json:"allocation"`
	Spent       amountJSON `json:"spent"`
	Remaining   amountJSON `json:"remaining"`
	PercentUsed float64    `json:"percentUsed"`
}

type summaryJSON struct {
	TotalIncome    amountJSON     `json:"totalIncome"`
	TotalSpent     amountJSON     `json:"totalSpent"`
	TotalRemaining amountJSON     `json:"totalRemaining"`
	Categories     []categoryJSON `json:"categories"`
}

func newSummaryResponse(s core.Summary) summaryJSON {
	categories := make([]categoryJSON, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		categories = append(categories, categoryJSON{
			Category:    c.String(),
			Allocation:  newAmount(s.Allocations.Get(c)),
			Spent:       newAmount(s.Spent.Get(c)),
			Remaining:   newAmount(s.Remaining.Get(c)),
			PercentUsed: s.PercentUsed(c),
		})
	}
	return summaryJSON{
		TotalIncome:    newAmount(s.TotalIncome),
		TotalSpent:     newAmount(s.TotalSpent),
		TotalRemaining: newAmount(s.TotalRemaining),
		Categories:     categories,
	}
}

type snapshotJSON struct {
	Revision      uint64        `json:"revision"`
	Operation     string        `json:"operation"`
	MonthlyIncome amountJSON    `json:"monthlyIncome"`
	Expenses      []expenseJSON `json:"expenses"`
	Summary       summaryJSON   `json:"summary"`
}

func newSnapshotResponse(snap budget.Snapshot) snapshotJSON {
	expenses := make([]expenseJSON, len(snap.State.Expenses))
	for i, e := range snap.State.Expenses {
		expenses[i] = newExpenseResponse(e)
	}
	return snapshotJSON{
		Revision:      snap.Revision,
		Operation:     string(snap.Operation),
		MonthlyIncome: newAmount(snap.State.MonthlyIncome),
		Expenses:      expenses,
		Summary:       newSummaryResponse(snap.Summary),
	}
}
