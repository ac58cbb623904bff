package budget

import (
	"time"

	"budget/internal/core"
)

// DefaultIncome is the monthly income used on first run.
var DefaultIncome = core.NewMoney(5000, 0)

// seed is the example data shown on first run, one or more per category.
var seed = []struct {
	amount      core.Money
	category    core.Category
	description string
	date        time.Time
}{
	{core.NewMoney(1200, 0), core.Necessity, "Rent", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)},
	{core.NewMoney(300, 0), core.Necessity, "Groceries", time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC)},
	{core.NewMoney(150, 0), core.Want, "Dining out", time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC)},
	{core.NewMoney(500, 0), core.Saving, "Emergency fund", time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)},
}

// DefaultState builds the first-run state. IDs come from newID so every
// session gets fresh identifiers.
func DefaultState(newID func() string) State {
	expenses := make([]core.Expense, len(seed))
	for i, s := range seed {
		expenses[i] = core.Expense{
			ID:          newID(),
			Amount:      s.amount,
			Category:    s.category,
			Description: s.description,
			Date:        s.date,
		}
	}
	return State{MonthlyIncome: DefaultIncome, Expenses: expenses}
}
