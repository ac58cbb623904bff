package core

import "github.com/shopspring/decimal"

// Allocation shares of income. Saving is derived as the remainder so the
// three allocations always add up to the income exactly.
var (
	NecessityShare = decimal.RequireFromString("0.5")
	WantShare      = decimal.RequireFromString("0.3")
	SavingShare    = decimal.NewFromInt(1).Sub(NecessityShare).Sub(WantShare)
)

// CategoryAmounts holds one amount per category.
type CategoryAmounts struct {
	Necessity Money
	Want      Money
	Saving    Money
}

// Allocation is the budgeted ceiling per category.
type Allocation = CategoryAmounts

// Summary is the read model derived from income and expenses.
type Summary struct {
	TotalIncome    Money
	Allocations    Allocation
	Spent          CategoryAmounts
	Remaining      CategoryAmounts
	TotalSpent     Money
	TotalRemaining Money
}

// Get returns the amount for c, zero for unknown categories.
func (a CategoryAmounts) Get(c Category) Money {
	switch c {
	case Necessity:
		return a.Necessity
	case Want:
		return a.Want
	case Saving:
		return a.Saving
	default:
		return Money{}
	}
}

// Total returns the sum of the three amounts.
func (a CategoryAmounts) Total() Money {
	return a.Necessity.Add(a.Want).Add(a.Saving)
}

func (a *CategoryAmounts) add(c Category, m Money) {
	switch c {
	case Necessity:
		a.Necessity = a.Necessity.Add(m)
	case Want:
		a.Want = a.Want.Add(m)
	case Saving:
		a.Saving = a.Saving.Add(m)
	}
}

// Allocate splits income 50/30/20.
func Allocate(income Money) Allocation {
	total := decimal.NewFromInt(income.Cents)
	necessity := total.Mul(NecessityShare).Round(0).IntPart()
	want := total.Mul(WantShare).Round(0).IntPart()
	return Allocation{
		Necessity: Money{Cents: necessity},
		Want:      Money{Cents: want},
		Saving:    Money{Cents: income.Cents - necessity - want},
	}
}

// ComputeSummary derives the budget summary. It is pure: the result shares
// nothing with its inputs and the same inputs always yield the same summary.
// Expenses with an unknown category are left out of every bucket.
func ComputeSummary(income Money, expenses []Expense) Summary {
	alloc := Allocate(income)

	var spent CategoryAmounts
	for _, e := range expenses {
		spent.add(e.Category, e.Amount)
	}

	remaining := CategoryAmounts{
		Necessity: alloc.Necessity.Sub(spent.Necessity),
		Want:      alloc.Want.Sub(spent.Want),
		Saving:    alloc.Saving.Sub(spent.Saving),
	}

	totalSpent := spent.Total()
	return Summary{
		TotalIncome:    income,
		Allocations:    alloc,
		Spent:          spent,
		Remaining:      remaining,
		TotalSpent:     totalSpent,
		TotalRemaining: income.Sub(totalSpent),
	}
}

// PercentUsed returns spent/allocation for c as a percentage, 0 when nothing is allocated.
// Values above 100 mean the category is overspent.
func (s Summary) PercentUsed(c Category) float64 {
	alloc := s.Allocations.Get(c)
	if alloc.Cents == 0 {
		return 0
	}
	spent := decimal.NewFromInt(s.Spent.Get(c).Cents)
	return spent.Div(decimal.NewFromInt(alloc.Cents)).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
