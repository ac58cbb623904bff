package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eur(units int64) Money { return NewMoney(units, 0) }

func scenarioExpenses() []Expense {
	return []Expense{
		{ID: "a", Amount: eur(1200), Category: Necessity, Description: "Rent"},
		{ID: "b", Amount: eur(300), Category: Necessity, Description: "Groceries"},
		{ID: "c", Amount: eur(150), Category: Want, Description: "Dining out"},
		{ID: "d", Amount: eur(500), Category: Saving, Description: "Emergency fund"},
	}
}

func TestComputeSummaryNoExpenses(t *testing.T) {
	s := ComputeSummary(eur(5000), nil)

	assert.Equal(t, Allocation{Necessity: eur(2500), Want: eur(1500), Saving: eur(1000)}, s.Allocations)
	assert.Equal(t, CategoryAmounts{}, s.Spent)
	assert.Equal(t, s.Allocations, s.Remaining)
	assert.Equal(t, Money{}, s.TotalSpent)
	assert.Equal(t, eur(5000), s.TotalRemaining)
	assert.Equal(t, eur(5000), s.TotalIncome)
}

func TestComputeSummaryWithExpenses(t *testing.T) {
	s := ComputeSummary(eur(5000), scenarioExpenses())

	assert.Equal(t, CategoryAmounts{Necessity: eur(1500), Want: eur(150), Saving: eur(500)}, s.Spent)
	assert.Equal(t, CategoryAmounts{Necessity: eur(1000), Want: eur(1350), Saving: eur(500)}, s.Remaining)
	assert.Equal(t, eur(2150), s.TotalSpent)
	assert.Equal(t, eur(2850), s.TotalRemaining)
}

func TestComputeSummaryZeroIncomeGoesNegative(t *testing.T) {
	s := ComputeSummary(Money{}, scenarioExpenses())

	assert.Equal(t, Allocation{}, s.Allocations)
	assert.Equal(t, CategoryAmounts{Necessity: eur(-1500), Want: eur(-150), Saving: eur(-500)}, s.Remaining)
	assert.Equal(t, eur(-2150), s.TotalRemaining)
}

func TestComputeSummaryIgnoresUnknownCategory(t *testing.T) {
	expenses := append(scenarioExpenses(), Expense{ID: "x", Amount: eur(99), Category: "luxury"})
	s := ComputeSummary(eur(5000), expenses)

	assert.Equal(t, eur(2150), s.TotalSpent)
	assert.Equal(t, s.Spent.Total(), s.TotalSpent)
}

func TestComputeSummaryIsPure(t *testing.T) {
	expenses := scenarioExpenses()
	before := append([]Expense(nil), expenses...)

	first := ComputeSummary(eur(5000), expenses)
	second := ComputeSummary(eur(5000), expenses)

	assert.Equal(t, first, second)
	assert.Equal(t, before, expenses)
}

func TestAllocateAlwaysSumsToIncome(t *testing.T) {
	for _, cents := range []int64{0, 1, 2, 3, 7, 99, 101, 12345, 333333, 500000, 999999999, -1, -7, -12345} {
		a := Allocate(Money{Cents: cents})
		require.Equal(t, cents, a.Total().Cents, "income %d", cents)
	}
}

func TestAllocateRoundsHalfAwayFromZero(t *testing.T) {
	// 0.03 -> 1.5c necessity, 0.9c want
	a := Allocate(Money{Cents: 3})
	assert.Equal(t, int64(2), a.Necessity.Cents)
	assert.Equal(t, int64(1), a.Want.Cents)
	assert.Equal(t, int64(0), a.Saving.Cents)
}

func TestTotalSpentMatchesCategorySums(t *testing.T) {
	sets := [][]Expense{
		nil,
		{{Amount: Money{Cents: 1}, Category: Want}},
		{{Amount: Money{Cents: 10}, Category: Saving}, {Amount: Money{Cents: 33}, Category: Saving}},
		scenarioExpenses(),
	}
	for i, set := range sets {
		s := ComputeSummary(eur(100), set)
		assert.Equal(t, s.Spent.Necessity.Add(s.Spent.Want).Add(s.Spent.Saving), s.TotalSpent, "set %d", i)
	}
}

func TestPercentUsed(t *testing.T) {
	s := ComputeSummary(eur(5000), scenarioExpenses())
	assert.Equal(t, 60.0, s.PercentUsed(Necessity))
	assert.Equal(t, 10.0, s.PercentUsed(Want))
	assert.Equal(t, 50.0, s.PercentUsed(Saving))

	zero := ComputeSummary(Money{}, scenarioExpenses())
	assert.Equal(t, 0.0, zero.PercentUsed(Want))
}
