package budget

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// ErrMalformedState is wrapped by every Decode failure.
var ErrMalformedState = errors.New("malformed budget state")

// payload mirrors the persisted JSON record. Pointers distinguish a missing
// field from its zero value.
type payload struct {
	MonthlyIncome *json.Number     `json:"monthlyIncome"`
	Expenses      *[]expenseRecord `json:"expenses"`
}

type expenseRecord struct {
	ID          *string      `json:"id"`
	Amount      *json.Number `json:"amount"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Date        *string      `json:"date"`
}

// Encode serializes the state. The summary is never part of the payload.
func Encode(s State) ([]byte, error) {
	income := json.Number(s.MonthlyIncome.String())
	records := make([]expenseRecord, len(s.Expenses))
	for i, e := range s.Expenses {
		id := e.ID
		amount := json.Number(e.Amount.String())
		category := string(e.Category)
		description := e.Description
		date := e.Date.UTC().Format(time.RFC3339Nano)
		records[i] = expenseRecord{
			ID:          &id,
			Amount:      &amount,
			Category:    &category,
			Description: &description,
			Date:        &date,
		}
	}
	return json.Marshal(payload{MonthlyIncome: &income, Expenses: &records})
}

// Decode parses and validates a persisted state. Unknown keys are ignored,
// so payloads that still carry a stale summary load fine.
func Decode(data []byte) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if p.MonthlyIncome == nil {
		return State{}, fmt.Errorf("%w: missing monthlyIncome", ErrMalformedState)
	}
	if p.Expenses == nil {
		return State{}, fmt.Errorf("%w: missing expenses", ErrMalformedState)
	}

	income, err := decodeAmount(*p.MonthlyIncome)
	if err != nil {
		return State{}, fmt.Errorf("%w: monthlyIncome: %v", ErrMalformedState, err)
	}

	seen := make(map[string]struct{}, len(*p.Expenses))
	expenses := make([]core.Expense, 0, len(*p.Expenses))
	for i, r := range *p.Expenses {
		e, err := decodeExpense(r)
		if err != nil {
			return State{}, fmt.Errorf("%w: expenses[%d]: %v", ErrMalformedState, i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return State{}, fmt.Errorf("%w: expenses[%d]: duplicate id %q", ErrMalformedState, i, e.ID)
		}
		seen[e.ID] = struct{}{}
		expenses = append(expenses, e)
	}

	return State{MonthlyIncome: income, Expenses: expenses}, nil
}

func decodeExpense(r expenseRecord) (core.Expense, error) {
	switch {
	case r.ID == nil || *r.ID == "":
		return core.Expense{}, errors.New("missing id")
	case r.Amount == nil:
		return core.Expense{}, errors.New("missing amount")
	case r.Category == nil:
		return core.Expense{}, errors.New("missing category")
	case r.Date == nil:
		return core.Expense{}, errors.New("missing date")
	}

	amount, err := decodeAmount(*r.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount: %w", err)
	}
	category, err := core.ParseCategory(*r.Category)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := time.Parse(time.RFC3339Nano, *r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("date: %w", err)
	}
	description := ""
	if r.Description != nil {
		description = *r.Description
	}

	return core.Expense{
		ID:          *r.ID,
		Amount:      amount,
		Category:    category,
		Description: description,
		Date:        date,
	}, nil
}

func decodeAmount(n json.Number) (core.Money, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return core.Money{}, err
	}
	if d.IsNegative() {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.MoneyFromDecimal(d)
}
