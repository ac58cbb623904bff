package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/budget"
)

// BudgetChangedMessage announces a new budget revision. It carries headline
// figures only; consumers read the full state from the shared slot.
type BudgetChangedMessage struct {
	// Source identifies the publishing process; revisions are ordered per source.
	Source          string    `json:"source"`
	Revision        uint64    `json:"revision"`
	Operation       string    `json:"operation"`
	IncomeCents     int64     `json:"income_cents"`
	TotalSpentCents int64     `json:"total_spent_cents"`
	ExpenseCount    int       `json:"expense_count"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewBudgetChangedMessage summarizes a store snapshot
func NewBudgetChangedMessage(source string, snap budget.Snapshot) *BudgetChangedMessage {
	return &BudgetChangedMessage{
		Source:          source,
		Revision:        snap.Revision,
		Operation:       string(snap.Operation),
		IncomeCents:     snap.Summary.TotalIncome.Cents,
		TotalSpentCents: snap.Summary.TotalSpent.Cents,
		ExpenseCount:    len(snap.State.Expenses),
		Timestamp:       time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetChangedMessageFromJSON creates a message from JSON bytes
func BudgetChangedMessageFromJSON(data []byte) (*BudgetChangedMessage, error) {
	var msg BudgetChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
