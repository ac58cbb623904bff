package amqp

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"budget/internal/budget"
	applog "budget/internal/log"
)

// Publisher sends budget changed messages to the broker.
type Publisher interface {
	PublishBudgetChanged(ctx context.Context, msg *BudgetChangedMessage) error
}

var _ budget.Observer = (*Notifier)(nil)

// Notifier is a budget.Observer that forwards every change to a Publisher
// from its own goroutine, so mutations never wait on the broker. When the
// buffer is full the oldest pending message is dropped: consumers read the
// latest state from the slot, so only the newest notification matters.
type Notifier struct {
	pub     Publisher
	source  string
	queue   chan *BudgetChangedMessage
	logger  *applog.Logger
	dropped atomic.Int64
}

// NewNotifier creates a notifier with room for buffer pending messages.
func NewNotifier(pub Publisher, buffer int, logger *applog.Logger) *Notifier {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Notifier{
		pub:    pub,
		source: uuid.NewString(),
		queue:  make(chan *BudgetChangedMessage, buffer),
		logger: logger.WithComponent(applog.ComponentAMQP),
	}
}

// Source returns the identifier stamped on every message from this notifier.
func (n *Notifier) Source() string { return n.source }

// Dropped returns how many messages were discarded because the buffer was full.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

// BudgetChanged implements budget.Observer. It never blocks.
func (n *Notifier) BudgetChanged(ctx context.Context, snap budget.Snapshot) {
	msg := NewBudgetChangedMessage(n.source, snap)
	for {
		select {
		case n.queue <- msg:
			return
		default:
		}
		select {
		case old := <-n.queue:
			n.dropped.Add(1)
			n.logger.WarnContext(ctx, "Change event buffer full, dropping oldest event",
				applog.FieldRevision, old.Revision)
		default:
		}
	}
}

// Run publishes queued messages until ctx is cancelled. Publish failures are
// logged and the message is discarded.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-n.queue:
			if err := n.pub.PublishBudgetChanged(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				n.logger.WarnContext(ctx, "Failed to publish budget change",
					applog.FieldRevision, msg.Revision,
					applog.FieldOperation, msg.Operation,
					applog.FieldError, err)
			}
		}
	}
}
