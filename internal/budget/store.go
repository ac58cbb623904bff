// Package budget owns the canonical budget state: the monthly income and the
// expense list. Every mutation runs the same pipeline, in order:
//
//  1. commit the new state
//  2. recompute the summary from the committed state
//  3. persist the state (never the summary) to the slot
//  4. notify observers with the (state, summary) snapshot
//
// Observers therefore never see a summary that lags behind the expenses.
package budget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/persist"
)

// DefaultKey is the slot key the state is stored under.
const DefaultKey = "budgetState"

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("budget store closed")

// Operation names the mutation that produced a snapshot.
type Operation string

const (
	OpLoad          Operation = "load"
	OpAddExpense    Operation = "add_expense"
	OpDeleteExpense Operation = "delete_expense"
	OpUpdateIncome  Operation = "update_income"
	OpReset         Operation = "reset"
)

// State is the canonical budget data. Expenses keep insertion order.
type State struct {
	MonthlyIncome core.Money
	Expenses      []core.Expense
}

func (s State) clone() State {
	return State{MonthlyIncome: s.MonthlyIncome, Expenses: slices.Clone(s.Expenses)}
}

// Snapshot is a consistent, independent copy of the store contents.
type Snapshot struct {
	Revision  uint64
	Operation Operation
	State     State
	Summary   core.Summary
}

// Observer receives a snapshot after every mutation, in mutation order.
// Observers run synchronously and must not call back into the Store;
// the snapshot carries everything they need.
type Observer interface {
	BudgetChanged(ctx context.Context, snap Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, snap Snapshot)

func (f ObserverFunc) BudgetChanged(ctx context.Context, snap Snapshot) { f(ctx, snap) }

// Option configures a Store.
type Option func(*Store)

// WithKey sets the slot key. Empty keeps DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the time source used to stamp new expenses.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how expense IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithLogger(logger *applog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithComponent(applog.ComponentStore)
		}
	}
}

// Store owns the budget state for one session.
type Store struct {
	// mu guards the state; notifyMu is taken before mu is released so that
	// notifications go out in the same order as the mutations.
	mu       sync.Mutex
	notifyMu sync.Mutex

	slot   persist.Slot
	key    string
	now    func() time.Time
	newID  func() string
	logger *applog.Logger

	state    State
	summary  core.Summary
	revision uint64
	lastOp   Operation
	degraded bool
	closed   bool

	obsMu     sync.Mutex
	observers map[uint64]Observer
	nextObsID uint64
}

// Open loads the persisted state from slot, falling back to the default
// seed state when nothing is stored or the payload cannot be decoded. The
// seed is written back only when the slot is empty or malformed; a failed
// read leaves the stored payload untouched.
func Open(ctx context.Context, slot persist.Slot, opts ...Option) (*Store, error) {
	if slot == nil {
		return nil, errors.New("budget: nil slot")
	}
	s := &Store{
		slot:      slot,
		key:       DefaultKey,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStore),
		lastOp:    OpLoad,
		observers: map[uint64]Observer{},
	}
	for _, opt := range opts {
		opt(s)
	}

	state, fromSlot, readErr := s.load(ctx)
	s.state = state
	s.summary = core.ComputeSummary(state.MonthlyIncome, state.Expenses)
	if !fromSlot && !readErr {
		s.persist(ctx)
	}

	s.logger.InfoContext(ctx, "Budget state loaded",
		applog.FieldSlotKey, s.key,
		"from_slot", fromSlot,
		"expenses", len(state.Expenses),
		applog.FieldIncome, state.MonthlyIncome.String())
	return s, nil
}

func (s *Store) load(ctx context.Context) (state State, fromSlot, readErr bool) {
	data, found, err := s.slot.Load(ctx, s.key)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "Failed to read budget state, using defaults",
			applog.FieldSlotKey, s.key, applog.FieldError, err)
		return DefaultState(s.newID), false, true
	case !found:
		s.logger.InfoContext(ctx, "No saved budget state, using defaults", applog.FieldSlotKey, s.key)
	default:
		decoded, err := Decode(data)
		if err == nil {
			return decoded, true, false
		}
		s.logger.WarnContext(ctx, "Saved budget state is malformed, using defaults",
			applog.FieldSlotKey, s.key, applog.FieldError, err)
	}
	return DefaultState(s.newID), false, false
}

// AddExpense stamps a fresh ID and the current time on n and appends it.
func (s *Store) AddExpense(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	if err := n.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	e := core.Expense{
		ID:          s.newID(),
		Amount:      n.Amount,
		Category:    n.Category,
		Description: n.Description,
		Date:        s.now(),
	}
	err := s.mutate(ctx, OpAddExpense, func(st *State) {
		st.Expenses = append(st.Expenses, e)
	})
	if err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// DeleteExpense removes the expense with the given id. An unknown id is not
// an error; removed reports whether anything matched.
func (s *Store) DeleteExpense(ctx context.Context, id string) (removed bool, err error) {
	err = s.mutate(ctx, OpDeleteExpense, func(st *State) {
		before := len(st.Expenses)
		st.Expenses = slices.DeleteFunc(st.Expenses, func(e core.Expense) bool { return e.ID == id })
		removed = len(st.Expenses) != before
	})
	return removed, err
}

// UpdateIncome replaces the monthly income. Zero is allowed, negative is not.
func (s *Store) UpdateIncome(ctx context.Context, income core.Money) error {
	if income.IsNegative() {
		return fmt.Errorf("update income: %w", core.ErrInvalidAmount)
	}
	return s.mutate(ctx, OpUpdateIncome, func(st *State) {
		st.MonthlyIncome = income
	})
}

// Reset replaces everything with the default seed state.
func (s *Store) Reset(ctx context.Context) error {
	return s.mutate(ctx, OpReset, func(st *State) {
		*st = DefaultState(s.newID)
	})
}

func (s *Store) mutate(ctx context.Context, op Operation, apply func(*State)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	next := s.state.clone()
	apply(&next)
	s.state = next
	s.summary = core.ComputeSummary(next.MonthlyIncome, next.Expenses)
	s.revision++
	s.lastOp = op
	s.persist(ctx)

	snap := s.snapshotLocked(op)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.logger.DebugContext(ctx, "Budget state changed",
		applog.FieldOperation, string(op),
		applog.FieldRevision, snap.Revision,
		applog.FieldIncome, snap.Summary.TotalIncome.String(),
		applog.FieldTotalSpent, snap.Summary.TotalSpent.String())

	s.notify(ctx, snap)
	return nil
}

// persist writes the current state. After the first failed write the store
// keeps working in memory only for the rest of the session. The write is
// detached from ctx cancellation so a caller going away mid-request does not
// count as a storage failure.
func (s *Store) persist(ctx context.Context) {
	if s.degraded {
		return
	}
	data, err := Encode(s.state)
	if err == nil {
		err = s.slot.Save(context.WithoutCancel(ctx), s.key, data)
	}
	if err != nil {
		s.degraded = true
		s.logger.WarnContext(ctx, "Failed to persist budget state, continuing in memory only",
			applog.FieldSlotKey, s.key, applog.FieldError, err)
	}
}

func (s *Store) notify(ctx context.Context, snap Snapshot) {
	s.obsMu.Lock()
	ids := make([]uint64, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		o.BudgetChanged(ctx, snap)
	}
}

// Subscribe registers o for change notifications, in subscription order.
// The returned function unsubscribes it.
func (s *Store) Subscribe(o Observer) (cancel func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) snapshotLocked(op Operation) Snapshot {
	return Snapshot{
		Revision:  s.revision,
		Operation: op,
		State:     s.state.clone(),
		Summary:   s.summary,
	}
}

// Snapshot returns the current state and summary.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.lastOp)
}

// Summary returns the current derived summary.
func (s *Store) Summary() core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Expenses returns a copy of the expense list in insertion order.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Expenses)
}

func (s *Store) Income() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.MonthlyIncome
}

func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Degraded reports whether persistence has been given up for this session.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Close ends the session. Observers are dropped and further mutations fail
// with ErrClosed; reads keep returning the last state.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.obsMu.Lock()
	clear(s.observers)
	s.obsMu.Unlock()
}
