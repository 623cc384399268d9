package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/forecast"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models/events"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrStorage          = errors.New("ledger storage unavailable")
)

// Ledger is the only way user ledgers are read and written.
// Writes for one user are serialised by a per-user mutex; different users never wait on
// each other. The last committed snapshot of each user is cached so reads don't hit the store.
type Ledger struct {
	store     interfaces.LedgerStore    // persistence, any implementation
	publisher interfaces.EventPublisher // optional, notified after each commit
	now       func() time.Time

	muMap map[string]*sync.Mutex // stores the *sync.Mutex for each user in a map
	mapMu sync.Mutex             // protects the muMap itself

	snapMu    sync.RWMutex
	snapshots map[string]models.Ledger // written only while holding the user's lock
}

type Option func(*Ledger)

// WithPublisher makes the ledger publish an event after every committed mutation.
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a Ledger on top of store.
func NewLedger(store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		now:       time.Now,
		muMap:     make(map[string]*sync.Mutex),
		snapshots: make(map[string]models.Ledger),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) getUserLock(userID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[userID]; !exists {
		l.muMap[userID] = &sync.Mutex{}
	}
	return l.muMap[userID]
}

// maxAmountLen bounds the length of a typed amount, digits and separator included.
const maxAmountLen = 24

// ParseAmount turns user input into a strictly positive amount.
// Surrounding spaces are ignored and a decimal comma is accepted ("1000,50").
// Exponent notation is rejected.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if len(s) > maxAmountLen {
		return decimal.Zero, fmt.Errorf("%w: too many digits", ErrInvalidAmount)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q is not a plain number", ErrInvalidAmount, text)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, text)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, amount)
	}
	return amount, nil
}

// cached returns the cached snapshot of userID, if any.
func (l *Ledger) cached(userID string) (models.Ledger, bool) {
	l.snapMu.RLock()
	defer l.snapMu.RUnlock()
	snap, ok := l.snapshots[userID]
	return snap, ok
}

func (l *Ledger) cache(snap models.Ledger) {
	l.snapMu.Lock()
	defer l.snapMu.Unlock()
	l.snapshots[snap.UserID] = snap
}

// forget drops the cached snapshot after a failed write: the store may or may not hold the
// write, so the next access reloads whatever it actually committed.
func (l *Ledger) forget(userID string) {
	l.snapMu.Lock()
	defer l.snapMu.Unlock()
	delete(l.snapshots, userID)
}

// currentLocked returns the latest committed ledger. The caller holds the user's lock.
func (l *Ledger) currentLocked(ctx context.Context, userID string) (models.Ledger, error) {
	if snap, ok := l.cached(userID); ok {
		return snap, nil
	}
	snap, err := l.store.LoadLedger(ctx, userID)
	if err != nil {
		return models.Ledger{}, fmt.Errorf("%w: load %s: %w", ErrStorage, userID, err)
	}
	l.cache(snap)
	return snap, nil
}

// GetLedger returns a copy of the user's ledger, an empty one for a new user.
// It only fails when the ledger has to be loaded and the store is unavailable.
func (l *Ledger) GetLedger(ctx context.Context, userID string) (models.Ledger, error) {
	if snap, ok := l.cached(userID); ok {
		return snap.Clone(), nil
	}

	// a miss is filled under the user lock so it can never overwrite a newer commit
	mu := l.getUserLock(userID)
	mu.Lock()
	defer mu.Unlock()

	snap, err := l.currentLocked(ctx, userID)
	if err != nil {
		return models.Ledger{}, err
	}
	return snap.Clone(), nil
}

// ApplyTransaction settles an income or expense and returns the new balance.
// The transaction is appended and the balance moved together, or not at all.
func (l *Ledger) ApplyTransaction(ctx context.Context, userID string, kind models.Kind, amount decimal.Decimal) (decimal.Decimal, error) {
	if !kind.Valid() {
		return decimal.Zero, fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, kind)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, amount)
	}

	mu := l.getUserLock(userID)
	mu.Lock()
	defer mu.Unlock()

	current, err := l.currentLocked(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	tx := models.Transaction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Amount:    amount,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.AppendTransaction(ctx, userID, tx); err != nil {
		slog.Error("failed to append transaction", "user_id", userID, "error", err)
		l.forget(userID)
		return decimal.Zero, fmt.Errorf("%w: append transaction: %w", ErrStorage, err)
	}

	next := current.WithTransaction(tx)
	l.cache(next)

	l.publish(ctx, events.TransactionApplied{
		EventID:       uuid.NewString(),
		TransactionID: tx.ID,
		UserID:        userID,
		Kind:          string(kind),
		Amount:        amount,
		Balance:       next.Balance,
		OccurredAt:    tx.CreatedAt,
	})
	return next.Balance, nil
}

// AddScheduledOperation records a one-shot future income or expense.
func (l *Ledger) AddScheduledOperation(ctx context.Context, userID string, kind models.Kind, amount decimal.Decimal, on date.Date, note string) error {
	switch {
	case !kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, kind)
	case !amount.IsPositive():
		return fmt.Errorf("%w: amount %s must be positive", ErrInvalidOperation, amount)
	case !on.Valid():
		return fmt.Errorf("%w: missing date", ErrInvalidOperation)
	}

	mu := l.getUserLock(userID)
	mu.Lock()
	defer mu.Unlock()

	current, err := l.currentLocked(ctx, userID)
	if err != nil {
		return err
	}

	op := models.ScheduledOperation{
		ID:     uuid.NewString(),
		Kind:   kind,
		Amount: amount,
		Date:   on,
		Note:   strings.TrimSpace(note),
	}
	if err := l.store.AddScheduledOperation(ctx, userID, op); err != nil {
		slog.Error("failed to add scheduled operation", "user_id", userID, "error", err)
		l.forget(userID)
		return fmt.Errorf("%w: add scheduled operation: %w", ErrStorage, err)
	}
	l.cache(current.WithScheduledOperation(op))

	l.publish(ctx, events.OperationScheduled{
		EventID:     uuid.NewString(),
		OperationID: op.ID,
		UserID:      userID,
		Kind:        string(kind),
		Amount:      amount,
		Date:        on,
		OccurredAt:  l.now().UTC(),
	})
	return nil
}

// ListHistory returns the user's transactions in commit order.
func (l *Ledger) ListHistory(ctx context.Context, userID string) ([]models.Transaction, error) {
	snap, err := l.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.History, nil
}

// ListFuture returns the user's scheduled operations in the order they were added.
func (l *Ledger) ListFuture(ctx context.Context, userID string) ([]models.ScheduledOperation, error) {
	snap, err := l.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.Future, nil
}

// Forecast projects the user's latest committed ledger to target.
func (l *Ledger) Forecast(ctx context.Context, userID string, target date.Date) (forecast.Result, error) {
	snap, err := l.GetLedger(ctx, userID)
	if err != nil {
		return forecast.Result{}, err
	}
	res := forecast.Explain(snap, target)
	for _, op := range res.Skipped {
		slog.Warn("skipped scheduled operation in forecast", "user_id", userID, "error", forecast.Check(op))
	}
	return res, nil
}

// publish hands the event over while the user's lock is still held, keeping per-user order.
// A failure is logged: the mutation is already committed.
func (l *Ledger) publish(ctx context.Context, event events.Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, event); err != nil {
		slog.Error("failed to publish event", "event_type", event.EventType(), "user_id", event.Key(), "error", err)
	}
}

var _ interfaces.LedgerService = (*Ledger)(nil)
