package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"sync"    // standard Go package for concurrency primitives like RWMutex

	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"                // domain models: Transaction, ScheduledOperation
)

// record is what the store keeps for one user. The balance is never stored, it is folded
// from history on load.
type record struct {
	history []models.Transaction
	future  []models.ScheduledOperation
}

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Data lives as long as the process. It is safe for concurrent use.
type MemoryLedgerStore struct {
	mu      sync.RWMutex       // protects records; readers never block each other
	records map[string]*record // user id -> record
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		records: make(map[string]*record),
	}
}

// LoadLedger returns a copy of the user's ledger so callers can't modify internal state.
func (m *MemoryLedgerStore) LoadLedger(ctx context.Context, userID string) (models.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l := models.NewLedger(userID)
	rec, ok := m.records[userID]
	if !ok {
		return l, nil
	}
	l.History = append(l.History, rec.history...)
	l.Future = append(l.Future, rec.future...)
	l.Balance = models.Fold(l.History)
	return l, nil
}

// AppendTransaction appends tx to the user's history, creating the record if needed.
func (m *MemoryLedgerStore) AppendTransaction(ctx context.Context, userID string, tx models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.recordLocked(userID)
	rec.history = append(rec.history, tx)
	return nil
}

// AddScheduledOperation adds op to the user's future operations.
func (m *MemoryLedgerStore) AddScheduledOperation(ctx context.Context, userID string, op models.ScheduledOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.recordLocked(userID)
	rec.future = append(rec.future, op)
	return nil
}

// recordLocked must be called with mu held for writing.
func (m *MemoryLedgerStore) recordLocked(userID string) *record {
	rec, ok := m.records[userID]
	if !ok {
		rec = &record{}
		m.records[userID] = rec
	}
	return rec
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
