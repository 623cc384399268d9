package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Ledger is a read-only snapshot of one user's financial record.
type Ledger struct {
	UserID  string               `json:"user_id"`
	Balance decimal.Decimal      `json:"balance"`
	History []Transaction        `json:"history"`
	Future  []ScheduledOperation `json:"future"`
}

// NewLedger returns the default ledger a user starts with.
func NewLedger(userID string) Ledger {
	return Ledger{
		UserID:  userID,
		Balance: decimal.Zero,
		History: []Transaction{},
		Future:  []ScheduledOperation{},
	}
}

// Fold computes a balance from a history, starting from zero, in commit order.
func Fold(history []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range history {
		balance = balance.Add(tx.Kind.Signed(tx.Amount))
	}
	return balance
}

// WithTransaction returns a copy of l with tx appended and the balance moved accordingly.
// l itself is left untouched so older snapshots stay valid.
func (l Ledger) WithTransaction(tx Transaction) Ledger {
	next := l.Clone()
	next.History = append(next.History, tx)
	next.Balance = l.Balance.Add(tx.Kind.Signed(tx.Amount))
	return next
}

// WithScheduledOperation returns a copy of l with op added to the future operations.
func (l Ledger) WithScheduledOperation(op ScheduledOperation) Ledger {
	next := l.Clone()
	next.Future = append(next.Future, op)
	return next
}

// Clone returns a deep copy whose slices do not alias l's.
func (l Ledger) Clone() Ledger {
	c := l
	c.History = slices.Clone(l.History)
	c.Future = slices.Clone(l.Future)
	if c.History == nil {
		c.History = []Transaction{}
	}
	if c.Future == nil {
		c.Future = []ScheduledOperation{}
	}
	return c
}
