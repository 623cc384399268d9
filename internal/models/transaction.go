package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells whether money comes in or goes out. The sign of an amount is carried here,
// never by the amount itself.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

func (k Kind) Valid() bool { return k == Income || k == Expense }

// Signed returns amount with the sign implied by k.
func (k Kind) Signed(amount decimal.Decimal) decimal.Decimal {
	if k == Expense {
		return amount.Neg()
	}
	return amount
}

// ParseKind maps the persisted/wire name of a kind back to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown operation kind %q", s)
	}
	return k, nil
}

// Transaction is a settled income or expense. Immutable once appended to a ledger.
type Transaction struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"` // always positive
	CreatedAt time.Time       `json:"created_at"`
}
