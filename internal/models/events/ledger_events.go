package events

import (
	"time"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/shopspring/decimal"
)

const (
	TypeTransactionApplied = "transaction_applied"
	TypeOperationScheduled = "operation_scheduled"
)

// Event is anything the ledger emits after a committed mutation.
type Event interface {
	EventType() string
	Key() string
}

type TransactionApplied struct {
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func (TransactionApplied) EventType() string { return TypeTransactionApplied }
func (e TransactionApplied) Key() string     { return e.UserID }

type OperationScheduled struct {
	EventID     string          `json:"event_id"`
	OperationID string          `json:"operation_id"`
	UserID      string          `json:"user_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Date        date.Date       `json:"date"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (OperationScheduled) EventType() string { return TypeOperationScheduled }
func (e OperationScheduled) Key() string     { return e.UserID }
