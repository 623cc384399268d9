package interfaces

import (
	"context"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// LedgerStore persists user ledgers. Implementations must make each call all-or-nothing;
// serialising writers of the same user is the caller's job.
type LedgerStore interface {
	// LoadLedger returns the committed ledger of userID, or an empty one if the user is unknown.
	LoadLedger(ctx context.Context, userID string) (models.Ledger, error)
	AppendTransaction(ctx context.Context, userID string, tx models.Transaction) error
	AddScheduledOperation(ctx context.Context, userID string, op models.ScheduledOperation) error
}
