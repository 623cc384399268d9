package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/forecast"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

// LedgerService is what the dialogue, the HTTP transport and the CLI need from the ledger.
type LedgerService interface {
	GetLedger(ctx context.Context, userID string) (models.Ledger, error)
	ApplyTransaction(ctx context.Context, userID string, kind models.Kind, amount decimal.Decimal) (decimal.Decimal, error)
	AddScheduledOperation(ctx context.Context, userID string, kind models.Kind, amount decimal.Decimal, on date.Date, note string) error
	ListHistory(ctx context.Context, userID string) ([]models.Transaction, error)
	ListFuture(ctx context.Context, userID string) ([]models.ScheduledOperation, error)
	Forecast(ctx context.Context, userID string, target date.Date) (forecast.Result, error)
}
