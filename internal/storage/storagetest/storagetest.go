// Package storagetest is a conformance suite every LedgerStore implementation runs.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

func newTx(kind models.Kind, amount string) models.Transaction {
	return models.Transaction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// Run exercises store. Every test uses its own user ids so a shared database is fine.
func Run(t *testing.T, store interfaces.LedgerStore) {
	ctx := context.Background()

	t.Run("unknown user gets an empty ledger", func(t *testing.T) {
		user := uuid.NewString()
		l, err := store.LoadLedger(ctx, user)
		require.NoError(t, err)
		require.Equal(t, user, l.UserID)
		require.True(t, l.Balance.IsZero())
		require.Empty(t, l.History)
		require.Empty(t, l.Future)
	})

	t.Run("history keeps commit order and folds into balance", func(t *testing.T) {
		user := uuid.NewString()
		txs := []models.Transaction{
			newTx(models.Income, "1000"),
			newTx(models.Expense, "300"),
			newTx(models.Income, "12.34"),
		}
		for _, tx := range txs {
			require.NoError(t, store.AppendTransaction(ctx, user, tx))
		}

		l, err := store.LoadLedger(ctx, user)
		require.NoError(t, err)
		require.Equal(t, "712.34", l.Balance.String())
		require.Len(t, l.History, len(txs))
		for i, tx := range txs {
			require.Equal(t, tx.ID, l.History[i].ID)
			require.Equal(t, tx.Kind, l.History[i].Kind)
			require.True(t, tx.Amount.Equal(l.History[i].Amount))
			require.True(t, tx.CreatedAt.Equal(l.History[i].CreatedAt))
		}
	})

	t.Run("scheduled operation round trip", func(t *testing.T) {
		user := uuid.NewString()
		op := models.ScheduledOperation{
			ID:     uuid.NewString(),
			Kind:   models.Expense,
			Amount: decimal.RequireFromString("99.90"),
			Date:   date.MustParse("2025-02-01"),
			Note:   "rent",
		}
		require.NoError(t, store.AddScheduledOperation(ctx, user, op))

		l, err := store.LoadLedger(ctx, user)
		require.NoError(t, err)
		require.Len(t, l.Future, 1)
		got := l.Future[0]
		require.Equal(t, op.ID, got.ID)
		require.Equal(t, op.Kind, got.Kind)
		require.True(t, op.Amount.Equal(got.Amount))
		require.Equal(t, op.Date, got.Date)
		require.Equal(t, op.Note, got.Note)
		require.True(t, l.Balance.IsZero(), "scheduled operations never touch the balance")
	})

	t.Run("users are isolated", func(t *testing.T) {
		a, b := uuid.NewString(), uuid.NewString()
		require.NoError(t, store.AppendTransaction(ctx, a, newTx(models.Income, "5")))
		require.NoError(t, store.AppendTransaction(ctx, b, newTx(models.Expense, "7")))

		la, err := store.LoadLedger(ctx, a)
		require.NoError(t, err)
		lb, err := store.LoadLedger(ctx, b)
		require.NoError(t, err)
		require.Equal(t, "5", la.Balance.String())
		require.Equal(t, "-7", lb.Balance.String())
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		user := uuid.NewString()
		const n = 20
		errs := make(chan error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Go(func() {
				errs <- store.AppendTransaction(ctx, user, newTx(models.Income, fmt.Sprint(i+1)))
			})
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		l, err := store.LoadLedger(ctx, user)
		require.NoError(t, err)
		require.Len(t, l.History, n)
		require.Equal(t, fmt.Sprint(n*(n+1)/2), l.Balance.String())
	})
}
