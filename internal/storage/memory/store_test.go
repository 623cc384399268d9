package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/storagetest"
)

func TestMemoryLedgerStore(t *testing.T) {
	storagetest.Run(t, NewMemoryLedgerStore())
}

func TestLoadLedgerReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	require.NoError(t, store.AppendTransaction(ctx, "u1", models.Transaction{ID: "t1", Kind: models.Income}))

	l, err := store.LoadLedger(ctx, "u1")
	require.NoError(t, err)
	l.History[0].ID = "changed"

	again, err := store.LoadLedger(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "t1", again.History[0].ID)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryLedgerStore()
	require.ErrorIs(t, store.AppendTransaction(ctx, "u1", models.Transaction{}), context.Canceled)
	require.ErrorIs(t, store.AddScheduledOperation(ctx, "u1", models.ScheduledOperation{}), context.Canceled)
}
