package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	amount     NUMERIC NOT NULL CHECK (amount > 0),
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_transactions_user ON ledger_transactions (user_id, seq);

CREATE TABLE IF NOT EXISTS scheduled_operations (
	seq     BIGSERIAL PRIMARY KEY,
	id      TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	kind    TEXT NOT NULL,
	amount  NUMERIC NOT NULL CHECK (amount > 0),
	op_date TEXT NOT NULL,
	note    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scheduled_operations_user ON scheduled_operations (user_id, seq);
`

type PostgresLedgerStore struct {
	db *sql.DB
}

// Open connects to dsn and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*PostgresLedgerStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := NewPostgresLedgerStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

func (p *PostgresLedgerStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) Close() error { return p.db.Close() }

// lockUser takes a transaction-scoped advisory lock on the user, so writers running in other
// processes against the same database are serialised too.
func lockUser(ctx context.Context, dbTx *sql.Tx, userID string) error {
	_, err := dbTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID)
	return err
}

func (p *PostgresLedgerStore) AppendTransaction(ctx context.Context, userID string, tx models.Transaction) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = lockUser(ctx, dbTx, userID); err != nil {
		return err
	}

	const query = `INSERT INTO ledger_transactions (id, user_id, kind, amount, created_at)
	VALUES ($1,$2,$3,$4,$5)`

	_, err = dbTx.ExecContext(ctx, query, tx.ID, userID, string(tx.Kind), tx.Amount, tx.CreatedAt)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

func (p *PostgresLedgerStore) AddScheduledOperation(ctx context.Context, userID string, op models.ScheduledOperation) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = lockUser(ctx, dbTx, userID); err != nil {
		return err
	}

	const query = `INSERT INTO scheduled_operations (id, user_id, kind, amount, op_date, note)
	VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = dbTx.ExecContext(ctx, query, op.ID, userID, string(op.Kind), op.Amount, storage.EncodeDate(op.Date), op.Note)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

// LoadLedger reads history and future operations in one read-only transaction so both
// come from the same committed state.
func (p *PostgresLedgerStore) LoadLedger(ctx context.Context, userID string) (models.Ledger, error) {
	l := models.NewLedger(userID)

	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return l, err
	}
	defer dbTx.Rollback()

	history, err := p.history(ctx, dbTx, userID)
	if err != nil {
		return l, err
	}
	future, err := p.future(ctx, dbTx, userID)
	if err != nil {
		return l, err
	}
	if err := dbTx.Commit(); err != nil {
		return l, err
	}

	l.History = append(l.History, history...)
	l.Future = append(l.Future, future...)
	l.Balance = models.Fold(l.History)
	return l, nil
}

func (p *PostgresLedgerStore) history(ctx context.Context, dbTx *sql.Tx, userID string) ([]models.Transaction, error) {
	const query = `SELECT id, kind, amount, created_at FROM ledger_transactions
	WHERE user_id = $1 ORDER BY seq`

	rows, err := dbTx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Transaction
	for rows.Next() {
		var (
			tx   models.Transaction
			kind string
		)
		if err := rows.Scan(&tx.ID, &kind, &tx.Amount, &tx.CreatedAt); err != nil {
			return nil, err
		}
		if tx.Kind, err = models.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		entries = append(entries, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (p *PostgresLedgerStore) future(ctx context.Context, dbTx *sql.Tx, userID string) ([]models.ScheduledOperation, error) {
	const query = `SELECT id, kind, amount, op_date, note FROM scheduled_operations
	WHERE user_id = $1 ORDER BY seq`

	rows, err := dbTx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []models.ScheduledOperation
	for rows.Next() {
		var (
			op         models.ScheduledOperation
			kind, when string
		)
		if err := rows.Scan(&op.ID, &kind, &op.Amount, &when, &op.Note); err != nil {
			return nil, err
		}
		if op.Kind, err = models.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("scheduled operation %s: %w", op.ID, err)
		}
		op.Date = storage.DecodeDate(when, userID, op.ID)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
