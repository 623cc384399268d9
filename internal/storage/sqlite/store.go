package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage"
)

// Amounts are TEXT so SQLite never coerces them to floating point.
const schema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	amount     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_transactions_user ON ledger_transactions (user_id, seq);

CREATE TABLE IF NOT EXISTS scheduled_operations (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	kind    TEXT NOT NULL,
	amount  TEXT NOT NULL,
	op_date TEXT NOT NULL,
	note    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scheduled_operations_user ON scheduled_operations (user_id, seq);
`

// SQLiteLedgerStore keeps ledgers in a single SQLite file.
type SQLiteLedgerStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*SQLiteLedgerStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteLedgerStore{db: db}, nil
}

func (s *SQLiteLedgerStore) Close() error { return s.db.Close() }

// withTx runs fn in a transaction.
func (s *SQLiteLedgerStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteLedgerStore) AppendTransaction(ctx context.Context, userID string, t models.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_transactions (id, user_id, kind, amount, created_at) VALUES (?, ?, ?, ?, ?)`,
			t.ID, userID, string(t.Kind), t.Amount.String(), t.CreatedAt.UTC(),
		)
		return err
	})
}

func (s *SQLiteLedgerStore) AddScheduledOperation(ctx context.Context, userID string, op models.ScheduledOperation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scheduled_operations (id, user_id, kind, amount, op_date, note) VALUES (?, ?, ?, ?, ?, ?)`,
			op.ID, userID, string(op.Kind), op.Amount.String(), storage.EncodeDate(op.Date), op.Note,
		)
		return err
	})
}

func (s *SQLiteLedgerStore) LoadLedger(ctx context.Context, userID string) (models.Ledger, error) {
	l := models.NewLedger(userID)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		history, err := loadHistory(ctx, tx, userID)
		if err != nil {
			return err
		}
		future, err := loadFuture(ctx, tx, userID)
		if err != nil {
			return err
		}
		l.History = append(l.History, history...)
		l.Future = append(l.Future, future...)
		return nil
	})
	if err != nil {
		return models.NewLedger(userID), err
	}
	l.Balance = models.Fold(l.History)
	return l, nil
}

func loadHistory(ctx context.Context, tx *sql.Tx, userID string) ([]models.Transaction, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, kind, amount, created_at FROM ledger_transactions WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			t    models.Transaction
			kind string
		)
		if err := rows.Scan(&t.ID, &kind, &t.Amount, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Kind, err = models.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func loadFuture(ctx context.Context, tx *sql.Tx, userID string) ([]models.ScheduledOperation, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, kind, amount, op_date, note FROM scheduled_operations WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduledOperation
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
		out = append(out, op)
	}
	return out, rows.Err()
}

var _ interfaces.LedgerStore = (*SQLiteLedgerStore)(nil)
