// Package outbox keeps table syncs that failed after their order was created,
// so the reconciler can mark those tables booked later.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_table_syncs (
	table_id   TEXT NOT NULL,
	order_id   TEXT NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0,
	last_error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	PRIMARY KEY (table_id, order_id)
);
CREATE TABLE IF NOT EXISTS parked_table_syncs (
	table_id   TEXT NOT NULL,
	order_id   TEXT NOT NULL,
	attempts   INTEGER NOT NULL,
	last_error TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	parked_at  DATETIME NOT NULL,
	PRIMARY KEY (table_id, order_id)
)`

// PendingSync is one table that still has to be marked booked
type PendingSync struct {
	TableID   string    `db:"table_id"`
	OrderID   string    `db:"order_id"`
	Attempts  int       `db:"attempts"`
	LastError string    `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
}

// Store is the SQLite-backed outbox
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the outbox database at path
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open outbox: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create outbox schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a failed sync. Recording the same table and order twice keeps one row.
func (s *Store) Record(ctx context.Context, tableID, orderID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	const q = `
		INSERT INTO pending_table_syncs (table_id, order_id, attempts, last_error, created_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(table_id, order_id) DO UPDATE SET
			attempts = attempts + 1,
			last_error = excluded.last_error`
	if _, err := s.db.ExecContext(ctx, q, tableID, orderID, msg, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record pending sync for table %s: %w", tableID, err)
	}
	return nil
}

// Pending returns up to limit syncs, oldest first
func (s *Store) Pending(ctx context.Context, limit int) ([]PendingSync, error) {
	var rows []PendingSync
	const q = `
		SELECT table_id, order_id, attempts, last_error, created_at
		FROM pending_table_syncs
		ORDER BY created_at, table_id
		LIMIT ?`
	if err := s.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending syncs: %w", err)
	}
	return rows, nil
}

// MarkDone removes a sync that has been applied
func (s *Store) MarkDone(ctx context.Context, tableID, orderID string) error {
	const q = `DELETE FROM pending_table_syncs WHERE table_id = ? AND order_id = ?`
	if _, err := s.db.ExecContext(ctx, q, tableID, orderID); err != nil {
		return fmt.Errorf("failed to clear pending sync for table %s: %w", tableID, err)
	}
	return nil
}

// MarkFailed bumps the attempt counter after another failed retry
func (s *Store) MarkFailed(ctx context.Context, tableID, orderID string, cause error) error {
	const q = `
		UPDATE pending_table_syncs
		SET attempts = attempts + 1, last_error = ?
		WHERE table_id = ? AND order_id = ?`
	if _, err := s.db.ExecContext(ctx, q, cause.Error(), tableID, orderID); err != nil {
		return fmt.Errorf("failed to update pending sync for table %s: %w", tableID, err)
	}
	return nil
}

// Park moves a sync that will never succeed out of the retry queue.
// Parked rows stay in the database for an operator to inspect.
func (s *Store) Park(ctx context.Context, p PendingSync, cause error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to park sync for table %s: %w", p.TableID, err)
	}
	defer tx.Rollback()

	const insert = `
		INSERT INTO parked_table_syncs (table_id, order_id, attempts, last_error, created_at, parked_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(table_id, order_id) DO UPDATE SET
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			parked_at = excluded.parked_at`
	if _, err := tx.ExecContext(ctx, insert, p.TableID, p.OrderID, p.Attempts+1, cause.Error(), p.CreatedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to park sync for table %s: %w", p.TableID, err)
	}
	const remove = `DELETE FROM pending_table_syncs WHERE table_id = ? AND order_id = ?`
	if _, err := tx.ExecContext(ctx, remove, p.TableID, p.OrderID); err != nil {
		return fmt.Errorf("failed to park sync for table %s: %w", p.TableID, err)
	}
	return tx.Commit()
}

// Parked lists syncs the reconciler gave up on, most recent first
func (s *Store) Parked(ctx context.Context) ([]PendingSync, error) {
	var rows []PendingSync
	const q = `
		SELECT table_id, order_id, attempts, last_error, created_at
		FROM parked_table_syncs
		ORDER BY parked_at DESC, table_id`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("failed to list parked syncs: %w", err)
	}
	return rows, nil
}

// Count returns the number of syncs still pending
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM pending_table_syncs`); err != nil {
		return 0, fmt.Errorf("failed to count pending syncs: %w", err)
	}
	return n, nil
}
