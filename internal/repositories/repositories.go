// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nix24/phoenixPlayer/internal/shared"
)

// DBTX is the subset of [sql.DB] and [sql.Tx] the repositories use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// Tx exposes every repository bound to one transaction.
type Tx struct {
	Songs     *SongRepository
	Queue     *QueueRepository
	Playlists *PlaylistRepository
}

func newTx(db DBTX) *Tx {
	return &Tx{
		Songs:     NewSongRepository(db),
		Queue:     NewQueueRepository(db),
		Playlists: NewPlaylistRepository(db),
	}
}

// Store is the persistent store: repositories over one database plus atomic transactions spanning them.
type Store struct {
	db      *sql.DB
	backoff shared.BackoffPolicy

	Songs     *SongRepository
	Queue     *QueueRepository
	Playlists *PlaylistRepository
}

// NewStore creates a Store over db. Migrations must already be applied.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		backoff:   shared.DefaultBackoff,
		Songs:     NewSongRepository(db),
		Queue:     NewQueueRepository(db),
		Playlists: NewPlaylistRepository(db),
	}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetBackoff replaces the retry policy used by [Store.Transaction].
func (s *Store) SetBackoff(p shared.BackoffPolicy) {
	s.backoff = p
}

// Transaction runs fn inside a read-write transaction.
//
// The transaction commits when fn returns nil and rolls back otherwise, so no partial writes are visible.
// fn may run more than once when SQLite reports the database busy; it must not have side effects
// outside the transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	return s.backoff.RetryOnBusy(ctx, func() error {
		sqlTx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStorage, err)
		}
		defer sqlTx.Rollback()

		if err := fn(newTx(sqlTx)); err != nil {
			return err
		}

		if err := sqlTx.Commit(); err != nil {
			return fmt.Errorf("%w: failed to commit transaction: %w", shared.ErrStorage, err)
		}
		return nil
	})
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give a stable ordering for entities whose identifiers are UUIDs.
func NextSequence(ctx context.Context, db DBTX, table string) (int, error) {
	sequenceTable := table + "_sequence"

	var sequence int
	err := db.QueryRowContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1 RETURNING value", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	return sequence, nil
}

// nullableID maps [models.NoID] to SQL NULL.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// idFrom maps SQL NULL back to [models.NoID].
func idFrom(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

func rowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
