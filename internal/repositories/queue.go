package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

// QueueRepository persists the singleton global queue row (id 1).
type QueueRepository struct {
	db DBTX
}

// NewQueueRepository creates a QueueRepository over db.
func NewQueueRepository(db DBTX) *QueueRepository {
	return &QueueRepository{db: db}
}

// Get returns the stored queue, or [shared.ErrQueueNotFound] when no row has been written yet.
func (r *QueueRepository) Get(ctx context.Context) (*models.GlobalQueue, error) {
	var (
		q                    models.GlobalQueue
		first, last, current sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT first_song_id, last_song_id, current_song_id, total_songs, updated_at
		FROM global_queue WHERE id = 1
	`).Scan(&first, &last, &current, &q.TotalSongs, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrQueueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}

	q.FirstSongID = idFrom(first)
	q.LastSongID = idFrom(last)
	q.CurrentSongID = idFrom(current)
	return &q, nil
}

// GetOrEmpty returns the stored queue or an empty one when none exists.
func (r *QueueRepository) GetOrEmpty(ctx context.Context) (models.GlobalQueue, error) {
	q, err := r.Get(ctx)
	if errors.Is(err, shared.ErrQueueNotFound) {
		return models.EmptyQueue(), nil
	}
	if err != nil {
		return models.GlobalQueue{}, err
	}
	return *q, nil
}

// Put upserts the queue row.
func (r *QueueRepository) Put(ctx context.Context, q *models.GlobalQueue) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	q.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO global_queue (id, first_song_id, last_song_id, current_song_id, total_songs, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_song_id = excluded.first_song_id,
			last_song_id = excluded.last_song_id,
			current_song_id = excluded.current_song_id,
			total_songs = excluded.total_songs,
			updated_at = excluded.updated_at
	`,
		nullableID(q.FirstSongID),
		nullableID(q.LastSongID),
		nullableID(q.CurrentSongID),
		q.TotalSongs,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put queue: %w", err)
	}
	return nil
}
