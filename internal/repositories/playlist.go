package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

// PlaylistRepository persists playlists with soft delete support.
//
// Song membership is stored as an ordered JSON array on the playlist row.
type PlaylistRepository struct {
	db DBTX
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db DBTX) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with a generated ID and sequence, writing both back to playlist.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	songIDs, err := encodeSongIDs(playlist.SongIDs)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = now
	}
	playlist.UpdatedAt = now
	playlist.ID = shared.GenerateID()
	playlist.Sequence = sequence

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO playlists (id, sequence, name, song_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, playlist.ID, playlist.Sequence, playlist.Name, songIDs, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a live playlist by ID.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, sequence, name, song_ids, created_at, updated_at, deleted_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`, id)

	playlist, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return playlist, nil
}

// Update writes the name and song list of an existing live playlist.
func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	songIDs, err := encodeSongIDs(playlist.SongIDs)
	if err != nil {
		return err
	}

	playlist.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE playlists SET name = ?, song_ids = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, playlist.Name, songIDs, playlist.UpdatedAt, playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlist.ID)
	}
	return nil
}

// Modify applies fn to the stored playlist and writes the result back.
//
// A missing playlist is not an error: Modify reports false and fn is not called.
// Run it inside [Store.Transaction] so the read and the write are atomic.
func (r *PlaylistRepository) Modify(ctx context.Context, id string, fn func(models.Playlist) models.Playlist) (*models.Playlist, bool, error) {
	current, err := r.Get(ctx, id)
	if errors.Is(err, shared.ErrPlaylistNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	next := fn(current.Clone())
	next.ID = current.ID
	if err := r.Update(ctx, &next); err != nil {
		return nil, false, err
	}
	return &next, true, nil
}

// Delete soft deletes a playlist by setting deleted_at.
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return nil
}

// RemoveSongEverywhere drops every occurrence of songID from all live playlists and
// returns how many playlists changed.
func (r *PlaylistRepository) RemoveSongEverywhere(ctx context.Context, songID int64) (int, error) {
	playlists, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, p := range playlists {
		if !p.Contains(songID) {
			continue
		}
		next := p.WithoutSong(songID)
		if err := r.Update(ctx, &next); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// List retrieves live playlists in creation order.
func (r *PlaylistRepository) List(ctx context.Context) ([]models.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sequence, name, song_ids, created_at, updated_at, deleted_at
		FROM playlists
		WHERE deleted_at IS NULL
		ORDER BY sequence
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playlists: %w", err)
	}

	return playlists, nil
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var (
		p         models.Playlist
		songIDs   string
		deletedAt sql.NullTime
	)

	if err := s.Scan(&p.ID, &p.Sequence, &p.Name, &songIDs, &p.CreatedAt, &p.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(songIDs), &p.SongIDs); err != nil {
		return nil, fmt.Errorf("failed to decode song ids for playlist %s: %w", p.ID, err)
	}
	if p.SongIDs == nil {
		p.SongIDs = []int64{}
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	return &p, nil
}

func encodeSongIDs(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode song ids: %w", err)
	}
	return string(data), nil
}
