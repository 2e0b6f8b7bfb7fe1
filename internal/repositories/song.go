package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

const songColumns = `id, title, artist, album, year, track, duration, size, cover_art, audio_ref, prev_id, next_id, created_at, updated_at`

// SongRepository persists songs together with their queue links.
type SongRepository struct {
	db DBTX
}

// NewSongRepository creates a SongRepository over db.
func NewSongRepository(db DBTX) *SongRepository {
	return &SongRepository{db: db}
}

// Add inserts song with a storage-assigned id, which is written back to song.ID and returned.
func (r *SongRepository) Add(ctx context.Context, song *models.Song) (int64, error) {
	if err := song.Input().Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	stampSong(song)
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO songs (title, artist, album, year, track, duration, size, cover_art, audio_ref, prev_id, next_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, insertArgs(song)...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read song id: %w", err)
	}
	song.ID = id
	return id, nil
}

// BulkAdd inserts songs in order and returns their ids in the same order.
//
// Every song is validated before anything is written.
func (r *SongRepository) BulkAdd(ctx context.Context, songs []*models.Song) ([]int64, error) {
	for i, song := range songs {
		if err := song.Input().Validate(); err != nil {
			return nil, fmt.Errorf("validation failed for song %d: %w", i, err)
		}
	}
	if len(songs) == 0 {
		return nil, nil
	}

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO songs (title, artist, album, year, track, duration, size, cover_art, audio_ref, prev_id, next_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(songs))
	for _, song := range songs {
		stampSong(song)
		result, err := stmt.ExecContext(ctx, insertArgs(song)...)
		if err != nil {
			return nil, fmt.Errorf("failed to insert song %q: %w", song.Title, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read song id: %w", err)
		}
		song.ID = id
		ids = append(ids, id)
	}

	return ids, nil
}

// Get retrieves a song by id.
func (r *SongRepository) Get(ctx context.Context, id int64) (*models.Song, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return song, nil
}

// Exists reports whether a song with id is stored.
func (r *SongRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM songs WHERE id = ?)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check song: %w", err)
	}
	return exists, nil
}

// Put upserts song under its id, replacing every column.
func (r *SongRepository) Put(ctx context.Context, song *models.Song) error {
	if song.ID == models.NoID {
		return fmt.Errorf("%w: put requires a song id", shared.ErrInvalidInput)
	}
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	stampSong(song)
	args := append([]any{song.ID}, insertArgs(song)...)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO songs (id, title, artist, album, year, track, duration, size, cover_art, audio_ref, prev_id, next_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			year = excluded.year,
			track = excluded.track,
			duration = excluded.duration,
			size = excluded.size,
			cover_art = excluded.cover_art,
			audio_ref = excluded.audio_ref,
			prev_id = excluded.prev_id,
			next_id = excluded.next_id,
			updated_at = excluded.updated_at
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to put song: %w", err)
	}
	return nil
}

// SetLinks rewrites only the queue links of one song.
func (r *SongRepository) SetLinks(ctx context.Context, id, prevID, nextID int64) error {
	if id != models.NoID && (prevID == id || nextID == id) {
		return fmt.Errorf("%w: song %d links to itself", shared.ErrInvariantViolation, id)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE songs SET prev_id = ?, next_id = ?, updated_at = ? WHERE id = ?",
		nullableID(prevID), nullableID(nextID), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update song links: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	return nil
}

// Delete removes a song row.
func (r *SongRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	return nil
}

// List returns songs ordered by id.
//
// Supported criteria are exact matches on "artist" and "album".
func (r *SongRepository) List(ctx context.Context, criteria map[string]any) ([]models.Song, error) {
	query := "SELECT " + songColumns + " FROM songs"
	var (
		where []string
		args  []any
	)

	if artist, ok := criteria["artist"].(string); ok {
		where = append(where, "artist = ?")
		args = append(args, artist)
	}
	if album, ok := criteria["album"].(string); ok {
		where = append(where, "album = ?")
		args = append(args, album)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating songs: %w", err)
	}

	return songs, nil
}

// Count returns the number of stored songs.
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(s scanner) (*models.Song, error) {
	var (
		song       models.Song
		prev, next sql.NullInt64
	)

	err := s.Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.Album,
		&song.Year,
		&song.Track,
		&song.Duration,
		&song.Size,
		&song.CoverArt,
		&song.AudioRef,
		&prev,
		&next,
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	song.PrevID = idFrom(prev)
	song.NextID = idFrom(next)
	return &song, nil
}

func stampSong(song *models.Song) {
	now := time.Now().UTC()
	if song.CreatedAt.IsZero() {
		song.CreatedAt = now
	}
	song.UpdatedAt = now
}

func insertArgs(song *models.Song) []any {
	return []any{
		song.Title,
		song.Artist,
		song.Album,
		song.Year,
		song.Track,
		song.Duration,
		song.Size,
		song.CoverArt,
		song.AudioRef,
		nullableID(song.PrevID),
		nullableID(song.NextID),
		song.CreatedAt,
		song.UpdatedAt,
	}
}
