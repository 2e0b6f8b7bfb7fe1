// Package playlists manages named, ordered song lists.
//
// Every operation is a single-row storage transaction followed by a projection update.
// Operations on playlists that do not exist are no-ops.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/projection"
	"github.com/nix24/phoenixPlayer/internal/repositories"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

// SongLookup resolves song ids, typically a [projection.Projection].
type SongLookup interface {
	Song(id int64) *models.Song
}

var _ SongLookup = (*projection.Projection)(nil)

// Engine is the playlist engine. Its observable list mirrors the live playlists in creation order.
type Engine struct {
	store  *repositories.Store
	songs  SongLookup
	list   *projection.Observable[[]models.Playlist]
	logger *log.Logger

	mu sync.Mutex
}

// NewEngine creates a playlist engine. songs resolves playlist entries for [Engine.PlaylistSongs].
func NewEngine(store *repositories.Store, songs SongLookup, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		store:  store,
		songs:  songs,
		list:   projection.NewObservable([]models.Playlist{}),
		logger: logger,
	}
}

// LoadPlaylists replaces the observable list with every live playlist in storage.
func (e *Engine) LoadPlaylists(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	playlists, err := e.store.Playlists.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	e.list.Set(playlists)
	return nil
}

// AddPlaylist creates a playlist with the given name and initial songs.
func (e *Engine) AddPlaylist(ctx context.Context, name string, songIDs ...int64) (*models.Playlist, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var created models.Playlist
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		created = models.NewPlaylist(name, songIDs...)
		return tx.Playlists.Create(ctx, &created)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add playlist: %w", err)
	}

	e.list.Update(func(list []models.Playlist) []models.Playlist {
		return append(slices.Clone(list), created.Clone())
	})
	e.logger.Debug("playlist created", "id", created.ID, "name", created.Name)
	return &created, nil
}

// DeletePlaylist removes a playlist. It reports false when the playlist does not exist.
func (e *Engine) DeletePlaylist(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	found := false
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		found = false
		if _, err := tx.Playlists.Get(ctx, id); err != nil {
			return ignoreNotFound(err)
		}
		found = true
		return tx.Playlists.Delete(ctx, id)
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete playlist %s: %w", id, err)
	}
	if !found {
		return false, nil
	}

	e.list.Update(func(list []models.Playlist) []models.Playlist {
		return slices.DeleteFunc(slices.Clone(list), func(p models.Playlist) bool { return p.ID == id })
	})
	return true, nil
}

// AddSongToPlaylist appends songID to the playlist. Duplicates are kept.
func (e *Engine) AddSongToPlaylist(ctx context.Context, playlistID string, songID int64) (bool, error) {
	return e.modify(ctx, playlistID, func(p models.Playlist) models.Playlist { return p.WithSong(songID) })
}

// RemoveSongFromPlaylist removes every occurrence of songID from the playlist.
func (e *Engine) RemoveSongFromPlaylist(ctx context.Context, playlistID string, songID int64) (bool, error) {
	return e.modify(ctx, playlistID, func(p models.Playlist) models.Playlist { return p.WithoutSong(songID) })
}

// RenamePlaylist changes the playlist name.
func (e *Engine) RenamePlaylist(ctx context.Context, playlistID, name string) (bool, error) {
	return e.modify(ctx, playlistID, func(p models.Playlist) models.Playlist {
		p.Name = name
		return p
	})
}

// PurgeSong removes every occurrence of songID from every playlist and returns how many playlists changed.
//
// Removing a song from the queue leaves playlist entries alone; this is the explicit cleanup.
func (e *Engine) PurgeSong(ctx context.Context, songID int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		changed int
		list    []models.Playlist
	)
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		var err error
		if changed, err = tx.Playlists.RemoveSongEverywhere(ctx, songID); err != nil || changed == 0 {
			return err
		}
		list, err = tx.Playlists.List(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge song %d from playlists: %w", songID, err)
	}
	if changed > 0 {
		if list == nil {
			list = []models.Playlist{}
		}
		e.list.Set(list)
		e.logger.Debug("song purged from playlists", "song", songID, "playlists", changed)
	}
	return changed, nil
}

func (e *Engine) modify(ctx context.Context, id string, fn func(models.Playlist) models.Playlist) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		updated *models.Playlist
		found   bool
	)
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		var err error
		updated, found, err = tx.Playlists.Modify(ctx, id, fn)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to update playlist %s: %w", id, err)
	}
	if !found {
		e.logger.Debug("playlist not found, skipping update", "id", id)
		return false, nil
	}

	e.list.Update(func(list []models.Playlist) []models.Playlist {
		next := slices.Clone(list)
		for i := range next {
			if next[i].ID == id {
				next[i] = updated.Clone()
			}
		}
		return next
	})
	return true, nil
}

// Playlists returns the live playlists in creation order.
func (e *Engine) Playlists() []models.Playlist {
	list := e.list.Get()
	out := make([]models.Playlist, len(list))
	for i, p := range list {
		out[i] = p.Clone()
	}
	return out
}

// Playlist returns the playlist with id, or nil.
func (e *Engine) Playlist(id string) *models.Playlist {
	for _, p := range e.list.Get() {
		if p.ID == id {
			c := p.Clone()
			return &c
		}
	}
	return nil
}

// PlaylistSongs resolves a playlist's entries to songs in playlist order.
// Entries naming songs that no longer exist are skipped. It returns nil for an unknown playlist.
func (e *Engine) PlaylistSongs(id string) []models.Song {
	p := e.Playlist(id)
	if p == nil {
		return nil
	}

	songs := make([]models.Song, 0, len(p.SongIDs))
	for _, songID := range p.SongIDs {
		if s := e.songs.Song(songID); s != nil {
			songs = append(songs, *s)
		}
	}
	return songs
}

// Subscribe calls fn with the playlist list now and after every change.
//
// fn runs synchronously while the engine lock is held and must not call the
// engine's mutating methods; use [Engine.Watch] for that.
func (e *Engine) Subscribe(fn func([]models.Playlist)) (unsubscribe func()) {
	return e.list.Subscribe(fn)
}

// Watch streams the playlist list until ctx is done.
func (e *Engine) Watch(ctx context.Context) <-chan []models.Playlist {
	return e.list.Watch(ctx)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, shared.ErrPlaylistNotFound) {
		return nil
	}
	return err
}
