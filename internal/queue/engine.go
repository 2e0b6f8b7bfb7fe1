package queue

import (
	"cmp"
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

// Engine is the queue engine. It owns every write to the songs table and the queue row.
//
// Mutations are serialized by the engine and each one commits before its result is
// published, so the projection sees changes in commit order. Reads never touch storage.
type Engine struct {
	store        *repositories.Store
	view         *projection.Projection
	logger       *log.Logger
	repairOnLoad bool

	mu sync.Mutex
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the engine logger. Engines are silent by default.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRepairOnLoad makes [Engine.Initialize] rebuild an inconsistent queue.
func WithRepairOnLoad(repair bool) Option {
	return func(e *Engine) { e.repairOnLoad = repair }
}

// NewEngine creates a queue engine over store publishing to view.
func NewEngine(store *repositories.Store, view *projection.Projection, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		view:   view,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Projection returns the projection the engine publishes to.
func (e *Engine) Projection() *projection.Projection {
	return e.view
}

// Initialize loads every song and the queue row into the projection.
//
// A missing queue row is replaced in memory by an empty queue and is not persisted.
// The loaded list is verified; inconsistencies are logged and, with repair on load, rebuilt.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	songs, q, err := e.load(ctx)
	if err != nil {
		return err
	}

	report := Verify(q, songs)
	if !report.OK() {
		e.logger.Warn("queue is inconsistent", "issues", len(report.Issues), "err", report.Err())
		if e.repairOnLoad {
			if _, err := e.repairLocked(ctx, q.CurrentSongID); err != nil {
				return fmt.Errorf("failed to repair queue: %w", err)
			}
			return nil
		}
	}

	e.view.Load(songs, q)
	e.logger.Debug("queue loaded", "songs", len(songs), "current", q.CurrentSongID)
	return nil
}

func (e *Engine) load(ctx context.Context) ([]models.Song, models.GlobalQueue, error) {
	songs, err := e.store.Songs.List(ctx, nil)
	if err != nil {
		return nil, models.GlobalQueue{}, fmt.Errorf("failed to load songs: %w", err)
	}
	q, err := e.store.Queue.GetOrEmpty(ctx)
	if err != nil {
		return nil, models.GlobalQueue{}, fmt.Errorf("failed to load queue: %w", err)
	}
	return songs, q, nil
}

// currentID is the current song as the projection knows it, which may be ahead of storage.
// Unknown ids in the projection are ignored.
func (e *Engine) currentID(stored int64) int64 {
	if cur, ok := e.view.State().Current(); ok {
		return cur.ID
	}
	return stored
}

// AddSong appends a song to the end of the queue and returns its id.
//
// The first song ever added creates the queue row and becomes first, last and current.
func (e *Engine) AddSong(ctx context.Context, in models.SongInput) (int64, error) {
	ids, err := e.AddSongs(ctx, []models.SongInput{in})
	if err != nil {
		return models.NoID, err
	}
	return ids[0], nil
}

// AddSongs appends songs to the end of the queue, in order, in a single transaction.
func (e *Engine) AddSongs(ctx context.Context, inputs []models.SongInput) ([]int64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("song %d: %w", i, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		changed []models.Song
		q       models.GlobalQueue
		ids     []int64
	)
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		changed = nil

		stored, err := tx.Queue.Get(ctx)
		switch {
		case errors.Is(err, shared.ErrQueueNotFound):
			q = models.EmptyQueue()
		case err != nil:
			return err
		default:
			q = *stored
			q.CurrentSongID = e.currentID(q.CurrentSongID)
		}

		songs := make([]*models.Song, len(inputs))
		for i, in := range inputs {
			s := models.NewSong(in)
			songs[i] = &s
		}
		if ids, err = tx.Songs.BulkAdd(ctx, songs); err != nil {
			return err
		}

		oldLast := models.NoID
		if q.LastSongID != models.NoID {
			last, err := tx.Songs.Get(ctx, q.LastSongID)
			switch {
			case errors.Is(err, shared.ErrSongNotFound):
				e.logger.Warn("queue tail is missing, appending without a predecessor", "last", q.LastSongID)
			case err != nil:
				return err
			default:
				oldLast = last.ID
				last.NextID = ids[0]
				if err := tx.Songs.SetLinks(ctx, last.ID, last.PrevID, last.NextID); err != nil {
					return err
				}
				changed = append(changed, *last)
			}
		}

		for i, s := range songs {
			s.PrevID = oldLast
			if i > 0 {
				s.PrevID = ids[i-1]
			}
			if i < len(songs)-1 {
				s.NextID = ids[i+1]
			}
			if err := tx.Songs.SetLinks(ctx, s.ID, s.PrevID, s.NextID); err != nil {
				return err
			}
			changed = append(changed, *s)
		}

		q.LastSongID = ids[len(ids)-1]
		if q.FirstSongID == models.NoID {
			q.FirstSongID = ids[0]
		}
		if q.CurrentSongID == models.NoID {
			q.CurrentSongID = ids[0]
		}
		q.TotalSongs += len(ids)
		return tx.Queue.Put(ctx, &q)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add songs: %w", err)
	}

	e.view.Update(func(s projection.State) projection.State {
		return s.WithSongs(changed...).WithQueue(q)
	})
	e.logger.Debug("songs added", "count", len(ids), "last", q.LastSongID, "total", q.TotalSongs)
	return ids, nil
}

// RemoveSong unlinks a song from the queue and deletes it.
//
// It reports false without error when the song or the queue row does not exist.
// A removed current song is replaced by its successor, or its predecessor at the tail.
func (e *Engine) RemoveSong(ctx context.Context, id int64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		removed bool
		changed []models.Song
		q       models.GlobalQueue
	)
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		removed, changed = false, nil

		stored, err := tx.Queue.Get(ctx)
		if errors.Is(err, shared.ErrQueueNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		q = *stored
		q.CurrentSongID = e.currentID(q.CurrentSongID)

		song, err := tx.Songs.Get(ctx, id)
		if errors.Is(err, shared.ErrSongNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		prevID, err := existing(ctx, tx, song.PrevID)
		if err != nil {
			return err
		}
		nextID, err := existing(ctx, tx, song.NextID)
		if err != nil {
			return err
		}

		if prevID != models.NoID {
			prev, err := tx.Songs.Get(ctx, prevID)
			if err != nil {
				return err
			}
			prev.NextID = nextID
			if err := tx.Songs.SetLinks(ctx, prev.ID, prev.PrevID, prev.NextID); err != nil {
				return err
			}
			changed = append(changed, *prev)
		}
		if nextID != models.NoID {
			next, err := tx.Songs.Get(ctx, nextID)
			if err != nil {
				return err
			}
			next.PrevID = prevID
			if err := tx.Songs.SetLinks(ctx, next.ID, next.PrevID, next.NextID); err != nil {
				return err
			}
			changed = append(changed, *next)
		}

		if q.FirstSongID == id {
			q.FirstSongID = nextID
		}
		if q.LastSongID == id {
			q.LastSongID = prevID
		}
		if q.CurrentSongID == id {
			q.CurrentSongID = nextID
			if q.CurrentSongID == models.NoID {
				q.CurrentSongID = prevID
			}
		}
		q.TotalSongs = max(q.TotalSongs-1, 0)

		if err := tx.Songs.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Queue.Put(ctx, &q); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove song %d: %w", id, err)
	}
	if !removed {
		e.logger.Debug("remove skipped, song or queue not found", "song", id)
		return false, nil
	}

	e.view.Update(func(s projection.State) projection.State {
		return s.WithoutSong(id).WithSongs(changed...).WithQueue(q)
	})
	e.logger.Debug("song removed", "song", id, "total", q.TotalSongs)
	return true, nil
}

// existing returns id when it names a stored song and [models.NoID] otherwise.
func existing(ctx context.Context, tx *repositories.Tx, id int64) (int64, error) {
	if id == models.NoID {
		return models.NoID, nil
	}
	ok, err := tx.Songs.Exists(ctx, id)
	if err != nil || !ok {
		return models.NoID, err
	}
	return id, nil
}

// GetNextSong returns the song after the current one, wrapping from the last song to the first.
// It returns nil when the queue is empty, there is no current song, or the current song is unknown.
func (e *Engine) GetNextSong() *models.Song {
	s := e.view.State()
	cur, ok := s.Current()
	if !ok {
		return nil
	}

	id := cur.NextID
	if id == models.NoID {
		id = s.Queue().FirstSongID
	}
	return lookup(s, id)
}

// GetPreviousSong returns the song before the current one, wrapping from the first song to the last.
func (e *Engine) GetPreviousSong() *models.Song {
	s := e.view.State()
	cur, ok := s.Current()
	if !ok {
		return nil
	}

	id := cur.PrevID
	if id == models.NoID {
		id = s.Queue().LastSongID
	}
	return lookup(s, id)
}

func lookup(s projection.State, id int64) *models.Song {
	song, ok := s.Song(id)
	if !ok {
		return nil
	}
	return &song
}

// SetCurrentSong sets the current song in the projection. It is not validated or persisted;
// the next queue mutation or [Engine.SaveCurrentSong] writes it to storage.
func (e *Engine) SetCurrentSong(id int64) {
	e.view.SetCurrent(id)
}

// SaveCurrentSong persists the projection's current song to the queue row.
// It does nothing when no queue row exists and fails when the current song is unknown.
func (e *Engine) SaveCurrentSong(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.view.State()
	current := state.Queue().CurrentSongID
	if _, ok := state.Song(current); current != models.NoID && !ok {
		return fmt.Errorf("failed to save current song: %w: %d", shared.ErrSongNotFound, current)
	}

	var q models.GlobalQueue
	saved := false
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		stored, err := tx.Queue.Get(ctx)
		if errors.Is(err, shared.ErrQueueNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		q = *stored
		q.CurrentSongID = current
		saved = true
		return tx.Queue.Put(ctx, &q)
	})
	if err != nil {
		return fmt.Errorf("failed to save current song: %w", err)
	}
	if saved {
		e.view.SetQueue(q)
	}
	return nil
}

// SetPlaying sets the playing flag.
func (e *Engine) SetPlaying(playing bool) {
	e.view.SetPlaying(playing)
}

// IsPlaying reports the playing flag.
func (e *Engine) IsPlaying() bool {
	return e.view.State().Playing()
}

// SetSearchQuery stores the search query used by [Engine.GetFilteredSongs].
func (e *Engine) SetSearchQuery(q string) {
	e.view.SetQuery(q)
}

// GetAllSongs returns every song in storage order.
func (e *Engine) GetAllSongs() []models.Song {
	return e.view.Songs()
}

// GetFilteredSongs returns the songs matching the stored search query.
func (e *Engine) GetFilteredSongs() []models.Song {
	return e.view.Filtered()
}

// SearchSongs returns the songs matching query without storing it.
func (e *Engine) SearchSongs(query string) []models.Song {
	return e.view.Search(query)
}

// GetCurrentSong returns the current song, or nil.
func (e *Engine) GetCurrentSong() *models.Song {
	return e.view.Current()
}

// Song returns the song with id, or nil.
func (e *Engine) Song(id int64) *models.Song {
	return e.view.Song(id)
}

// Queue returns the projected queue row.
func (e *Engine) Queue() models.GlobalQueue {
	return e.view.State().Queue()
}

// Ordered returns the songs in queue order, following next links from the head.
func (e *Engine) Ordered() []models.Song {
	s := e.view.State()
	return Walk(s.Queue(), s.Song)
}

// Subscribe calls fn with the current state and after every change.
//
// fn runs synchronously while the engine lock is held and must not call the
// engine's mutating methods or SaveCurrentSong; use [Engine.Watch] for that.
func (e *Engine) Subscribe(fn func(projection.State)) (unsubscribe func()) {
	return e.view.Subscribe(fn)
}

// Watch streams projection states until ctx is done.
func (e *Engine) Watch(ctx context.Context) <-chan projection.State {
	return e.view.Watch(ctx)
}

// Verify checks the stored queue.
func (e *Engine) Verify(ctx context.Context) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	songs, q, err := e.load(ctx)
	if err != nil {
		return Report{}, err
	}
	return Verify(q, songs), nil
}

// Repair rebuilds the stored queue when it is inconsistent and reloads the projection.
// It returns the report from before the repair.
func (e *Engine) Repair(ctx context.Context) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.repairLocked(ctx, e.currentID(models.NoID))
}

func (e *Engine) repairLocked(ctx context.Context, current int64) (Report, error) {
	var (
		report Report
		plan   Plan
	)
	err := e.store.Transaction(ctx, func(tx *repositories.Tx) error {
		songs, err := tx.Songs.List(ctx, nil)
		if err != nil {
			return err
		}
		q, err := tx.Queue.GetOrEmpty(ctx)
		if err != nil {
			return err
		}
		if current != models.NoID {
			q.CurrentSongID = current
		}

		report = Verify(q, songs)
		if report.OK() {
			plan = Plan{Queue: q, Order: songs}
			return nil
		}

		plan = Rebuild(q, songs)
		for _, s := range plan.Changed {
			if err := tx.Songs.SetLinks(ctx, s.ID, s.PrevID, s.NextID); err != nil {
				return err
			}
		}
		return tx.Queue.Put(ctx, &plan.Queue)
	})
	if err != nil {
		return Report{}, err
	}

	songs := slices.SortedFunc(slices.Values(plan.Order), func(a, b models.Song) int { return cmp.Compare(a.ID, b.ID) })
	e.view.Load(songs, plan.Queue)

	if !report.OK() {
		e.logger.Info("queue repaired", "issues", len(report.Issues), "relinked", len(plan.Changed), "total", plan.Queue.TotalSongs)
	}
	return report, nil
}
