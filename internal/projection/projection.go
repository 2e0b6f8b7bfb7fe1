package projection

import (
	"context"
	"slices"
	"sync"

	"github.com/nix24/phoenixPlayer/internal/models"
)

// Projection is the observable in-memory view of songs, the queue, the playing flag and the search query.
type Projection struct {
	state *Observable[State]

	memoMu    sync.Mutex
	memoValid bool
	memoRev   uint64
	memoQuery string
	memo      []models.Song
}

// New creates an empty projection.
func New() *Projection {
	return &Projection{state: NewObservable(NewState(nil, models.EmptyQueue()))}
}

// State returns the current snapshot.
func (p *Projection) State() State {
	return p.state.Get()
}

// Update applies fn to the current snapshot and publishes the result.
func (p *Projection) Update(fn func(State) State) {
	p.state.Update(fn)
}

// Load replaces songs and queue wholesale.
func (p *Projection) Load(songs []models.Song, queue models.GlobalQueue) {
	p.state.Update(func(s State) State { return s.Reset(songs, queue) })
}

// PutSongs inserts or replaces songs.
func (p *Projection) PutSongs(songs ...models.Song) {
	p.state.Update(func(s State) State { return s.WithSongs(songs...) })
}

// DeleteSong removes a song.
func (p *Projection) DeleteSong(id int64) {
	p.state.Update(func(s State) State { return s.WithoutSong(id) })
}

// SetQueue replaces the queue snapshot.
func (p *Projection) SetQueue(q models.GlobalQueue) {
	p.state.Update(func(s State) State { return s.WithQueue(q) })
}

// SetCurrent overwrites the current song id.
func (p *Projection) SetCurrent(id int64) {
	p.state.Update(func(s State) State { return s.WithCurrent(id) })
}

// SetPlaying sets the playing flag.
func (p *Projection) SetPlaying(playing bool) {
	p.state.Update(func(s State) State { return s.WithPlaying(playing) })
}

// SetQuery stores the search query.
func (p *Projection) SetQuery(q string) {
	p.state.Update(func(s State) State { return s.WithQuery(q) })
}

// Songs returns all songs in insertion order.
func (p *Projection) Songs() []models.Song {
	return p.State().Songs()
}

// Song returns the song with id, or nil.
func (p *Projection) Song(id int64) *models.Song {
	song, ok := p.State().Song(id)
	if !ok {
		return nil
	}
	return &song
}

// Current returns the current song, or nil when there is none or it is unknown.
func (p *Projection) Current() *models.Song {
	song, ok := p.State().Current()
	if !ok {
		return nil
	}
	return &song
}

// Filtered returns the songs matching the stored query.
//
// The result is memoized on the song revision and the query and is recomputed
// only when either changes. Each call returns its own copy.
func (p *Projection) Filtered() []models.Song {
	s := p.State()

	p.memoMu.Lock()
	defer p.memoMu.Unlock()

	if p.memoValid && p.memoRev == s.Revision() && p.memoQuery == s.Query() {
		return slices.Clone(p.memo)
	}

	p.memo = Search(s.Songs(), s.Query())
	p.memoRev = s.Revision()
	p.memoQuery = s.Query()
	p.memoValid = true
	return slices.Clone(p.memo)
}

// Search filters the current songs by query without changing the stored query.
func (p *Projection) Search(query string) []models.Song {
	return slices.Clone(Search(p.Songs(), query))
}

// Subscribe calls fn with the current snapshot and after every change.
func (p *Projection) Subscribe(fn func(State)) (unsubscribe func()) {
	return p.state.Subscribe(fn)
}

// Watch streams snapshots until ctx is done, dropping intermediate snapshots for slow readers.
func (p *Projection) Watch(ctx context.Context) <-chan State {
	return p.state.Watch(ctx)
}
