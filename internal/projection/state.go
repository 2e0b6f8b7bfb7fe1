package projection

import (
	"slices"

	"github.com/nix24/phoenixPlayer/internal/models"
)

// State is an immutable snapshot of the projection.
//
// Songs keep insertion order; a song that is replaced keeps its position.
// The With* methods return modified copies and never touch the receiver.
type State struct {
	order   []int64
	songs   map[int64]models.Song
	queue   models.GlobalQueue
	playing bool
	query   string
	rev     uint64
}

// NewState builds a snapshot from songs (in order) and the queue row.
func NewState(songs []models.Song, queue models.GlobalQueue) State {
	return State{queue: queue}.WithSongs(songs...)
}

// Songs returns every song in insertion order.
func (s State) Songs() []models.Song {
	out := make([]models.Song, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.songs[id])
	}
	return out
}

// Song returns the song with id.
func (s State) Song(id int64) (models.Song, bool) {
	song, ok := s.songs[id]
	return song, ok
}

// Len returns the number of songs.
func (s State) Len() int { return len(s.order) }

// Queue returns the queue snapshot.
func (s State) Queue() models.GlobalQueue { return s.queue }

// Current returns the current song, if it is known.
func (s State) Current() (models.Song, bool) {
	if s.queue.CurrentSongID == models.NoID {
		return models.Song{}, false
	}
	return s.Song(s.queue.CurrentSongID)
}

// Playing reports the playing flag.
func (s State) Playing() bool { return s.playing }

// Query returns the stored search query.
func (s State) Query() string { return s.query }

// Revision changes whenever the song set or any song changes.
func (s State) Revision() uint64 { return s.rev }

// WithSongs inserts or replaces songs.
func (s State) WithSongs(songs ...models.Song) State {
	if len(songs) == 0 {
		return s
	}

	next := make(map[int64]models.Song, len(s.songs)+len(songs))
	for id, song := range s.songs {
		next[id] = song
	}
	order := slices.Clone(s.order)
	for _, song := range songs {
		if _, ok := next[song.ID]; !ok {
			order = append(order, song.ID)
		}
		next[song.ID] = song
	}

	s.songs = next
	s.order = order
	s.rev++
	return s
}

// WithoutSong removes the song with id, if present.
func (s State) WithoutSong(id int64) State {
	if _, ok := s.songs[id]; !ok {
		return s
	}

	next := make(map[int64]models.Song, len(s.songs))
	for k, song := range s.songs {
		if k != id {
			next[k] = song
		}
	}
	s.songs = next
	s.order = slices.DeleteFunc(slices.Clone(s.order), func(k int64) bool { return k == id })
	s.rev++
	return s
}

// WithQueue replaces the queue snapshot.
func (s State) WithQueue(q models.GlobalQueue) State {
	s.queue = q
	return s
}

// WithCurrent sets the current song id without any validation.
func (s State) WithCurrent(id int64) State {
	s.queue.CurrentSongID = id
	return s
}

// WithPlaying sets the playing flag.
func (s State) WithPlaying(playing bool) State {
	s.playing = playing
	return s
}

// WithQuery sets the search query.
func (s State) WithQuery(q string) State {
	s.query = q
	return s
}

// Reset replaces songs and queue wholesale, keeping the playing flag and query.
func (s State) Reset(songs []models.Song, queue models.GlobalQueue) State {
	fresh := NewState(songs, queue)
	fresh.playing = s.playing
	fresh.query = s.query
	fresh.rev = s.rev + 1
	return fresh
}
