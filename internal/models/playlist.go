package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nix24/phoenixPlayer/internal/shared"
)

// Playlist is a named, ordered list of song ids.
//
// The list is logically a set but duplicates are kept: adding the same song twice yields two entries.
type Playlist struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	SongIDs   []int64    `json:"songs"`
	Sequence  int        `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// NewPlaylist creates an unsaved playlist with the given name and songs.
func NewPlaylist(name string, songIDs ...int64) Playlist {
	now := time.Now().UTC()
	return Playlist{
		Name:      name,
		SongIDs:   append([]int64{}, songIDs...),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate requires a name.
func (p Playlist) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}
	return nil
}

// WithSong returns a copy of p with songID appended.
func (p Playlist) WithSong(songID int64) Playlist {
	p.SongIDs = append(slices.Clone(p.SongIDs), songID)
	return p
}

// WithoutSong returns a copy of p with every occurrence of songID removed.
func (p Playlist) WithoutSong(songID int64) Playlist {
	out := make([]int64, 0, len(p.SongIDs))
	for _, id := range p.SongIDs {
		if id != songID {
			out = append(out, id)
		}
	}
	p.SongIDs = out
	return p
}

// Contains reports whether songID occurs in the playlist.
func (p Playlist) Contains(songID int64) bool {
	return slices.Contains(p.SongIDs, songID)
}

// Clone returns a deep copy of p.
func (p Playlist) Clone() Playlist {
	p.SongIDs = slices.Clone(p.SongIDs)
	if p.DeletedAt != nil {
		at := *p.DeletedAt
		p.DeletedAt = &at
	}
	return p
}
