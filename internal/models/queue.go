package models

import (
	"fmt"
	"time"

	"github.com/nix24/phoenixPlayer/internal/shared"
)

// GlobalQueue is the singleton queue row.
//
// All pointers are [NoID] for an empty queue; TotalSongs equals the number of songs whenever the queue is consistent.
type GlobalQueue struct {
	FirstSongID   int64     `json:"first_song_id,omitempty"`
	LastSongID    int64     `json:"last_song_id,omitempty"`
	CurrentSongID int64     `json:"current_song_id,omitempty"`
	TotalSongs    int       `json:"total_songs"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EmptyQueue returns the queue synthesized when no row has been stored yet.
func EmptyQueue() GlobalQueue {
	return GlobalQueue{}
}

// IsEmpty reports whether the queue has no head.
func (q GlobalQueue) IsEmpty() bool {
	return q.FirstSongID == NoID
}

// Validate checks pointer/count consistency that can be decided without the songs table.
func (q GlobalQueue) Validate() error {
	if q.TotalSongs < 0 {
		return fmt.Errorf("%w: negative song count %d", shared.ErrInvariantViolation, q.TotalSongs)
	}
	if (q.FirstSongID == NoID) != (q.LastSongID == NoID) {
		return fmt.Errorf("%w: queue has only one of first/last set", shared.ErrInvariantViolation)
	}
	return nil
}
