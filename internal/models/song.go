package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/nix24/phoenixPlayer/internal/shared"
)

// SongInput carries the metadata a caller supplies when adding a song.
//
// Storage assigns the identifier and the queue engine assigns the links.
type SongInput struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Year     int     `json:"year"`
	Track    int     `json:"track"`
	Duration float64 `json:"duration"` // seconds
	Size     int64   `json:"size"`     // bytes
	CoverArt string  `json:"cover_art,omitempty"`
	AudioRef string  `json:"audio_ref,omitempty"`
}

// Validate rejects metadata that cannot describe a song.
func (in SongInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: song title is required", shared.ErrInvalidInput)
	}
	if in.Year < 0 || in.Track < 0 {
		return fmt.Errorf("%w: year and track must not be negative", shared.ErrInvalidInput)
	}
	if in.Duration < 0 || in.Size < 0 {
		return fmt.Errorf("%w: duration and size must not be negative", shared.ErrInvalidInput)
	}
	return nil
}

// Song is a stored song and a node of the global queue.
//
// PrevID and NextID are [NoID] at the ends of the queue.
type Song struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Year     int     `json:"year"`
	Track    int     `json:"track"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
	CoverArt string  `json:"cover_art,omitempty"`
	AudioRef string  `json:"audio_ref,omitempty"`
	PrevID   int64   `json:"prev_id,omitempty"`
	NextID   int64   `json:"next_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSong builds an unlinked, unsaved song from input.
func NewSong(in SongInput) Song {
	now := time.Now().UTC()
	return Song{
		Title:     in.Title,
		Artist:    in.Artist,
		Album:     in.Album,
		Year:      in.Year,
		Track:     in.Track,
		Duration:  in.Duration,
		Size:      in.Size,
		CoverArt:  in.CoverArt,
		AudioRef:  in.AudioRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Input returns the caller-owned metadata of s.
func (s Song) Input() SongInput {
	return SongInput{
		Title:    s.Title,
		Artist:   s.Artist,
		Album:    s.Album,
		Year:     s.Year,
		Track:    s.Track,
		Duration: s.Duration,
		Size:     s.Size,
		CoverArt: s.CoverArt,
		AudioRef: s.AudioRef,
	}
}

// Validate checks the metadata and that the song does not link to itself.
func (s Song) Validate() error {
	if err := s.Input().Validate(); err != nil {
		return err
	}
	if s.ID != NoID && (s.PrevID == s.ID || s.NextID == s.ID) {
		return fmt.Errorf("%w: song %d links to itself", shared.ErrInvariantViolation, s.ID)
	}
	return nil
}

// String renders the song as "Artist - Title".
func (s Song) String() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Artist + " - " + s.Title
}
