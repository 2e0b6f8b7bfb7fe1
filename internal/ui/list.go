package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = songItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d songs", len(i.playlist.SongIDs))
}

// songItem wraps [models.Song] to implement [list.Item], marking the current song.
type songItem struct {
	song    models.Song
	current bool
	playing bool
}

func (i songItem) FilterValue() string { return i.song.Title }

func (i songItem) Title() string {
	if !i.current {
		return "  " + i.song.Title
	}
	marker := "▶ "
	if !i.playing {
		marker = "‖ "
	}
	return styles.current.Render(marker + i.song.Title)
}

func (i songItem) Description() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.song.Artist, i.song.Album} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if i.song.Duration > 0 {
		parts = append(parts, shared.FormatClock(i.song.Duration))
	}
	return "  " + strings.Join(parts, " • ")
}

func songItems(songs []models.Song, current int64, playing bool) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s, current: s.ID == current, playing: playing}
	}
	return items
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}
