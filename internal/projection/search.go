package projection

import (
	"strings"

	"github.com/nix24/phoenixPlayer/internal/models"
	"golang.org/x/text/cases"
)

// fold applies Unicode case folding. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Matches reports whether query is a case-insensitive substring of the song's title, artist or album.
// An empty query matches every song.
func Matches(song models.Song, query string) bool {
	if query == "" {
		return true
	}
	return matchFolded(song, fold(query))
}

func matchFolded(song models.Song, folded string) bool {
	return strings.Contains(fold(song.Title), folded) ||
		strings.Contains(fold(song.Artist), folded) ||
		strings.Contains(fold(song.Album), folded)
}

// Search filters songs by query, preserving order. An empty query returns all songs.
func Search(songs []models.Song, query string) []models.Song {
	if query == "" {
		return songs
	}

	folded := fold(query)
	out := make([]models.Song, 0, len(songs))
	for _, song := range songs {
		if matchFolded(song, folded) {
			out = append(out, song)
		}
	}
	return out
}
