// package models defines the data model for the music library
package models

// Validator is implemented by every entity that is checked before it is persisted.
type Validator interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// NoID is the identifier value meaning "no song".
const NoID int64 = 0

var (
	_ Validator = SongInput{}
	_ Validator = Song{}
	_ Validator = GlobalQueue{}
	_ Validator = Playlist{}
)
