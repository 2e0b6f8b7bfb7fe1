package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Persistence errors
	ErrStorage            = fmt.Errorf("storage failure")
	ErrSongNotFound       = fmt.Errorf("song not found")
	ErrQueueNotFound      = fmt.Errorf("queue not found")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrInvariantViolation = fmt.Errorf("queue invariant violated")
	ErrDatabaseLocked     = fmt.Errorf("database is in use by another process")

	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
