package shared

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// BackoffPolicy describes exponential backoff for transient storage failures.
type BackoffPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultBackoff is used by the repositories for SQLITE_BUSY / SQLITE_LOCKED retries.
var DefaultBackoff = BackoffPolicy{
	Attempts:       5,
	InitialBackoff: 10 * time.Millisecond,
	MaxBackoff:     200 * time.Millisecond,
}

// IsBusy reports whether err is a transient SQLite lock error worth retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// RetryOnBusy runs op until it succeeds, fails with a non-transient error, or attempts run out.
//
// Delays double after each busy failure up to MaxBackoff. Cancelling ctx stops the loop.
func (p BackoffPolicy) RetryOnBusy(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := p.InitialBackoff
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !IsBusy(lastErr) || attempt == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if next := delay * 2; next <= p.MaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// RetryOnBusy retries op with [DefaultBackoff].
func RetryOnBusy(ctx context.Context, op func() error) error {
	return DefaultBackoff.RetryOnBusy(ctx, op)
}
