package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
)

func TestRetryOnBusy(t *testing.T) {
	policy := BackoffPolicy{Attempts: 4, InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := policy.RetryOnBusy(context.Background(), func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("begin: %w", busy)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		calls := 0
		err := policy.RetryOnBusy(context.Background(), func() error {
			calls++
			return errors.New("database is locked")
		})
		if err == nil {
			t.Fatal("expected error after exhausting attempts")
		}
		if calls != 4 {
			t.Errorf("expected 4 calls, got %d", calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		want := errors.New("constraint failed")
		err := policy.RetryOnBusy(context.Background(), func() error {
			calls++
			return want
		})
		if !errors.Is(err, want) {
			t.Errorf("expected original error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected a single call, got %d", calls)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := policy.RetryOnBusy(ctx, func() error { return busy })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestIsBusy(t *testing.T) {
	if IsBusy(nil) {
		t.Error("nil error should not be busy")
	}
	if !IsBusy(sqlite3.Error{Code: sqlite3.ErrLocked}) {
		t.Error("SQLITE_LOCKED should be busy")
	}
	if IsBusy(errors.New("no such table")) {
		t.Error("unrelated error should not be busy")
	}
}
