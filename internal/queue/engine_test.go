package queue

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/projection"
	"github.com/nix24/phoenixPlayer/internal/repositories"
	"github.com/nix24/phoenixPlayer/internal/shared"
	tu "github.com/nix24/phoenixPlayer/internal/testing"
)

func newEngine(t *testing.T, opts ...Option) (*Engine, *repositories.Store) {
	t.Helper()
	store := tu.NewTestStore(t)
	e := NewEngine(store, projection.New(), opts...)
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize engine: %v", err)
	}
	return e, store
}

func addAll(t *testing.T, e *Engine, titles ...string) []int64 {
	t.Helper()
	var ids []int64
	for _, title := range titles {
		id, err := e.AddSong(context.Background(), tu.SongInput(title))
		if err != nil {
			t.Fatalf("failed to add %q: %v", title, err)
		}
		ids = append(ids, id)
	}
	return ids
}

// assertConsistent checks storage against the queue invariants and the projection against storage.
func assertConsistent(t *testing.T, e *Engine, store *repositories.Store) {
	t.Helper()
	ctx := context.Background()

	songs, err := store.Songs.List(ctx, nil)
	if err != nil {
		t.Fatalf("failed to list songs: %v", err)
	}
	q, err := store.Queue.GetOrEmpty(ctx)
	if err != nil {
		t.Fatalf("failed to get queue: %v", err)
	}

	if report := Verify(q, songs); !report.OK() {
		t.Fatalf("queue inconsistent: %v", report.Err())
	}

	if got := e.Queue(); got.FirstSongID != q.FirstSongID || got.LastSongID != q.LastSongID || got.TotalSongs != q.TotalSongs {
		t.Fatalf("projection queue %+v differs from stored %+v", got, q)
	}
	projected := e.GetAllSongs()
	if len(projected) != len(songs) {
		t.Fatalf("projection has %d songs, storage %d", len(projected), len(songs))
	}
	for i := range songs {
		p, s := projected[i], songs[i]
		if p.ID != s.ID || p.PrevID != s.PrevID || p.NextID != s.NextID {
			t.Fatalf("projection song %+v differs from stored %+v", p, s)
		}
	}
}

func orderIDs(e *Engine) []int64 {
	var out []int64
	for _, s := range e.Ordered() {
		out = append(out, s.ID)
	}
	return out
}

func TestEngine_AddSong(t *testing.T) {
	ctx := context.Background()

	t.Run("first song creates the queue", func(t *testing.T) {
		e, store := newEngine(t)

		if _, err := store.Queue.Get(ctx); !errors.Is(err, shared.ErrQueueNotFound) {
			t.Fatalf("expected no queue row before the first add, got %v", err)
		}

		id, err := e.AddSong(ctx, tu.SongInput("A"))
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		q, err := store.Queue.Get(ctx)
		if err != nil {
			t.Fatalf("expected queue row: %v", err)
		}
		if q.FirstSongID != id || q.LastSongID != id || q.CurrentSongID != id || q.TotalSongs != 1 {
			t.Errorf("unexpected queue %+v", q)
		}

		s, _ := store.Songs.Get(ctx, id)
		if s.PrevID != models.NoID || s.NextID != models.NoID {
			t.Errorf("expected unlinked song, got prev=%d next=%d", s.PrevID, s.NextID)
		}
		assertConsistent(t, e, store)
	})

	t.Run("appends keep back links intact", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B", "C")

		a, _ := store.Songs.Get(ctx, ids[0])
		b, _ := store.Songs.Get(ctx, ids[1])
		c, _ := store.Songs.Get(ctx, ids[2])

		if a.PrevID != models.NoID || a.NextID != b.ID {
			t.Errorf("A links prev=%d next=%d", a.PrevID, a.NextID)
		}
		if b.PrevID != a.ID || b.NextID != c.ID {
			t.Errorf("B links prev=%d next=%d", b.PrevID, b.NextID)
		}
		if c.PrevID != b.ID || c.NextID != models.NoID {
			t.Errorf("C links prev=%d next=%d", c.PrevID, c.NextID)
		}

		q := e.Queue()
		if q.FirstSongID != ids[0] || q.LastSongID != ids[2] || q.CurrentSongID != ids[0] || q.TotalSongs != 3 {
			t.Errorf("unexpected queue %+v", q)
		}
		assertConsistent(t, e, store)
	})

	t.Run("invalid input writes nothing", func(t *testing.T) {
		e, store := newEngine(t)

		if _, err := e.AddSong(ctx, models.SongInput{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n, _ := store.Songs.Count(ctx); n != 0 {
			t.Errorf("expected no songs, got %d", n)
		}
		if len(e.GetAllSongs()) != 0 {
			t.Error("expected empty projection")
		}
	})

	t.Run("AddSongs links a batch in order", func(t *testing.T) {
		e, store := newEngine(t)
		first := addAll(t, e, "A")

		ids, err := e.AddSongs(ctx, tu.SongInputs(4))
		if err != nil {
			t.Fatalf("failed to add songs: %v", err)
		}
		if len(ids) != 4 {
			t.Fatalf("expected 4 ids, got %v", ids)
		}

		want := append(first, ids...)
		if got := orderIDs(e); !slices.Equal(got, want) {
			t.Errorf("expected order %v, got %v", want, got)
		}
		if e.Queue().TotalSongs != 5 {
			t.Errorf("expected 5 songs, got %d", e.Queue().TotalSongs)
		}
		assertConsistent(t, e, store)
	})

	t.Run("AddSongs rejects the whole batch", func(t *testing.T) {
		e, store := newEngine(t)

		inputs := append(tu.SongInputs(2), models.SongInput{})
		if _, err := e.AddSongs(ctx, inputs); err == nil {
			t.Fatal("expected validation error")
		}
		if n, _ := store.Songs.Count(ctx); n != 0 {
			t.Errorf("expected no songs, got %d", n)
		}
	})

	t.Run("adding after emptying the queue", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A")
		if _, err := e.RemoveSong(ctx, ids[0]); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}

		next := addAll(t, e, "B")
		q := e.Queue()
		if q.FirstSongID != next[0] || q.LastSongID != next[0] || q.CurrentSongID != next[0] || q.TotalSongs != 1 {
			t.Errorf("unexpected queue %+v", q)
		}
		assertConsistent(t, e, store)
	})
}

func TestEngine_RemoveSong(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name        string
		remove      int // index into [A B C]
		current     int // index of current before removal
		wantOrder   []int
		wantCurrent int // -1 for none
	}{
		{name: "middle", remove: 1, current: 0, wantOrder: []int{0, 2}, wantCurrent: 0},
		{name: "head", remove: 0, current: 2, wantOrder: []int{1, 2}, wantCurrent: 2},
		{name: "tail", remove: 2, current: 0, wantOrder: []int{0, 1}, wantCurrent: 0},
		{name: "current moves to next", remove: 1, current: 1, wantOrder: []int{0, 2}, wantCurrent: 2},
		{name: "current at tail moves to prev", remove: 2, current: 2, wantOrder: []int{0, 1}, wantCurrent: 1},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newEngine(t)
			ids := addAll(t, e, "A", "B", "C")
			e.SetCurrentSong(ids[tt.current])

			removed, err := e.RemoveSong(ctx, ids[tt.remove])
			if err != nil || !removed {
				t.Fatalf("RemoveSong() = %v, %v", removed, err)
			}

			var want []int64
			for _, i := range tt.wantOrder {
				want = append(want, ids[i])
			}
			if got := orderIDs(e); !slices.Equal(got, want) {
				t.Errorf("expected order %v, got %v", want, got)
			}

			wantCurrent := models.NoID
			if tt.wantCurrent >= 0 {
				wantCurrent = ids[tt.wantCurrent]
			}
			if got := e.Queue().CurrentSongID; got != wantCurrent {
				t.Errorf("expected current %d, got %d", wantCurrent, got)
			}
			if stored, _ := store.Queue.Get(ctx); stored.CurrentSongID != wantCurrent {
				t.Errorf("expected stored current %d, got %d", wantCurrent, stored.CurrentSongID)
			}
			if e.Song(ids[tt.remove]) != nil {
				t.Error("removed song still in projection")
			}
			assertConsistent(t, e, store)
		})
	}

	t.Run("only song empties the queue", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A")

		if _, err := e.RemoveSong(ctx, ids[0]); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}

		q, err := store.Queue.Get(ctx)
		if err != nil {
			t.Fatalf("expected queue row to remain: %v", err)
		}
		if !q.IsEmpty() || q.LastSongID != models.NoID || q.CurrentSongID != models.NoID || q.TotalSongs != 0 {
			t.Errorf("expected empty queue, got %+v", q)
		}
		if e.GetNextSong() != nil || e.GetPreviousSong() != nil || e.GetCurrentSong() != nil {
			t.Error("expected no navigation on an empty queue")
		}
		assertConsistent(t, e, store)
	})

	t.Run("missing song is a no-op", func(t *testing.T) {
		e, store := newEngine(t)
		addAll(t, e, "A")

		removed, err := e.RemoveSong(ctx, 999)
		if err != nil || removed {
			t.Errorf("RemoveSong() = %v, %v", removed, err)
		}
		assertConsistent(t, e, store)
	})

	t.Run("missing queue row is a no-op", func(t *testing.T) {
		e, store := newEngine(t)

		s := models.NewSong(tu.SongInput("orphan"))
		id, _ := store.Songs.Add(ctx, &s)

		removed, err := e.RemoveSong(ctx, id)
		if err != nil || removed {
			t.Errorf("RemoveSong() = %v, %v", removed, err)
		}
		if ok, _ := store.Songs.Exists(ctx, id); !ok {
			t.Error("song should not be deleted without a queue")
		}
	})

	t.Run("count never goes below zero", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B")

		q, _ := store.Queue.Get(ctx)
		q.TotalSongs = 0
		store.Queue.Put(ctx, q)

		for _, id := range ids {
			if _, err := e.RemoveSong(ctx, id); err != nil {
				t.Fatalf("failed to remove: %v", err)
			}
		}
		if got, _ := store.Queue.Get(ctx); got.TotalSongs != 0 {
			t.Errorf("expected 0, got %d", got.TotalSongs)
		}
	})
}

func TestEngine_Navigation(t *testing.T) {
	t.Run("next and previous wrap", func(t *testing.T) {
		e, _ := newEngine(t)
		ids := addAll(t, e, "A", "B", "C")

		e.SetCurrentSong(ids[0])
		if got := e.GetNextSong(); got == nil || got.ID != ids[1] {
			t.Errorf("expected B after A, got %v", got)
		}
		if got := e.GetPreviousSong(); got == nil || got.ID != ids[2] {
			t.Errorf("expected wrap to C before A, got %v", got)
		}

		e.SetCurrentSong(ids[2])
		if got := e.GetNextSong(); got == nil || got.ID != ids[0] {
			t.Errorf("expected wrap to A after C, got %v", got)
		}
		if got := e.GetPreviousSong(); got == nil || got.ID != ids[1] {
			t.Errorf("expected B before C, got %v", got)
		}
	})

	t.Run("navigation follows the chain after removals", func(t *testing.T) {
		e, _ := newEngine(t)
		ids := addAll(t, e, "A", "B", "C", "D")
		if _, err := e.RemoveSong(context.Background(), ids[1]); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}

		e.SetCurrentSong(ids[0])
		if got := e.GetNextSong(); got == nil || got.ID != ids[2] {
			t.Errorf("expected C after A, got %v", got)
		}
		e.SetCurrentSong(ids[2])
		if got := e.GetPreviousSong(); got == nil || got.ID != ids[0] {
			t.Errorf("expected A before C, got %v", got)
		}
	})

	t.Run("single song wraps to itself", func(t *testing.T) {
		e, _ := newEngine(t)
		ids := addAll(t, e, "solo")

		if got := e.GetNextSong(); got == nil || got.ID != ids[0] {
			t.Errorf("expected itself, got %v", got)
		}
		if got := e.GetPreviousSong(); got == nil || got.ID != ids[0] {
			t.Errorf("expected itself, got %v", got)
		}
	})

	t.Run("empty or unknown current", func(t *testing.T) {
		e, _ := newEngine(t)
		if e.GetNextSong() != nil || e.GetPreviousSong() != nil {
			t.Error("expected nil on empty queue")
		}

		addAll(t, e, "A")
		e.SetCurrentSong(404)
		if e.GetNextSong() != nil || e.GetPreviousSong() != nil || e.GetCurrentSong() != nil {
			t.Error("expected nil for an unknown current song")
		}

		e.SetCurrentSong(models.NoID)
		if e.GetNextSong() != nil {
			t.Error("expected nil without a current song")
		}
	})
}

func TestEngine_CurrentSong(t *testing.T) {
	ctx := context.Background()

	t.Run("SetCurrentSong is not persisted", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B")

		e.SetCurrentSong(ids[1])
		if got := e.GetCurrentSong(); got == nil || got.ID != ids[1] {
			t.Errorf("expected current B, got %v", got)
		}
		if q, _ := store.Queue.Get(ctx); q.CurrentSongID != ids[0] {
			t.Errorf("expected stored current A, got %d", q.CurrentSongID)
		}
	})

	t.Run("next mutation carries the current song", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B")

		e.SetCurrentSong(ids[1])
		addAll(t, e, "C")

		if got := e.Queue().CurrentSongID; got != ids[1] {
			t.Errorf("expected projection current B, got %d", got)
		}
		if q, _ := store.Queue.Get(ctx); q.CurrentSongID != ids[1] {
			t.Errorf("expected stored current B, got %d", q.CurrentSongID)
		}
	})

	t.Run("SaveCurrentSong", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B")

		e.SetCurrentSong(ids[1])
		if err := e.SaveCurrentSong(ctx); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if q, _ := store.Queue.Get(ctx); q.CurrentSongID != ids[1] {
			t.Errorf("expected stored current B, got %d", q.CurrentSongID)
		}

		e.SetCurrentSong(404)
		if err := e.SaveCurrentSong(ctx); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("SaveCurrentSong without a queue", func(t *testing.T) {
		e, store := newEngine(t)
		if err := e.SaveCurrentSong(ctx); err != nil {
			t.Fatalf("expected no-op, got %v", err)
		}
		if _, err := store.Queue.Get(ctx); !errors.Is(err, shared.ErrQueueNotFound) {
			t.Errorf("expected no queue row, got %v", err)
		}
	})
}

func TestEngine_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("missing queue row is synthesized in memory only", func(t *testing.T) {
		e, store := newEngine(t)

		if !e.Queue().IsEmpty() || e.Queue().TotalSongs != 0 {
			t.Errorf("expected empty queue, got %+v", e.Queue())
		}
		if _, err := store.Queue.Get(ctx); !errors.Is(err, shared.ErrQueueNotFound) {
			t.Errorf("expected no persisted row, got %v", err)
		}
	})

	t.Run("reload restores songs and queue", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B", "C")

		reloaded := NewEngine(store, projection.New())
		if err := reloaded.Initialize(ctx); err != nil {
			t.Fatalf("failed to initialize: %v", err)
		}
		if got := orderIDs(reloaded); !slices.Equal(got, ids) {
			t.Errorf("expected %v, got %v", ids, got)
		}
		if got := reloaded.GetCurrentSong(); got == nil || got.ID != ids[0] {
			t.Errorf("expected current A, got %v", got)
		}
	})

	corrupt := func(t *testing.T, store *repositories.Store, ids []int64) {
		t.Helper()
		// B's next points back at A.
		if err := store.Songs.SetLinks(ctx, ids[1], ids[0], ids[0]); err != nil {
			t.Fatalf("failed to corrupt links: %v", err)
		}
	}

	t.Run("repairs on load", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B", "C")
		corrupt(t, store, ids)

		reloaded := NewEngine(store, projection.New(), WithRepairOnLoad(true))
		if err := reloaded.Initialize(ctx); err != nil {
			t.Fatalf("failed to initialize: %v", err)
		}
		if got := orderIDs(reloaded); !slices.Equal(got, ids) {
			t.Errorf("expected repaired order %v, got %v", ids, got)
		}
		assertConsistent(t, reloaded, store)
	})

	t.Run("loads as is without repair", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B", "C")
		corrupt(t, store, ids)

		reloaded := NewEngine(store, projection.New())
		if err := reloaded.Initialize(ctx); err != nil {
			t.Fatalf("failed to initialize: %v", err)
		}

		report, err := reloaded.Verify(ctx)
		if err != nil {
			t.Fatalf("failed to verify: %v", err)
		}
		if !report.Has(Cycle) {
			t.Errorf("expected a cycle, got %v", report.Issues)
		}

		if _, err := reloaded.Repair(ctx); err != nil {
			t.Fatalf("failed to repair: %v", err)
		}
		assertConsistent(t, reloaded, store)
	})

	t.Run("Repair on a clean queue changes nothing", func(t *testing.T) {
		e, store := newEngine(t)
		ids := addAll(t, e, "A", "B")

		report, err := e.Repair(ctx)
		if err != nil || !report.OK() {
			t.Fatalf("Repair() = %v, %v", report, err)
		}
		if got := orderIDs(e); !slices.Equal(got, ids) {
			t.Errorf("expected %v, got %v", ids, got)
		}
		assertConsistent(t, e, store)
	})
}

func TestEngine_Projection(t *testing.T) {
	t.Run("search and filter", func(t *testing.T) {
		e, _ := newEngine(t)
		e.AddSong(context.Background(), models.SongInput{Title: "Blue in Green", Artist: "Miles Davis", Album: "Kind of Blue"})
		e.AddSong(context.Background(), models.SongInput{Title: "Naima", Artist: "John Coltrane", Album: "Giant Steps"})

		if got := e.GetFilteredSongs(); len(got) != 2 {
			t.Errorf("expected all songs with empty query, got %d", len(got))
		}

		e.SetSearchQuery("BLUE")
		if got := e.GetFilteredSongs(); len(got) != 1 || got[0].Title != "Blue in Green" {
			t.Errorf("unexpected filter result %v", got)
		}
		if got := e.SearchSongs("coltrane"); len(got) != 1 || got[0].Title != "Naima" {
			t.Errorf("unexpected search result %v", got)
		}
		if got := e.GetFilteredSongs(); len(got) != 1 {
			t.Error("SearchSongs should not change the stored query")
		}
	})

	t.Run("playing flag", func(t *testing.T) {
		e, _ := newEngine(t)
		e.SetPlaying(true)
		if !e.IsPlaying() {
			t.Error("expected playing")
		}
	})

	t.Run("one notification per committed mutation", func(t *testing.T) {
		e, _ := newEngine(t)

		var totals []int
		unsubscribe := e.Subscribe(func(s projection.State) { totals = append(totals, s.Queue().TotalSongs) })
		defer unsubscribe()

		ids := addAll(t, e, "A", "B")
		e.RemoveSong(context.Background(), ids[0])
		e.RemoveSong(context.Background(), 999)

		if !slices.Equal(totals, []int{0, 1, 2, 1}) {
			t.Errorf("unexpected notifications %v", totals)
		}
	})

	t.Run("subscribers read committed state", func(t *testing.T) {
		e, _ := newEngine(t)

		var seen []int
		unsubscribe := e.Subscribe(func(projection.State) { seen = append(seen, len(e.GetAllSongs())) })
		defer unsubscribe()

		addAll(t, e, "A", "B")
		if !slices.Equal(seen, []int{0, 1, 2}) {
			t.Errorf("unexpected reads %v", seen)
		}
	})

	t.Run("watchers may mutate the engine", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		e, _ := newEngine(t)

		done := make(chan error, 1)
		go func() {
			for s := range e.Watch(ctx) {
				if s.Queue().TotalSongs == 1 {
					_, err := e.AddSong(ctx, tu.SongInput("B"))
					done <- err
					return
				}
			}
		}()

		addAll(t, e, "A")
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("add from watcher failed: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not react")
		}
		if got := e.Queue().TotalSongs; got != 2 {
			t.Errorf("expected 2 songs, got %d", got)
		}
	})
}

func TestEngine_Concurrency(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.AddSong(ctx, tu.SongInput(string(rune('a'+i)))); err != nil {
				t.Errorf("failed to add: %v", err)
			}
		}()
	}
	wg.Wait()

	if e.Queue().TotalSongs != 20 {
		t.Errorf("expected 20 songs, got %d", e.Queue().TotalSongs)
	}
	assertConsistent(t, e, store)
}

func TestEngine_RandomOperations(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)
	rng := rand.New(rand.NewPCG(7, 11))

	var live []int64
	for step := range 120 {
		switch op := rng.IntN(10); {
		case op < 6 || len(live) == 0:
			id, err := e.AddSong(ctx, tu.SongInput("s"))
			if err != nil {
				t.Fatalf("step %d: add failed: %v", step, err)
			}
			live = append(live, id)
		case op < 9:
			i := rng.IntN(len(live))
			if _, err := e.RemoveSong(ctx, live[i]); err != nil {
				t.Fatalf("step %d: remove failed: %v", step, err)
			}
			live = slices.Delete(live, i, i+1)
		default:
			e.SetCurrentSong(live[rng.IntN(len(live))])
		}

		assertConsistent(t, e, store)
		if got := orderIDs(e); !slices.Equal(got, live) {
			t.Fatalf("step %d: expected order %v, got %v", step, live, got)
		}
	}
}
