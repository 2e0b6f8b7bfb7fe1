package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nix24/phoenixPlayer/internal/playlists"
	"github.com/nix24/phoenixPlayer/internal/projection"
	"github.com/nix24/phoenixPlayer/internal/queue"
	tu "github.com/nix24/phoenixPlayer/internal/testing"
)

func setup(t *testing.T, songs int) (*Model, *queue.Engine, []int64) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := tu.NewTestStore(t)
	view := projection.New()
	q := queue.NewEngine(store, view)
	if err := q.Initialize(ctx); err != nil {
		t.Fatalf("failed to initialize queue: %v", err)
	}
	ids, err := q.AddSongs(ctx, tu.SongInputs(songs))
	if err != nil {
		t.Fatalf("failed to add songs: %v", err)
	}
	p := playlists.NewEngine(store, view, nil)
	if err := p.LoadPlaylists(ctx); err != nil {
		t.Fatalf("failed to load playlists: %v", err)
	}

	m := NewModel(ctx, q, p, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(libraryChangedMsg(view.State()))
	return m, q, ids
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_QueueView(t *testing.T) {
	m, q, ids := setup(t, 3)

	if n := len(m.songList.Items()); n != 3 {
		t.Fatalf("queue list has %d items, want 3", n)
	}
	if !strings.Contains(m.View(), "song 1") {
		t.Error("view should show the current song")
	}

	_, cmd := m.Update(press("n"))
	run(t, m, cmd)

	if got := q.Queue().CurrentSongID; got != ids[1] {
		t.Errorf("current = %d, want %d", got, ids[1])
	}
	if !q.IsPlaying() {
		t.Error("skipping should start playback")
	}
	if !strings.Contains(m.status, "song 2") {
		t.Errorf("status = %q, want it to name song 2", m.status)
	}
}

func TestModel_Search(t *testing.T) {
	m, q, _ := setup(t, 12)

	m.Update(press("/"))
	if !m.searching {
		t.Fatal("expected search mode")
	}
	m.Update(press("1"))
	m.Update(press("1"))
	if got := q.Projection().State().Query(); got != "11" {
		t.Fatalf("query = %q, want 11", got)
	}

	m.Update(libraryChangedMsg(q.Projection().State()))
	if n := len(m.songList.Items()); n != 1 {
		t.Errorf("filtered list has %d items, want 1", n)
	}

	m.Update(press("esc"))
	if m.searching || q.Projection().State().Query() != "" {
		t.Error("esc should leave search mode and clear the query")
	}
}

func TestModel_RemoveSong(t *testing.T) {
	m, q, ids := setup(t, 2)

	m.Update(press("d"))
	if m.view != ConfirmView || m.pending == nil {
		t.Fatalf("expected confirm view, got %v", m.view)
	}

	_, cmd := m.Update(press("y"))
	run(t, m, cmd)

	if q.Song(ids[0]) != nil {
		t.Error("song should be removed")
	}
	if m.view != QueueView {
		t.Errorf("view = %v, want queue view", m.view)
	}
}

func TestModel_Playlists(t *testing.T) {
	m, _, ids := setup(t, 2)

	if _, err := m.playlists.AddPlaylist(context.Background(), "Mix", ids...); err != nil {
		t.Fatalf("failed to add playlist: %v", err)
	}
	m.Update(playlistsChangedMsg(m.playlists.Playlists()))

	m.Update(press("tab"))
	if m.view != PlaylistListView {
		t.Fatalf("view = %v, want playlist list", m.view)
	}

	m.Update(press("enter"))
	if m.view != PlaylistSongsView {
		t.Fatalf("view = %v, want playlist songs", m.view)
	}
	if n := len(m.detailList.Items()); n != 2 {
		t.Errorf("playlist shows %d songs, want 2", n)
	}

	m.Update(press("esc"))
	if m.view != PlaylistListView {
		t.Errorf("esc should go back to the playlist list, got %v", m.view)
	}
}
