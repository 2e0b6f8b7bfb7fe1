package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/playlists"
	"github.com/nix24/phoenixPlayer/internal/projection"
	"github.com/nix24/phoenixPlayer/internal/queue"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	PlaylistListView
	PlaylistSongsView
	ConfirmView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	queue     *queue.Engine
	playlists *playlists.Engine
	logger    *log.Logger

	library <-chan projection.State
	lists   <-chan []models.Playlist

	state        projection.State
	playlistData []models.Playlist
	selected     string // playlist shown in PlaylistSongsView
	pending      *models.Song

	songList     list.Model
	playlistList list.Model
	detailList   list.Model
	search       textinput.Model
	searching    bool

	width  int
	height int
	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model over initialized engines. The model follows both engines until ctx is done.
func NewModel(ctx context.Context, q *queue.Engine, p *playlists.Engine, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	search := textinput.New()
	search.Placeholder = "title, artist or album"
	search.Prompt = "/ "
	search.CharLimit = 120

	return &Model{
		ctx:          ctx,
		view:         QueueView,
		queue:        q,
		playlists:    p,
		logger:       logger,
		library:      q.Watch(ctx),
		lists:        p.Watch(ctx),
		songList:     newList("Queue"),
		playlistList: newList("Playlists"),
		detailList:   newList(""),
		search:       search,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

// Init starts listening for library and playlist changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForLibrary(), m.waitForPlaylists(), textinput.Blink)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.songList, &m.playlistList, &m.detailList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		switch m.view {
		case QueueView:
			return m.handleQueueKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case PlaylistSongsView:
			return m.handlePlaylistSongsKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLibraryChanged:
		m.state = msg.data.(projection.State)
		m.refreshSongs()
		if m.view == PlaylistSongsView {
			m.refreshDetail()
		}
		return m, m.waitForLibrary()

	case MsgPlaylistsChanged:
		m.playlistData = msg.data.([]models.Playlist)
		m.playlistList.SetItems(playlistItems(m.playlistData))
		if m.view == PlaylistSongsView {
			if m.playlists.Playlist(m.selected) == nil {
				m.view = PlaylistListView
			} else {
				m.refreshDetail()
			}
		}
		return m, m.waitForPlaylists()

	case MsgActionDone:
		res := msg.data.(actionResult)
		m.status, m.err = res.status, res.err
		if res.err != nil {
			m.logger.Error("action failed", "error", res.err)
		}
		return m, nil

	case MsgStreamClosed:
		return m, tea.Quit
	}
	return m, nil
}

// refreshSongs rebuilds the queue list: queue order normally, storage order filtered by the query while searching.
func (m *Model) refreshSongs() {
	songs := queue.Walk(m.state.Queue(), m.state.Song)
	title := fmt.Sprintf("Queue • %d songs", m.state.Len())
	if q := m.state.Query(); q != "" {
		songs = m.queue.GetFilteredSongs()
		title = fmt.Sprintf("Search %q • %d of %d", q, len(songs), m.state.Len())
	}
	m.songList.Title = title
	m.songList.SetItems(songItems(songs, m.state.Queue().CurrentSongID, m.state.Playing()))
}

func (m *Model) refreshDetail() {
	p := m.playlists.Playlist(m.selected)
	if p == nil {
		return
	}
	m.detailList.Title = p.Name
	m.detailList.SetItems(songItems(m.playlists.PlaylistSongs(p.ID), m.state.Queue().CurrentSongID, m.state.Playing()))
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.play):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			return m, m.playSong(item.song.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.skip(m.queue.GetNextSong)
	case key.Matches(msg, m.keys.prev):
		return m, m.skip(m.queue.GetPreviousSong)
	case key.Matches(msg, m.keys.toggle):
		m.queue.SetPlaying(!m.queue.IsPlaying())
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			song := item.song
			m.pending = &song
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.SetValue(m.state.Query())
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.back):
		if m.state.Query() != "" {
			m.queue.SetSearchQuery("")
		}
		return m, nil
	case key.Matches(msg, m.keys.verify):
		return m, m.verify()
	case key.Matches(msg, m.keys.playlists):
		m.view = PlaylistListView
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

// handleSearchKeys applies the query as it is typed so the list narrows live.
func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.queue.SetSearchQuery("")
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.queue.SetSearchQuery(strings.TrimSpace(m.search.Value()))
	return m, cmd
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.playlists):
		m.view = QueueView
		return m, nil
	case key.Matches(msg, m.keys.play):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected = item.playlist.ID
			m.refreshDetail()
			m.view = PlaylistSongsView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistSongsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.play):
		if item, ok := m.detailList.SelectedItem().(songItem); ok {
			return m, m.playSong(item.song.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.detailList.SelectedItem().(songItem); ok {
			return m, m.removeFromPlaylist(m.selected, item.song)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailList, cmd = m.detailList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		song := m.pending
		m.pending = nil
		m.view = QueueView
		if song != nil {
			return m, m.removeSong(*song)
		}
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = QueueView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case QueueView:
		m.songList, cmd = m.songList.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case PlaylistSongsView:
		m.detailList, cmd = m.detailList.Update(msg)
	}
	if m.searching {
		var inputCmd tea.Cmd
		m.search, inputCmd = m.search.Update(msg)
		cmd = tea.Batch(cmd, inputCmd)
	}
	return m, cmd
}

func (m *Model) waitForLibrary() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.library
		if !ok {
			return streamClosedMsg()
		}
		return libraryChangedMsg(s)
	}
}

func (m *Model) waitForPlaylists() tea.Cmd {
	return func() tea.Msg {
		l, ok := <-m.lists
		if !ok {
			return streamClosedMsg()
		}
		return playlistsChangedMsg(l)
	}
}

func (m *Model) playSong(id int64) tea.Cmd {
	return func() tea.Msg {
		m.queue.SetCurrentSong(id)
		m.queue.SetPlaying(true)
		if err := m.queue.SaveCurrentSong(m.ctx); err != nil {
			return actionDoneMsg("", err)
		}
		if s := m.queue.Song(id); s != nil {
			return actionDoneMsg("Playing "+s.String(), nil)
		}
		return actionDoneMsg("", nil)
	}
}

func (m *Model) skip(pick func() *models.Song) tea.Cmd {
	song := pick()
	if song == nil {
		m.status = "Nothing to play"
		return nil
	}
	return m.playSong(song.ID)
}

func (m *Model) removeSong(song models.Song) tea.Cmd {
	return func() tea.Msg {
		removed, err := m.queue.RemoveSong(m.ctx, song.ID)
		switch {
		case err != nil:
			return actionDoneMsg("", err)
		case !removed:
			return actionDoneMsg(fmt.Sprintf("%s was already gone", song.Title), nil)
		}
		return actionDoneMsg("Removed "+song.String(), nil)
	}
}

func (m *Model) removeFromPlaylist(id string, song models.Song) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.playlists.RemoveSongFromPlaylist(m.ctx, id, song.ID); err != nil {
			return actionDoneMsg("", err)
		}
		return actionDoneMsg("Removed "+song.Title+" from playlist", nil)
	}
}

func (m *Model) verify() tea.Cmd {
	return func() tea.Msg {
		report, err := m.queue.Verify(m.ctx)
		if err != nil {
			return actionDoneMsg("", err)
		}
		if report.OK() {
			return actionDoneMsg(fmt.Sprintf("Queue OK • %d/%d songs linked", report.Reachable, report.Total), nil)
		}
		return actionDoneMsg("", report.Err())
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case QueueView:
		body = m.renderQueue()
	case PlaylistListView:
		body = m.renderList(m.playlistList, m.keys.play, m.keys.back, m.keys.quit)
	case PlaylistSongsView:
		body = m.renderList(m.detailList, m.keys.play, m.keys.remove, m.keys.back, m.keys.quit)
	case ConfirmView:
		body = m.renderConfirm()
	}
	return body + "\n" + m.renderStatus()
}

func (m *Model) renderQueue() string {
	header := styles.header.Render(m.nowPlaying())
	var search string
	if m.searching {
		search = "\n" + m.search.View()
	}
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s%s\n\n%s\n\n%s", header, search, m.songList.View(), helpView)
}

func (m *Model) nowPlaying() string {
	cur, ok := m.state.Current()
	if !ok {
		return "Nothing playing"
	}
	state := "Paused"
	if m.state.Playing() {
		state = "Playing"
	}
	return fmt.Sprintf("%s: %s (%s)", state, cur.String(), shared.FormatClock(cur.Duration))
}

func (m *Model) renderList(l list.Model, bindings ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(bindings))
}

func (m *Model) renderConfirm() string {
	if m.pending == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Remove '%s' from the library?", m.pending.Title))
	info := styles.warn.Render("It is unlinked from the queue and deleted. Playlists keep their entry.")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderStatus() string {
	switch {
	case m.err != nil:
		return styles.err.Render("Error: " + m.err.Error())
	case m.status != "":
		return styles.ok.Render(m.status)
	default:
		return styles.help.Render("tab: playlists • v: verify queue")
	}
}
