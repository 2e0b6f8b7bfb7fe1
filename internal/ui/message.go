package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/projection"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLibraryChanged MsgKind = iota
	MsgPlaylistsChanged
	MsgActionDone
	MsgStreamClosed
)

// actionResult is the payload of [MsgActionDone].
type actionResult struct {
	status string
	err    error
}

// libraryChangedMsg is the constructor for [MsgLibraryChanged]
func libraryChangedMsg(s projection.State) Msg {
	return Msg{kind: MsgLibraryChanged, data: s}
}

// playlistsChangedMsg is the constructor for [MsgPlaylistsChanged]
func playlistsChangedMsg(playlists []models.Playlist) Msg {
	return Msg{kind: MsgPlaylistsChanged, data: playlists}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(status string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{status: status, err: err}}
}

// streamClosedMsg is the constructor for [MsgStreamClosed]
func streamClosedMsg() Msg {
	return Msg{kind: MsgStreamClosed}
}
