package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	play      key.Binding
	next      key.Binding
	prev      key.Binding
	toggle    key.Binding
	remove    key.Binding
	search    key.Binding
	playlists key.Binding
	verify    key.Binding
	back      key.Binding
	yes       key.Binding
	no        key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		play:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		next:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		playlists: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "playlists")),
		verify:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verify")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.next, k.prev, k.search, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play},
		{k.next, k.prev, k.toggle},
		{k.remove, k.search, k.verify},
		{k.playlists, k.back, k.quit},
	}
}
