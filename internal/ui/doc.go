// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a live view of the library with three views:
//  1. [QueueView] : the global queue in list order, with the current song highlighted
//  2. [PlaylistListView] : every playlist and its size
//  3. [PlaylistSongsView] : the songs of one playlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Library and playlist changes arrive through the engines' watch channels, so the lists
// are rebuilt from the committed state after every mutation rather than patched in place.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, n/p, /, esc, q) with contextual help
// displayed via charmbracelet/bubbles/help. Searching uses a bubbles text input and filters the
// queue through the engine's stored search query.
package ui
