// Package projection holds the in-memory, observable mirror of the library.
//
// The queue and playlist engines write to storage first and then publish the committed
// result here. Readers (the HTTP API, the TUI, the CLI) only ever read the projection.
//
// [Observable] is a small generic publish/subscribe cell. [State] is an immutable
// snapshot of songs, the queue row, the playing flag and the search query; every change
// produces a new State. [Projection] wraps an Observable[State] and memoizes the filtered
// song list on (song revision, query).
package projection
