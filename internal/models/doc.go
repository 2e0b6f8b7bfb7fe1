// Package models defines domain entities and persistence interfaces for the phoenix music library.
//
// The package contains:
//   - [Song] : a library song, also a node in the global queue's doubly-linked list (PrevID/NextID)
//   - [SongInput] : the caller-supplied fields of a song, before storage assigns an id and links
//   - [GlobalQueue] : the singleton row describing the queue (first/last/current pointers and count)
//   - [Playlist] : a named, ordered list of song ids that does not own the songs it references
//
// Identifiers of zero mean "none": SQLite AUTOINCREMENT never assigns 0, so a zero PrevID, NextID or
// queue pointer is persisted as NULL.
package models
