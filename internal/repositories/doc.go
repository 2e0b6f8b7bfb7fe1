// Package repositories implements SQLite persistence for the music library.
//
// It is the transactional key/table store the queue and playlist engines are built on:
//   - [SongRepository] : songs table, including the prev/next queue links (get, put, add, bulk add, delete, list)
//   - [QueueRepository] : the singleton global_queue row
//   - [PlaylistRepository] : playlists with soft deletes and an ordered song id list per row
//
// Repositories run against a [DBTX], so the same code serves plain connections and transactions.
// [Store.Transaction] runs a body atomically across all three tables; SQLite immediate transactions
// serialize writers, and bodies that hit SQLITE_BUSY are retried with exponential backoff.
//
// Sequence numbers give playlists a stable creation order independent of their UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
