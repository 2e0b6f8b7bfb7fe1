// Package tasks runs long library operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Importer.Import] : Add songs from a manifest to the queue
//     - Parses CSV or JSON manifests ([ParseManifest])
//     - Skips rows that fail validation and reports them
//     - Appends the remaining songs in batches, one transaction per batch
//     - Batches can be paced with a rate limit
//
//  2. [Exporter.BulkExport] : Export many playlists at once
//     - Resolves each playlist to its songs
//     - Writes JSON, CSV, Markdown or text files from a worker pool
//     - Writes a manifest summarizing successes and failures
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
