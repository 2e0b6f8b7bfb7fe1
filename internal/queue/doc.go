// Package queue maintains the global play queue.
//
// Songs form a doubly-linked list through their PrevID/NextID fields; the singleton
// [models.GlobalQueue] row records the head, the tail, the current song and the song count.
// Every mutation rewrites the affected songs and the queue row in one storage transaction
// and then publishes the committed result to the [projection.Projection].
//
// Navigation ([Engine.GetNextSong], [Engine.GetPreviousSong]) follows the stored links in
// the projection and wraps around at either end. [Verify] checks the list against the queue
// row and [Rebuild] computes a consistent list when it does not hold.
package queue
