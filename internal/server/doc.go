// Package server exposes the music library over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method-qualified patterns ("GET /api/songs/{id}") on an
// [http.ServeMux], so method mismatches get a 405 from the mux itself.
//
// # JSON API
//
// [API] maps songs, the global queue, and playlists onto REST-style routes under /api.
// Errors are reported as {"error": "..."} with the status chosen from the error kind:
// invalid input is 400, a missing song or playlist is 404, anything else is 500.
//
// # Live State
//
// Clients follow the library without polling through either of two [Handler] implementations:
//   - [EventStream] sends Server-Sent Events on /api/events
//   - [Socket] pushes the same snapshots over a WebSocket on /api/ws
//
// Both read from the projection's coalescing watch channels, so a slow client sees the latest
// state rather than every intermediate one.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
