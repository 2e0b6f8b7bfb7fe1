package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/playlists"
	"github.com/nix24/phoenixPlayer/internal/projection"
	"github.com/nix24/phoenixPlayer/internal/queue"
)

// Event names shared by the SSE stream and the websocket.
const (
	EventLibrary   = "library"
	EventPlaylists = "playlists"
)

const (
	keepAliveInterval = 25 * time.Second
	writeWait         = 10 * time.Second
)

// Snapshot is the library state pushed to live clients.
type Snapshot struct {
	Revision uint64             `json:"revision"`
	Queue    models.GlobalQueue `json:"queue"`
	Current  *models.Song       `json:"current"`
	Playing  bool               `json:"playing"`
	Songs    []models.Song      `json:"songs"` // queue order
}

// NewSnapshot renders a projection state for clients.
func NewSnapshot(s projection.State) Snapshot {
	snap := Snapshot{
		Revision: s.Revision(),
		Queue:    s.Queue(),
		Playing:  s.Playing(),
		Songs:    queue.Walk(s.Queue(), s.Song),
	}
	if cur, ok := s.Current(); ok {
		snap.Current = &cur
	}
	return snap
}

// Message is one websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// feed merges the library and playlist watch channels until ctx is done or either closes.
// send is called for every value; a send error stops the feed.
func feed(ctx context.Context, q *queue.Engine, p *playlists.Engine, tick <-chan time.Time, send func(Message) error, ping func() error) error {
	library := q.Watch(ctx)
	lists := p.Watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-library:
			if !ok {
				return nil
			}
			if err := send(Message{Type: EventLibrary, Data: NewSnapshot(s)}); err != nil {
				return err
			}
		case l, ok := <-lists:
			if !ok {
				return nil
			}
			if err := send(Message{Type: EventPlaylists, Data: l}); err != nil {
				return err
			}
		case <-tick:
			if err := ping(); err != nil {
				return err
			}
		}
	}
}

// EventStream serves library changes as Server-Sent Events.
type EventStream struct {
	queue     *queue.Engine
	playlists *playlists.Engine
	logger    *log.Logger
	keepAlive time.Duration
}

// NewEventStream creates an [EventStream] handler.
func NewEventStream(q *queue.Engine, p *playlists.Engine, logger *log.Logger) *EventStream {
	return &EventStream{queue: q, playlists: p, logger: logger, keepAlive: keepAliveInterval}
}

// Routes returns the HTTP routes this handler serves.
func (h *EventStream) Routes() []string {
	return []string{"GET /api/events"}
}

// ServeHTTP streams "library" and "playlists" events, starting with the current state of each.
func (h *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error("event stream unsupported", "error", err)
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	send := func(m Message) error {
		data, err := json.Marshal(m.Data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Type, data); err != nil {
			return err
		}
		return rc.Flush()
	}
	ping := func() error {
		if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := feed(r.Context(), h.queue, h.playlists, ticker.C, send, ping); err != nil {
		h.logger.Debug("event stream closed", "error", err)
	}
}

// Socket pushes the same events as [EventStream] over a websocket as JSON [Message] frames.
//
// Frames from the client are read only to notice the connection closing.
type Socket struct {
	queue     *queue.Engine
	playlists *playlists.Engine
	logger    *log.Logger
	upgrader  websocket.Upgrader
	keepAlive time.Duration
}

// NewSocket creates a [Socket] handler. Browsers from origins outside origins are refused
// unless origins contains "*". An empty list keeps the same-origin check.
func NewSocket(q *queue.Engine, p *playlists.Engine, origins []string, logger *log.Logger) *Socket {
	s := &Socket{
		queue:     q,
		playlists: p,
		logger:    logger,
		keepAlive: keepAliveInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	if len(origins) > 0 {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		}
	}
	return s
}

// Routes returns the HTTP routes this handler serves.
func (h *Socket) Routes() []string {
	return []string{"GET /api/ws"}
}

// ServeHTTP upgrades the connection and pushes events until either side closes.
func (h *Socket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	send := func(m Message) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(m)
	}
	ping := func() error {
		return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	}

	if err := feed(ctx, h.queue, h.playlists, ticker.C, send, ping); err != nil {
		h.logger.Debug("websocket closed", "error", err)
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
