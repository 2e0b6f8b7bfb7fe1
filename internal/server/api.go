package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/playlists"
	"github.com/nix24/phoenixPlayer/internal/queue"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

const maxBodyBytes = 1 << 20

// API serves the JSON routes for songs, the queue, and playlists.
type API struct {
	queue     *queue.Engine
	playlists *playlists.Engine
	logger    *log.Logger
}

// NewAPI creates an [API] over initialized engines.
func NewAPI(q *queue.Engine, p *playlists.Engine, logger *log.Logger) *API {
	return &API{queue: q, playlists: p, logger: logger}
}

// Register adds every API route to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/api/songs", http.HandlerFunc(a.listSongs))
	r.Handle(http.MethodPost, "/api/songs", http.HandlerFunc(a.addSongs))
	r.Handle(http.MethodGet, "/api/songs/{id}", http.HandlerFunc(a.getSong))
	r.Handle(http.MethodDelete, "/api/songs/{id}", http.HandlerFunc(a.removeSong))

	r.Handle(http.MethodGet, "/api/queue", http.HandlerFunc(a.getQueue))
	r.Handle(http.MethodPost, "/api/queue/next", http.HandlerFunc(a.skip(a.queue.GetNextSong)))
	r.Handle(http.MethodPost, "/api/queue/previous", http.HandlerFunc(a.skip(a.queue.GetPreviousSong)))
	r.Handle(http.MethodPut, "/api/queue/current", http.HandlerFunc(a.setCurrent))
	r.Handle(http.MethodPut, "/api/queue/playing", http.HandlerFunc(a.setPlaying))
	r.Handle(http.MethodGet, "/api/queue/verify", http.HandlerFunc(a.verifyQueue))
	r.Handle(http.MethodPost, "/api/queue/repair", http.HandlerFunc(a.repairQueue))

	r.Handle(http.MethodGet, "/api/playlists", http.HandlerFunc(a.listPlaylists))
	r.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(a.createPlaylist))
	r.Handle(http.MethodGet, "/api/playlists/{id}", http.HandlerFunc(a.getPlaylist))
	r.Handle(http.MethodPatch, "/api/playlists/{id}", http.HandlerFunc(a.renamePlaylist))
	r.Handle(http.MethodDelete, "/api/playlists/{id}", http.HandlerFunc(a.deletePlaylist))
	r.Handle(http.MethodPost, "/api/playlists/{id}/songs", http.HandlerFunc(a.addPlaylistSong))
	r.Handle(http.MethodDelete, "/api/playlists/{id}/songs/{songID}", http.HandlerFunc(a.removePlaylistSong))
}

// QueueView is the body of GET /api/queue.
type QueueView struct {
	Queue   models.GlobalQueue `json:"queue"`
	Current *models.Song       `json:"current"`
	Playing bool               `json:"playing"`
	Songs   []models.Song      `json:"songs"`
}

// PlaylistView is a playlist with its entries resolved to songs.
type PlaylistView struct {
	models.Playlist
	Tracks []models.Song `json:"tracks"`
}

// listSongs returns songs in storage order; ?q= filters them and ?order=queue follows the queue.
func (a *API) listSongs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	switch {
	case query.Get("q") != "":
		writeJSON(w, http.StatusOK, a.queue.SearchSongs(query.Get("q")))
	case query.Get("order") == "queue":
		writeJSON(w, http.StatusOK, a.queue.Ordered())
	default:
		writeJSON(w, http.StatusOK, a.queue.GetAllSongs())
	}
}

// addSongs accepts one song object or an array of them and appends them to the queue.
func (a *API) addSongs(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	var inputs []models.SongInput
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &inputs)
	} else {
		var in models.SongInput
		err = json.Unmarshal(trimmed, &in)
		inputs = []models.SongInput{in}
	}
	if err != nil {
		a.writeError(w, fmt.Errorf("%w: malformed song body: %v", shared.ErrInvalidInput, err))
		return
	}

	ids, err := a.queue.AddSongs(r.Context(), inputs)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string][]int64{"ids": ids})
}

func (a *API) getSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r, "id")
	if err != nil {
		a.writeError(w, err)
		return
	}
	song := a.queue.Song(id)
	if song == nil {
		a.writeError(w, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// removeSong deletes a song from the library; ?purge=true also drops it from every playlist.
func (a *API) removeSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r, "id")
	if err != nil {
		a.writeError(w, err)
		return
	}
	removed, err := a.queue.RemoveSong(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !removed {
		a.writeError(w, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id))
		return
	}
	if r.URL.Query().Get("purge") == "true" {
		if _, err := a.playlists.PurgeSong(r.Context(), id); err != nil {
			a.writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, QueueView{
		Queue:   a.queue.Queue(),
		Current: a.queue.GetCurrentSong(),
		Playing: a.queue.IsPlaying(),
		Songs:   a.queue.Ordered(),
	})
}

// skip moves the current song to the one pick returns and saves it.
// An empty queue or a missing current song yields 204.
func (a *API) skip(pick func() *models.Song) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		song := pick()
		if song == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		a.queue.SetCurrentSong(song.ID)
		if err := a.queue.SaveCurrentSong(r.Context()); err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, song)
	}
}

func (a *API) setCurrent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SongID int64 `json:"song_id"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	if body.SongID != models.NoID && a.queue.Song(body.SongID) == nil {
		a.writeError(w, fmt.Errorf("%w: %d", shared.ErrSongNotFound, body.SongID))
		return
	}

	a.queue.SetCurrentSong(body.SongID)
	if err := a.queue.SaveCurrentSong(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.queue.Queue())
}

func (a *API) setPlaying(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Playing bool `json:"playing"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	a.queue.SetPlaying(body.Playing)
	writeJSON(w, http.StatusOK, map[string]bool{"playing": a.queue.IsPlaying()})
}

func (a *API) verifyQueue(w http.ResponseWriter, r *http.Request) {
	report, err := a.queue.Verify(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) repairQueue(w http.ResponseWriter, r *http.Request) {
	report, err := a.queue.Repair(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.playlists.Playlists())
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string  `json:"name"`
		Songs []int64 `json:"songs"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	p, err := a.playlists.AddPlaylist(r.Context(), body.Name, body.Songs...)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := a.playlists.Playlist(id)
	if p == nil {
		a.writeError(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, PlaylistView{Playlist: *p, Tracks: a.playlists.PlaylistSongs(id)})
}

func (a *API) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	a.playlistResult(w, r, func(id string) (bool, error) {
		return a.playlists.RenamePlaylist(r.Context(), id, body.Name)
	})
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := a.playlists.DeletePlaylist(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !deleted {
		a.writeError(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addPlaylistSong(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SongID int64 `json:"song_id"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		a.writeError(w, err)
		return
	}
	a.playlistResult(w, r, func(id string) (bool, error) {
		return a.playlists.AddSongToPlaylist(r.Context(), id, body.SongID)
	})
}

func (a *API) removePlaylistSong(w http.ResponseWriter, r *http.Request) {
	song, err := songID(r, "songID")
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.playlistResult(w, r, func(id string) (bool, error) {
		return a.playlists.RemoveSongFromPlaylist(r.Context(), id, song)
	})
}

// playlistResult runs a playlist mutation and responds with the updated playlist, or 404 when it does not exist.
func (a *API) playlistResult(w http.ResponseWriter, r *http.Request, mutate func(id string) (bool, error)) {
	id := r.PathValue("id")
	found, err := mutate(id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !found {
		a.writeError(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, a.playlists.Playlist(id))
}

func songID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: song id %q", shared.ErrInvalidInput, raw)
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrSongNotFound), errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvariantViolation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
