package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
	"github.com/nix24/phoenixPlayer/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SongsAdd appends one song to the queue.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	in := models.SongInput{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Album:    cmd.String("album"),
		Year:     cmd.Int("year"),
		Track:    cmd.Int("track"),
		Duration: cmd.Float("duration"),
		Size:     int64(cmd.Int("size")),
		CoverArt: cmd.String("cover"),
		AudioRef: cmd.String("audio"),
	}

	id, err := r.queue.AddSong(ctx, in)
	if err != nil {
		return err
	}

	r.logger.Debug("song added", "id", id, "title", in.Title)
	return r.writePlain("✓ Added %q as song %d (%d in queue)\n", in.Title, id, r.queue.Queue().TotalSongs)
}

// SongsList prints the library, optionally filtered or in queue order.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	var songs []models.Song
	switch q := cmd.String("query"); {
	case q != "":
		songs = r.queue.SearchSongs(q)
	case cmd.Bool("queue"):
		songs = r.queue.Ordered()
	default:
		songs = r.queue.GetAllSongs()
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("No songs found\n")
	}
	r.writePlain("%s\n", songTable(songs, r.queue.Queue().CurrentSongID))
	return r.writePlain("%d songs\n", len(songs))
}

// SongsShow prints one song.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseSongID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	song := r.queue.Song(id)
	if song == nil {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}

	r.writePlainHeader(song.String())
	r.writePlain("ID: %d\n", song.ID)
	if song.Album != "" {
		r.writePlain("Album: %s\n", song.Album)
	}
	if song.Year > 0 {
		r.writePlain("Year: %d\n", song.Year)
	}
	if song.Track > 0 {
		r.writePlain("Track: %d\n", song.Track)
	}
	r.writePlain("Duration: %s\n", shared.FormatDuration(song.Duration))
	r.writePlain("Size: %s\n", shared.FormatBytes(song.Size, 2))
	r.writePlain("Previous: %s\n", linkLabel(r, song.PrevID))
	return r.writePlain("Next: %s\n", linkLabel(r, song.NextID))
}

// SongsRemove unlinks and deletes a song; --purge also drops it from every playlist.
func (r *Runner) SongsRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := parseSongID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	removed, err := r.queue.RemoveSong(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	r.writePlain("✓ Removed song %d (%d left in queue)\n", id, r.queue.Queue().TotalSongs)

	if cmd.Bool("purge") {
		changed, err := r.playlists.PurgeSong(ctx, id)
		if err != nil {
			return err
		}
		r.writePlain("✓ Removed from %d playlists\n", changed)
	}
	return nil
}

// SongsImport appends the songs of a CSV or JSON manifest, printing progress as batches commit.
func (r *Runner) SongsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: manifest path", shared.ErrMissingArgument)
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	opts := tasks.ImportOpts{
		BatchSize: r.config.Import.BatchSize,
		RateLimit: r.config.Import.RateLimit,
	}
	if n := cmd.Int("batch-size"); n > 0 {
		opts.BatchSize = n
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ReadManifest:
				r.writePlain("📄 %s\n", update.Message)
			case tasks.ImportSongs:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	importer := tasks.NewImporter(r.queue, opts, r.logger)
	result, err := importer.ImportFile(ctx, progressCh, path)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Imported: %d/%d songs in %d batches\n", result.Imported, result.Total, result.Batches)
	if len(result.Skipped) > 0 {
		r.writePlain("\nSkipped %d rows:\n", len(result.Skipped))
		for _, row := range result.Skipped {
			r.writePlain("  - %v\n", row)
		}
	}
	return nil
}

func songTable(songs []models.Song, current int64) string {
	rows := make([][]string, 0, len(songs))
	for _, s := range songs {
		marker := ""
		if s.ID == current {
			marker = "▶"
		}
		rows = append(rows, []string{
			marker,
			strconv.FormatInt(s.ID, 10),
			s.Title,
			s.Artist,
			s.Album,
			shared.FormatClock(s.Duration),
		})
	}
	return renderTable(
		[]string{"", "ID", "Title", "Artist", "Album", "Length"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func linkLabel(r *Runner, id int64) string {
	if id == models.NoID {
		return "(none)"
	}
	if s := r.queue.Song(id); s != nil {
		return fmt.Sprintf("%d %s", id, s.String())
	}
	return fmt.Sprintf("%d (missing)", id)
}

func parseSongID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: song id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func parseSongIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseSongID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
