package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nix24/phoenixPlayer/internal/shared"
	"github.com/nix24/phoenixPlayer/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate creates a playlist from a name and optional song ids.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	ids, err := parseSongIDs(cmd.StringSlice("song"))
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	p, err := r.playlists.AddPlaylist(ctx, name, ids...)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created playlist %q (%s) with %d songs\n", p.Name, p.ID, len(p.SongIDs))
}

// PlaylistDelete deletes a playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	found, err := r.playlists.DeletePlaylist(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return r.writePlain("✓ Deleted playlist %s\n", id)
}

// PlaylistList prints every playlist in creation order.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	list := r.playlists.Playlists()
	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}
	if len(list) == 0 {
		return r.writePlain("No playlists found\n")
	}

	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			strconv.Itoa(len(p.SongIDs)),
			p.CreatedAt.Local().Format(time.DateTime),
		})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"ID", "Name", "Songs", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return r.writePlain("%d playlists\n", len(list))
}

// PlaylistShow prints a playlist and its resolved songs.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	p := r.playlists.Playlist(id)
	if p == nil {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	songs := r.playlists.PlaylistSongs(id)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"playlist": p, "songs": songs}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(p.Name)
	if len(songs) == 0 {
		return r.writePlain("No songs\n")
	}

	var total float64
	for _, s := range songs {
		total += s.Duration
	}
	r.writePlain("%s\n", songTable(songs, r.queue.Queue().CurrentSongID))
	if missing := len(p.SongIDs) - len(songs); missing > 0 {
		r.writePlain("%d entries name songs that no longer exist\n", missing)
	}
	return r.writePlain("%d songs • %s\n", len(songs), shared.FormatDuration(total))
}

// PlaylistAdd appends a song to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	return r.editPlaylist(ctx, cmd, func(id string, songID int64) (bool, error) {
		if r.queue.Song(songID) == nil {
			return false, fmt.Errorf("%w: %d", shared.ErrSongNotFound, songID)
		}
		return r.playlists.AddSongToPlaylist(ctx, id, songID)
	}, "✓ Added song %d to playlist %s\n")
}

// PlaylistRemove removes every occurrence of a song from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	return r.editPlaylist(ctx, cmd, func(id string, songID int64) (bool, error) {
		return r.playlists.RemoveSongFromPlaylist(ctx, id, songID)
	}, "✓ Removed song %d from playlist %s\n")
}

func (r *Runner) editPlaylist(ctx context.Context, cmd *cli.Command, edit func(string, int64) (bool, error), done string) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	songID, err := parseSongID(cmd.StringArg("song"))
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	found, err := edit(id, songID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return r.writePlain(done, songID, id)
}

// PlaylistRename changes a playlist's name.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: new name", shared.ErrMissingArgument)
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	found, err := r.playlists.RenamePlaylist(ctx, id, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return r.writePlain("✓ Renamed playlist %s to %q\n", id, name)
}

// PlaylistExport writes playlists to files in the chosen format, printing progress per playlist.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	ids := cmd.StringSlice("id")
	if cmd.Bool("all") {
		ids = nil
		for _, p := range r.playlists.Playlists() {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: pass --id or --all", shared.ErrMissingArgument)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := tasks.NewExporter(r.playlists).BulkExport(ctx, progressCh, ids, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d playlists as %s\n", result.SuccessfulExports, result.TotalPlaylists, result.Format)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.PlaylistID, res.ErrorMessage)
		}
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%d of %d playlists failed to export", result.FailedExports, result.TotalPlaylists)
	}
	return nil
}

func playlistArg(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("id")
	if id == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return id, nil
}
