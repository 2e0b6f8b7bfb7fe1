package main

import (
	"context"
	"fmt"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/queue"
	"github.com/nix24/phoenixPlayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// QueueShow prints the queue in list order with the current song marked.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	q := r.queue.Queue()
	songs := r.queue.Ordered()

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"queue": q, "songs": songs}, cmd.Bool("pretty"))
	}

	if q.IsEmpty() {
		return r.writePlain("Queue is empty\n")
	}

	var total float64
	for _, s := range songs {
		total += s.Duration
	}
	r.writePlain("%s\n", songTable(songs, q.CurrentSongID))
	return r.writePlain("%d songs • %s\n", q.TotalSongs, shared.FormatDuration(total))
}

// QueueNext makes the following song current, wrapping at the end.
func (r *Runner) QueueNext(ctx context.Context, cmd *cli.Command) error {
	return r.step(ctx, (*queue.Engine).GetNextSong)
}

// QueuePrev makes the preceding song current, wrapping at the start.
func (r *Runner) QueuePrev(ctx context.Context, cmd *cli.Command) error {
	return r.step(ctx, (*queue.Engine).GetPreviousSong)
}

func (r *Runner) step(ctx context.Context, pick func(*queue.Engine) *models.Song) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	return r.moveTo(ctx, pick(r.queue))
}

func (r *Runner) moveTo(ctx context.Context, song *models.Song) error {
	if song == nil {
		return r.writePlain("Nothing to play\n")
	}
	r.queue.SetCurrentSong(song.ID)
	if err := r.queue.SaveCurrentSong(ctx); err != nil {
		return err
	}
	return r.writePlain("▶ %s (%s)\n", song.String(), shared.FormatClock(song.Duration))
}

// QueueCurrent prints the current song, or makes the song named by the argument current.
func (r *Runner) QueueCurrent(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	if raw := cmd.StringArg("id"); raw != "" {
		id, err := parseSongID(raw)
		if err != nil {
			return err
		}
		song := r.queue.Song(id)
		if song == nil {
			return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
		}
		return r.moveTo(ctx, song)
	}

	song := r.queue.GetCurrentSong()
	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	if song == nil {
		return r.writePlain("Nothing playing\n")
	}
	return r.writePlain("▶ %s (%s)\n", song.String(), shared.FormatClock(song.Duration))
}

// QueueVerify checks the stored links and, with --repair, rebuilds them.
func (r *Runner) QueueVerify(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	report, err := r.queue.Verify(ctx)
	if err != nil {
		return err
	}
	repaired := false
	if !report.OK() && cmd.Bool("repair") {
		if report, err = r.queue.Repair(ctx); err != nil {
			return err
		}
		repaired = true
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"report": report, "repaired": repaired}, cmd.Bool("pretty"))
	}
	return r.printReport(report, repaired)
}

func (r *Runner) printReport(report queue.Report, repaired bool) error {
	if report.OK() {
		return r.writePlain("✓ Queue consistent: %d/%d songs linked\n", report.Reachable, report.Total)
	}

	rows := make([][]string, 0, len(report.Issues))
	for _, i := range report.Issues {
		song := ""
		if i.SongID != models.NoID {
			song = fmt.Sprint(i.SongID)
		}
		rows = append(rows, []string{string(i.Kind), song, i.Detail})
	}
	r.writePlain("%s\n", renderTable([]string{"Issue", "Song", "Detail"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	r.writePlain("%d/%d songs reachable from the head\n", report.Reachable, report.Total)

	if repaired {
		return r.writePlain("✓ Queue rebuilt; the report above describes the state before repair\n")
	}
	return fmt.Errorf("%w: %d issues found, rerun with --repair to rebuild", shared.ErrInvariantViolation, len(report.Issues))
}
