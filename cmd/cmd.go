// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, then initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// songsCommand handles library operations.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"song"},
		Usage:   "Add, list and remove songs",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Append a song to the end of the queue",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title", Required: true},
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist name"},
					&cli.StringFlag{Name: "album", Usage: "Album name"},
					&cli.IntFlag{Name: "year", Usage: "Release year"},
					&cli.IntFlag{Name: "track", Usage: "Track number"},
					&cli.FloatFlag{Name: "duration", Usage: "Length in seconds"},
					&cli.IntFlag{Name: "size", Usage: "File size in bytes"},
					&cli.StringFlag{Name: "cover", Usage: "Cover art reference"},
					&cli.StringFlag{Name: "audio", Usage: "Audio file reference"},
				},
				Action: r.SongsAdd,
			},
			{
				Name:  "list",
				Usage: "List songs in storage order",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Only songs whose title, artist or album contains this"},
					&cli.BoolFlag{Name: "queue", Usage: "List in queue order instead"},
				}, jsonFlags()...),
				Action: r.SongsList,
			},
			{
				Name:      "show",
				Usage:     "Show one song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.SongsShow,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Unlink a song from the queue and delete it",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "purge", Usage: "Also remove the song from every playlist"},
				},
				Action: r.SongsRemove,
			},
			{
				Name:      "import",
				Usage:     "Append songs from a CSV or JSON manifest",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "batch-size", Usage: "Songs per transaction (default from config)"},
				},
				Action: r.SongsImport,
			},
		},
	}
}

// queueCommand handles navigation and integrity of the global queue.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Inspect and move through the global queue",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the queue in list order",
				Flags:  jsonFlags(),
				Action: r.QueueShow,
			},
			{
				Name:   "next",
				Usage:  "Advance to the next song, wrapping to the first",
				Action: r.QueueNext,
			},
			{
				Name:    "prev",
				Aliases: []string{"previous"},
				Usage:   "Go back to the previous song, wrapping to the last",
				Action:  r.QueuePrev,
			},
			{
				Name:      "current",
				Usage:     "Show the current song, or make the given song current",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.QueueCurrent,
			},
			{
				Name:  "verify",
				Usage: "Check the prev/next links against the queue row",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "repair", Usage: "Rebuild the links when problems are found"},
				}, jsonFlags()...),
				Action: r.QueueVerify,
			},
		},
	}
}

// playlistCommand handles playlist operations.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"playlists", "pl"},
		Usage:   "Create and edit playlists",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "song", Aliases: []string{"s"}, Usage: "Song id to include (repeatable)"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.PlaylistDelete,
			},
			{
				Name:   "list",
				Usage:  "List playlists",
				Flags:  jsonFlags(),
				Action: r.PlaylistList,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist and its songs",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.PlaylistShow,
			},
			{
				Name:  "add",
				Usage: "Append a song to a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "song"},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove every occurrence of a song from a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "song"},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "rename",
				Usage: "Rename a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:  "export",
				Usage: "Export playlists to files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Usage: "Playlist id to export (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "Export every playlist"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent exports", Value: 4},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API, event stream and websocket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
			&cli.BoolFlag{Name: "log-file", Usage: "Write logs to the rotating file from config instead of stderr"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse and play the queue interactively",
		Action:  r.TUI,
	}
}
