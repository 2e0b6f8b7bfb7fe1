package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/nix24/phoenixPlayer/internal/playlists"
	"github.com/nix24/phoenixPlayer/internal/projection"
	"github.com/nix24/phoenixPlayer/internal/queue"
	"github.com/nix24/phoenixPlayer/internal/repositories"
	"github.com/nix24/phoenixPlayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and engines are opened on first use by [Runner.open] so commands that
// never touch the library (config, help) do not create a database file.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer

	db        *sql.DB
	ownsDB    bool
	lock      *shared.DatabaseLock
	store     *repositories.Store
	queue     *queue.Engine
	playlists *playlists.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // optional, already migrated; the caller keeps ownership
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

// SetLogger replaces the logger used by the runner and by engines opened afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, songsCommand, queueCommand, playlistCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// open connects to the database, applies migrations, and loads both engines.
func (r *Runner) open(ctx context.Context) error {
	if r.queue != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return err
		}
		if err := shared.RunMigrationsContext(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		r.db, r.ownsDB = db, true
	}

	r.store = repositories.NewStore(r.db)
	view := projection.New()

	r.queue = queue.NewEngine(r.store, view,
		queue.WithLogger(shared.WithLogger(r.logger, "engine", "queue")),
		queue.WithRepairOnLoad(r.config.Queue.RepairOnLoad),
	)
	if err := r.queue.Initialize(ctx); err != nil {
		return err
	}

	r.playlists = playlists.NewEngine(r.store, view, shared.WithLogger(r.logger, "engine", "playlists"))
	return r.playlists.LoadPlaylists(ctx)
}

// lockDatabase takes the single-writer lock for long-running commands.
func (r *Runner) lockDatabase() error {
	lock, err := shared.LockDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	r.lock = lock
	return nil
}

// Close releases the database lock and closes a database the runner opened itself.
func (r *Runner) Close() error {
	var err error
	if r.ownsDB && r.db != nil {
		err = r.db.Close()
		r.db = nil
	}
	if unlockErr := r.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	r.lock = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
