package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nix24/phoenixPlayer/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/phoenix-tui.log"

// TUI launches the interactive terminal UI over the queue and playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.lockDatabase(); err != nil {
		return err
	}

	// Logs go to a file so they do not draw over the UI.
	cfg := r.config.Log
	if cfg.File == "" {
		cfg.File = defaultTUILog
	}
	closer, err := r.useFileLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := r.open(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.queue, r.playlists, r.logger)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
