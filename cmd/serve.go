package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nix24/phoenixPlayer/internal/server"
	"github.com/nix24/phoenixPlayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.lockDatabase(); err != nil {
		return err
	}

	if cmd.Bool("log-file") {
		closer, err := r.useFileLogger(r.config.Log)
		if err != nil {
			return err
		}
		defer closer.Close()
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	h := server.NewHandler(r.config.Server, r.queue, r.playlists, logger)
	return server.New(addr, h, logger).ListenAndServe(ctx)
}

// useFileLogger swaps the runner's logger for a rotating file logger at the current level.
func (r *Runner) useFileLogger(cfg shared.LogConfig) (io.Closer, error) {
	if cfg.Level == "" {
		cfg.Level = r.logger.GetLevel().String()
	}
	fileLogger, closer, err := shared.NewFileLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	return closer, nil
}
