package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playq/internal/server"
)

// Serve runs the HTTP API until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		cfg.Port = port
	}

	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}
	global, err := r.global(ctx)
	if err != nil {
		return err
	}

	router := server.NewRouter(server.RouterOptions{
		Prefix:      cfg.Prefix,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      r.logger,
		Handlers: []server.Handler{
			server.NewSessionHandler(sessions, r.logger),
			server.NewGlobalHandler(global, r.logger),
			server.NewFeedHandler(r.feedParser(), r.logger),
		},
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting playlist API",
		"addr", cfg.Addr(), "prefix", cfg.Prefix, "driver", r.config.Database.Driver, "global_session", global.ID())

	if err := server.New(cfg, router, r.logger).Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	r.logger.Info("server stopped")
	return nil
}
