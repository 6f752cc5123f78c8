package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playq/internal/shared"
	"github.com/desertthunder/playq/internal/ui"
)

// TUI launches the interactive playlist browser for a session, or the global session with --global.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	sessionID := strings.TrimSpace(cmd.StringArg("session"))
	if cmd.Bool("global") {
		sessionID = r.config.Global.SessionID
	}
	if sessionID == "" {
		return fmt.Errorf("%w: session (or --global)", shared.ErrMissingArgument)
	}

	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	// Logs would corrupt the rendered screen.
	fileLogger, f, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, sessions, sessionID)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
