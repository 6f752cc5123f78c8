package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
	"github.com/desertthunder/playq/internal/ui"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// itemsFromFlags decodes --items or --items-file. Neither given means an empty list.
func itemsFromFlags(cmd *cli.Command) (models.Items, error) {
	raw, err := parseItemsFlag(cmd)
	if err != nil {
		return nil, err
	}
	items, err := models.ParseItems(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return items, nil
}

// Session gets or creates a session, generating an identifier when none is given.
func (r *Runner) Session(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	sessionID := strings.TrimSpace(cmd.StringArg("session"))
	if sessionID == "" {
		sessionID = shared.GenerateID()
	}

	sess, err := sessions.GetOrCreateSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sess, cmd.Bool("pretty"))
	}
	r.writePlain("%s\n", ui.Styles().OK("✓ Session "+sess.SessionID))
	r.writePlain("Current playlist: %s\n", sess.CurrentPlaylist)
	r.writePlain("Created: %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// PlaylistsList prints every playlist in a session, creating the session if needed.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	sessionID, err := requireArg(cmd, "session")
	if err != nil {
		return err
	}
	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	sess, playlists, err := sessions.ListPlaylists(ctx, sessionID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"playlists":        playlists,
			"current_playlist": sess.CurrentPlaylist,
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Session %s (%d playlists)", sess.SessionID, len(playlists)))
	for _, p := range playlists {
		r.writePlain("%s\n", playlistLine(p.Name, p.Items.Len(), p.Name == sess.CurrentPlaylist))
	}
	return nil
}

// PlaylistsGet prints one playlist.
func (r *Runner) PlaylistsGet(ctx context.Context, cmd *cli.Command) error {
	sessionID, name, err := sessionAndName(cmd)
	if err != nil {
		return err
	}
	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	p, err := sessions.GetPlaylist(ctx, sessionID, name)
	if err != nil {
		return err
	}
	return r.showPlaylist(cmd, p)
}

// PlaylistsCreate creates a playlist from --items or --items-file.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	sessionID, name, err := sessionAndName(cmd)
	if err != nil {
		return err
	}
	items, err := itemsFromFlags(cmd)
	if err != nil {
		return err
	}
	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	p, err := sessions.CreatePlaylist(ctx, sessionID, name, items)
	if err != nil {
		return err
	}
	r.logger.Info("playlist created", "session_id", sessionID, "name", name, "items", p.Items.Len())
	return r.showPlaylist(cmd, p)
}

// PlaylistsUpdate replaces a playlist's items.
func (r *Runner) PlaylistsUpdate(ctx context.Context, cmd *cli.Command) error {
	sessionID, name, err := sessionAndName(cmd)
	if err != nil {
		return err
	}
	items, err := itemsFromFlags(cmd)
	if err != nil {
		return err
	}
	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	p, err := sessions.UpdatePlaylist(ctx, sessionID, name, items)
	if err != nil {
		return err
	}
	return r.showPlaylist(cmd, p)
}

// PlaylistsDelete removes a playlist. Deleting the current playlist resets the session to default.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	sessionID, name, err := sessionAndName(cmd)
	if err != nil {
		return err
	}
	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	if err := sessions.DeletePlaylist(ctx, sessionID, name); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Deleted %q", name)))
}

// PlaylistsCurrent sets a session's current playlist.
func (r *Runner) PlaylistsCurrent(ctx context.Context, cmd *cli.Command) error {
	sessionID, name, err := sessionAndName(cmd)
	if err != nil {
		return err
	}
	sessions, err := r.playlists(ctx)
	if err != nil {
		return err
	}

	current, err := sessions.SetCurrentPlaylist(ctx, sessionID, name)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Current playlist is now %q", current)))
}

// GlobalSession gets or creates the global session.
func (r *Runner) GlobalSession(ctx context.Context, cmd *cli.Command) error {
	global, err := r.global(ctx)
	if err != nil {
		return err
	}

	sess, err := global.Session(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(sess, cmd.Bool("pretty"))
	}
	r.writePlain("%s\n", ui.Styles().OK("✓ Global session "+sess.SessionID))
	r.writePlain("Current playlist: %s\n", sess.CurrentPlaylist)
	return nil
}

// GlobalList prints the global playlists keyed by name.
func (r *Runner) GlobalList(ctx context.Context, cmd *cli.Command) error {
	global, err := r.global(ctx)
	if err != nil {
		return err
	}

	sess, byName, err := global.Playlists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"playlists":        byName,
			"current_playlist": sess.CurrentPlaylist,
		}, cmd.Bool("pretty"))
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	r.writePlainHeader(fmt.Sprintf("Global session %s (%d playlists)", sess.SessionID, len(names)))
	for _, name := range names {
		r.writePlain("%s\n", playlistLine(name, byName[name].Len(), name == sess.CurrentPlaylist))
	}
	return nil
}

// GlobalGet prints one global playlist.
func (r *Runner) GlobalGet(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	global, err := r.global(ctx)
	if err != nil {
		return err
	}

	p, err := global.Playlist(ctx, name)
	if err != nil {
		return err
	}
	return r.showPlaylist(cmd, p)
}

// GlobalPut creates or replaces a global playlist.
func (r *Runner) GlobalPut(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	items, err := itemsFromFlags(cmd)
	if err != nil {
		return err
	}
	global, err := r.global(ctx)
	if err != nil {
		return err
	}

	p, created, err := global.Upsert(ctx, name, items)
	if err != nil {
		return err
	}
	r.logger.Info("global playlist saved", "name", name, "created", created)
	return r.showPlaylist(cmd, p)
}

// GlobalDelete removes a global playlist.
func (r *Runner) GlobalDelete(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	global, err := r.global(ctx)
	if err != nil {
		return err
	}

	if err := global.Delete(ctx, name); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Deleted %q", name)))
}

// GlobalCurrent sets the global current playlist.
func (r *Runner) GlobalCurrent(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	global, err := r.global(ctx)
	if err != nil {
		return err
	}

	current, err := global.SetCurrent(ctx, name)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Current playlist is now %q", current)))
}

func sessionAndName(cmd *cli.Command) (string, string, error) {
	sessionID, err := requireArg(cmd, "session")
	if err != nil {
		return "", "", err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return "", "", err
	}
	return sessionID, name, nil
}

func (r *Runner) showPlaylist(cmd *cli.Command, p *models.Playlist) error {
	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", ui.Styles().Title(p.Name))
	r.writePlain("Items: %d\n", p.Items.Len())
	r.writePlain("Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
	for i, item := range p.Items {
		r.writePlain("  %d. %s\n", i+1, string(item))
	}
	return nil
}

func playlistLine(name string, count int, current bool) string {
	line := fmt.Sprintf("  %s (%d items)", name, count)
	if current {
		return ui.Styles().OK("★" + line[1:] + " [current]")
	}
	return line
}
