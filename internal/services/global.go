package services

import (
	"context"

	"github.com/desertthunder/playq/internal/models"
)

// DefaultGlobalSessionID is used when no identifier is configured.
const DefaultGlobalSessionID = "global_default"

// GlobalSession exposes the playlist operations for one fixed session identifier.
// It holds no state besides that identifier.
type GlobalSession struct {
	sessions Sessions
	id       string
}

// NewGlobalSession binds sessions to id, falling back to [DefaultGlobalSessionID].
func NewGlobalSession(sessions Sessions, id string) *GlobalSession {
	if id == "" {
		id = DefaultGlobalSessionID
	}
	return &GlobalSession{sessions: sessions, id: id}
}

// ID returns the bound session identifier.
func (g *GlobalSession) ID() string { return g.id }

// Session gets or creates the global session.
func (g *GlobalSession) Session(ctx context.Context) (*models.Session, error) {
	return g.sessions.GetOrCreateSession(ctx, g.id)
}

// Playlists returns the global session and its playlists keyed by name.
func (g *GlobalSession) Playlists(ctx context.Context) (*models.Session, map[string]models.Items, error) {
	sess, playlists, err := g.sessions.ListPlaylists(ctx, g.id)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]models.Items, len(playlists))
	for _, p := range playlists {
		byName[p.Name] = p.Items.Normalize()
	}
	return sess, byName, nil
}

// Playlist returns one global playlist.
func (g *GlobalSession) Playlist(ctx context.Context, name string) (*models.Playlist, error) {
	return g.sessions.GetPlaylist(ctx, g.id, name)
}

// Upsert replaces the items of a global playlist, creating it when absent.
func (g *GlobalSession) Upsert(ctx context.Context, name string, items models.Items) (*models.Playlist, bool, error) {
	return g.sessions.UpsertPlaylist(ctx, g.id, name, items)
}

// Delete removes a global playlist, resetting the global pointer when it was current.
func (g *GlobalSession) Delete(ctx context.Context, name string) error {
	return g.sessions.DeletePlaylist(ctx, g.id, name)
}

// SetCurrent points the global session at an existing playlist.
func (g *GlobalSession) SetCurrent(ctx context.Context, name string) (string, error) {
	return g.sessions.SetCurrentPlaylist(ctx, g.id, name)
}
