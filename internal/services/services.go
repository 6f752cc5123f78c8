// package services defines the operations exposed by the HTTP API and CLI
package services

import (
	"context"

	"github.com/desertthunder/playq/internal/models"
)

// Sessions defines the session and playlist operations keyed by a session identifier.
type Sessions interface {
	GetOrCreateSession(ctx context.Context, sessionID string) (*models.Session, error)
	ListPlaylists(ctx context.Context, sessionID string) (*models.Session, []models.Playlist, error)
	GetPlaylist(ctx context.Context, sessionID, name string) (*models.Playlist, error)
	CreatePlaylist(ctx context.Context, sessionID, name string, items models.Items) (*models.Playlist, error)
	UpdatePlaylist(ctx context.Context, sessionID, name string, items models.Items) (*models.Playlist, error)
	UpsertPlaylist(ctx context.Context, sessionID, name string, items models.Items) (*models.Playlist, bool, error)
	DeletePlaylist(ctx context.Context, sessionID, name string) error
	SetCurrentPlaylist(ctx context.Context, sessionID, name string) (string, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// FeedParser fetches and normalizes a feed.
type FeedParser interface {
	ParseFeed(ctx context.Context, feedURL string) (*models.FeedResult, error)
}

var (
	_ Sessions   = (*PlaylistService)(nil)
	_ FeedParser = (*FeedService)(nil)
)
