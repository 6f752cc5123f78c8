// package models defines the data model for the playlist service
package models

import (
	"context"
	"time"
)

const (
	// DefaultPlaylist is created with every session and can never be deleted.
	DefaultPlaylist = "default"
	// MaxNameLength bounds session identifiers and playlist names (column width).
	MaxNameLength = 100
)

// Session is a session record. CurrentPlaylist always names a playlist owned by SessionID.
type Session struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	CurrentPlaylist string    `json:"current_playlist"`
	CreatedAt       time.Time `json:"created_at"`
	LastAccessed    time.Time `json:"last_accessed"`
}

// NewSession creates a [Session] pointing at the default playlist.
func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID:       sessionID,
		CurrentPlaylist: DefaultPlaylist,
		CreatedAt:       now,
		LastAccessed:    now,
	}
}

// Playlist is a named playlist owned by a session. (UserID, Name) is unique.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	Items     Items     `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPlaylist creates a [Playlist] with both timestamps set to now.
func NewPlaylist(userID, name string, items Items, now time.Time) *Playlist {
	return &Playlist{
		Name:      name,
		UserID:    userID,
		Items:     items.Normalize(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDefault reports whether p is its session's default playlist.
func (p Playlist) IsDefault() bool {
	return p.Name == DefaultPlaylist
}

// Stats holds the row counts reported by the health check.
type Stats struct {
	TotalPlaylists int `json:"total_playlists"`
	TotalSessions  int `json:"total_sessions"`
}

// SessionStore persists [Session] records keyed by session identifier.
type SessionStore interface {
	// Insert stores s unless a session with the same identifier exists, reporting whether it did.
	Insert(ctx context.Context, s *Session) (bool, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	SetCurrent(ctx context.Context, sessionID, name string, at time.Time) error
	// ResetCurrent points the session back at the default playlist when it currently points at name.
	ResetCurrent(ctx context.Context, sessionID, name string, at time.Time) (bool, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Count(ctx context.Context) (int, error)
}

// PlaylistStore persists [Playlist] records keyed by (owner, name).
type PlaylistStore interface {
	Create(ctx context.Context, p *Playlist) error
	// CreateIfMissing stores p unless the (owner, name) pair exists, reporting whether it did.
	CreateIfMissing(ctx context.Context, p *Playlist) (bool, error)
	Get(ctx context.Context, userID, name string) (*Playlist, error)
	// Exists checks for the playlist and, where the store supports it, holds it until the transaction ends.
	Exists(ctx context.Context, userID, name string) (bool, error)
	List(ctx context.Context, userID string) ([]Playlist, error)
	UpdateItems(ctx context.Context, userID, name string, items Items, at time.Time) error
	Delete(ctx context.Context, userID, name string) error
	Count(ctx context.Context) (int, error)
}

// Store groups the session and playlist stores over one connection or transaction.
type Store interface {
	Sessions() SessionStore
	Playlists() PlaylistStore
	// WithTx runs fn against a Store bound to a single transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(Store) error) error
}
