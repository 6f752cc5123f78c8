// Package events publishes playlist and session change notifications.
//
// Notifications are best-effort: callers log a failed publish and carry on, so a
// missing or unreachable Redis never fails a request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/playq/internal/shared"
)

// Type names a change notification.
type Type string

const (
	SessionCreated  Type = "session.created"
	PlaylistCreated Type = "playlist.created"
	PlaylistUpdated Type = "playlist.updated"
	PlaylistDeleted Type = "playlist.deleted"
	CurrentChanged  Type = "session.current_changed"
)

// Event is the JSON message published on the events channel.
type Event struct {
	Type      Type           `json:"type"`
	SessionID string         `json:"session_id"`
	Playlist  string         `json:"playlist,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

// New creates an [Event] stamped with the current time.
func New(t Type, sessionID, playlist string) Event {
	return Event{Type: t, SessionID: sessionID, Playlist: playlist, At: time.Now().UTC()}
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. It is used when no Redis URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher wraps an existing client.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish marshals e and publishes it on the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Close closes the underlying client.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

// NewPublisher builds the publisher described by cfg, or [Nop] when no Redis URL is set.
//
// The connection is checked with a PING so a bad URL surfaces at startup.
func NewPublisher(ctx context.Context, cfg shared.EventsConfig) (Publisher, error) {
	if cfg.RedisURL == "" {
		return Nop{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %v", shared.ErrInvalidConfig, err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	return NewRedisPublisher(rdb, channel), nil
}

// DefaultChannel is used when the config leaves the channel empty.
const DefaultChannel = "playq:playlists"
