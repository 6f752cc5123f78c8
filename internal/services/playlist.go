package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playq/internal/events"
	"github.com/desertthunder/playq/internal/metrics"
	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
)

// PlaylistService implements [Sessions] on a [models.Store].
//
// Every multi-step mutation runs in one store transaction; nothing is cached between calls.
type PlaylistService struct {
	store     models.Store
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

// NewPlaylistService creates a PlaylistService. A nil publisher disables change events.
func NewPlaylistService(store models.Store, publisher events.Publisher, logger *log.Logger) *PlaylistService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistService{
		store:     store,
		publisher: publisher,
		logger:    shared.WithLogger(logger, "component", "playlists"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateSession returns the session for sessionID, creating it and its default playlist
// in one transaction if it does not exist. An empty sessionID gets a generated identifier.
func (s *PlaylistService) GetOrCreateSession(ctx context.Context, sessionID string) (sess *models.Session, err error) {
	defer observe("get_or_create_session", time.Now(), &err)

	if sessionID == "" {
		sessionID = shared.GenerateID()
	}
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	var created bool
	err = s.store.WithTx(ctx, func(tx models.Store) error {
		var err error
		sess, created, err = s.ensureSession(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.publish(ctx, events.New(events.SessionCreated, sessionID, models.DefaultPlaylist))
	}
	return sess, nil
}

// ListPlaylists ensures the session exists and returns it with all of its playlists.
func (s *PlaylistService) ListPlaylists(ctx context.Context, sessionID string) (sess *models.Session, playlists []models.Playlist, err error) {
	defer observe("list_playlists", time.Now(), &err)

	if err := validateSessionID(sessionID); err != nil {
		return nil, nil, err
	}

	var created bool
	err = s.store.WithTx(ctx, func(tx models.Store) error {
		var err error
		if sess, created, err = s.ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}
		playlists, err = tx.Playlists().List(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if created {
		s.publish(ctx, events.New(events.SessionCreated, sessionID, models.DefaultPlaylist))
	}
	return sess, playlists, nil
}

// GetPlaylist returns the named playlist. It never creates a session or playlist.
func (s *PlaylistService) GetPlaylist(ctx context.Context, sessionID, name string) (p *models.Playlist, err error) {
	defer observe("get_playlist", time.Now(), &err)

	if err := validateName(name); err != nil {
		return nil, err
	}
	return s.store.Playlists().Get(ctx, sessionID, name)
}

// CreatePlaylist creates a playlist in the session, creating the session if needed.
//
// Returns [shared.ErrPlaylistExists] when the name is taken; the existing playlist is left untouched.
func (s *PlaylistService) CreatePlaylist(ctx context.Context, sessionID, name string, items models.Items) (p *models.Playlist, err error) {
	defer observe("create_playlist", time.Now(), &err)

	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx models.Store) error {
		if _, _, err := s.ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}
		var err error
		p, err = s.createPlaylist(ctx, tx, sessionID, name, items)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.PlaylistCreated, sessionID, name))
	return p, nil
}

// UpdatePlaylist replaces the playlist's items wholesale and refreshes its updated_at.
func (s *PlaylistService) UpdatePlaylist(ctx context.Context, sessionID, name string, items models.Items) (p *models.Playlist, err error) {
	defer observe("update_playlist", time.Now(), &err)

	if err := validateName(name); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx models.Store) error {
		var err error
		p, err = s.updatePlaylist(ctx, tx, sessionID, name, items)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.PlaylistUpdated, sessionID, name))
	return p, nil
}

// UpsertPlaylist replaces the playlist's items, creating the playlist (and session) when absent.
// The returned bool reports whether the playlist was created.
func (s *PlaylistService) UpsertPlaylist(ctx context.Context, sessionID, name string, items models.Items) (p *models.Playlist, created bool, err error) {
	defer observe("upsert_playlist", time.Now(), &err)

	if err := validateSessionID(sessionID); err != nil {
		return nil, false, err
	}
	if err := validateName(name); err != nil {
		return nil, false, err
	}

	err = s.store.WithTx(ctx, func(tx models.Store) error {
		if _, _, err := s.ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}

		exists, err := tx.Playlists().Exists(ctx, sessionID, name)
		if err != nil {
			return err
		}
		if exists {
			p, err = s.updatePlaylist(ctx, tx, sessionID, name, items)
			return err
		}

		created = true
		p, err = s.createPlaylist(ctx, tx, sessionID, name, items)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.publish(ctx, events.New(events.PlaylistCreated, sessionID, name))
	} else {
		s.publish(ctx, events.New(events.PlaylistUpdated, sessionID, name))
	}
	return p, created, nil
}

// DeletePlaylist removes a playlist. If the session pointed at it, the pointer moves back to
// the default playlist in the same transaction.
func (s *PlaylistService) DeletePlaylist(ctx context.Context, sessionID, name string) (err error) {
	defer observe("delete_playlist", time.Now(), &err)

	if name == models.DefaultPlaylist {
		return shared.ErrDefaultProtected
	}
	if err := validateName(name); err != nil {
		return err
	}

	var reset bool
	err = s.store.WithTx(ctx, func(tx models.Store) error {
		if err := tx.Playlists().Delete(ctx, sessionID, name); err != nil {
			return err
		}
		var err error
		reset, err = tx.Sessions().ResetCurrent(ctx, sessionID, name, s.now())
		return err
	})
	if err != nil {
		return err
	}

	e := events.New(events.PlaylistDeleted, sessionID, name)
	e.Payload = map[string]any{"current_reset": reset}
	s.publish(ctx, e)
	return nil
}

// SetCurrentPlaylist points the session at an existing playlist and returns its name.
//
// The session is created if needed. When the playlist is absent the pointer is left unchanged.
func (s *PlaylistService) SetCurrentPlaylist(ctx context.Context, sessionID, name string) (current string, err error) {
	defer observe("set_current_playlist", time.Now(), &err)

	if err := validateName(name); err != nil {
		return "", err
	}
	if err := validateSessionID(sessionID); err != nil {
		return "", err
	}

	err = s.store.WithTx(ctx, func(tx models.Store) error {
		if _, _, err := s.ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}

		exists, err := tx.Playlists().Exists(ctx, sessionID, name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, name)
		}
		return tx.Sessions().SetCurrent(ctx, sessionID, name, s.now())
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, events.New(events.CurrentChanged, sessionID, name))
	return name, nil
}

// Stats counts playlists and sessions across the store.
func (s *PlaylistService) Stats(ctx context.Context) (stats models.Stats, err error) {
	defer observe("stats", time.Now(), &err)

	if stats.TotalPlaylists, err = s.store.Playlists().Count(ctx); err != nil {
		return stats, err
	}
	if stats.TotalSessions, err = s.store.Sessions().Count(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

// ensureSession is the shared get-or-create step. It must run inside a transaction so the
// session row and its default playlist commit together.
func (s *PlaylistService) ensureSession(ctx context.Context, tx models.Store, sessionID string) (*models.Session, bool, error) {
	now := s.now()

	created, err := tx.Sessions().Insert(ctx, models.NewSession(sessionID, now))
	if err != nil {
		return nil, false, err
	}
	if created {
		def := models.NewPlaylist(sessionID, models.DefaultPlaylist, nil, now)
		if _, err := tx.Playlists().CreateIfMissing(ctx, def); err != nil {
			return nil, false, err
		}
		s.logger.Debug("created session", "session_id", sessionID)
	}

	sess, err := tx.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return sess, created, nil
}

func (s *PlaylistService) createPlaylist(ctx context.Context, tx models.Store, sessionID, name string, items models.Items) (*models.Playlist, error) {
	exists, err := tx.Playlists().Exists(ctx, sessionID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistExists, name)
	}

	p := models.NewPlaylist(sessionID, name, items, s.now())
	if err := tx.Playlists().Create(ctx, p); err != nil {
		if errors.Is(err, shared.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistExists, name)
		}
		return nil, err
	}
	return p, nil
}

func (s *PlaylistService) updatePlaylist(ctx context.Context, tx models.Store, sessionID, name string, items models.Items) (*models.Playlist, error) {
	now := s.now()

	if err := tx.Playlists().UpdateItems(ctx, sessionID, name, items, now); err != nil {
		return nil, err
	}
	if err := tx.Sessions().Touch(ctx, sessionID, now); err != nil {
		return nil, err
	}
	return tx.Playlists().Get(ctx, sessionID, name)
}

// publish delivers e after commit. Failures are logged and counted, never returned.
func (s *PlaylistService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		metrics.EventsPublishFailures.Inc()
		s.logger.Warn("failed to publish event", "type", e.Type, "session_id", e.SessionID, "error", err)
	}
}

func validateName(name string) error {
	if name == "" {
		return shared.ErrMissingName
	}
	if utf8.RuneCountInString(name) > models.MaxNameLength {
		return fmt.Errorf("%w: playlist name exceeds %d characters", shared.ErrBadRequest, models.MaxNameLength)
	}
	return nil
}

func validateSessionID(sessionID string) error {
	if utf8.RuneCountInString(sessionID) > models.MaxNameLength {
		return fmt.Errorf("%w: session id exceeds %d characters", shared.ErrBadRequest, models.MaxNameLength)
	}
	return nil
}

func observe(operation string, start time.Time, err *error) {
	metrics.ObserveOperation(operation, start, *err)
}
