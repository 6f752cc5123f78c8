package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
)

// SessionRepository implements [models.SessionStore] on the user_sessions table.
type SessionRepository struct {
	q       DBTX
	dialect shared.Dialect
}

var _ models.SessionStore = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository with the given connection or transaction
func NewSessionRepository(q DBTX, dialect shared.Dialect) *SessionRepository {
	return &SessionRepository{q: q, dialect: dialect}
}

// Insert stores a new session with a generated ID unless the session identifier is taken.
//
// Returns false without error when a concurrent or earlier insert already created the row.
func (r *SessionRepository) Insert(ctx context.Context, s *models.Session) (bool, error) {
	id := shared.GenerateID()

	query := `
		INSERT INTO user_sessions (id, session_id, current_playlist, created_at, last_accessed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING
	`

	result, err := r.q.ExecContext(ctx, r.dialect.Rebind(query),
		id,
		s.SessionID,
		s.CurrentPlaylist,
		s.CreatedAt.UTC(),
		s.LastAccessed.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	s.ID = id
	return true, nil
}

// Get retrieves a session by its session identifier
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, session_id, current_playlist, created_at, last_accessed
		FROM user_sessions
		WHERE session_id = ?
	`

	return r.scanOne(r.q.QueryRowContext(ctx, r.dialect.Rebind(query), sessionID))
}

// SetCurrent points the session at the named playlist and refreshes last_accessed
func (r *SessionRepository) SetCurrent(ctx context.Context, sessionID, name string, at time.Time) error {
	query := `
		UPDATE user_sessions
		SET current_playlist = ?, last_accessed = ?
		WHERE session_id = ?
	`

	result, err := r.q.ExecContext(ctx, r.dialect.Rebind(query), name, at.UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to set current playlist: %w", err)
	}

	return expectRow(result, shared.ErrSessionNotFound, sessionID)
}

// ResetCurrent points the session back at the default playlist if it currently points at name.
func (r *SessionRepository) ResetCurrent(ctx context.Context, sessionID, name string, at time.Time) (bool, error) {
	query := `
		UPDATE user_sessions
		SET current_playlist = ?, last_accessed = ?
		WHERE session_id = ? AND current_playlist = ?
	`

	result, err := r.q.ExecContext(ctx, r.dialect.Rebind(query), models.DefaultPlaylist, at.UTC(), sessionID, name)
	if err != nil {
		return false, fmt.Errorf("failed to reset current playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// Touch refreshes last_accessed. A missing session is not an error.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string, at time.Time) error {
	query := `UPDATE user_sessions SET last_accessed = ? WHERE session_id = ?`

	if _, err := r.q.ExecContext(ctx, r.dialect.Rebind(query), at.UTC(), sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Count returns the number of sessions
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "user_sessions")
}

// scanOne scans a single row into a [models.Session]
func (r *SessionRepository) scanOne(row *sql.Row) (*models.Session, error) {
	var s models.Session

	err := row.Scan(&s.ID, &s.SessionID, &s.CurrentPlaylist, &s.CreatedAt, &s.LastAccessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return &s, nil
}

// expectRow returns notFound when an UPDATE or DELETE matched no rows.
func expectRow(result sql.Result, notFound error, key string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, key)
	}
	return nil
}
