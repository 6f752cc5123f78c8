// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// DBTX is satisfied by both [sql.DB] and [sql.Tx].
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements [models.Store] over a connection pool, or over a transaction inside [Store.WithTx].
type Store struct {
	db        *sql.DB
	q         DBTX
	dialect   shared.Dialect
	sessions  *SessionRepository
	playlists *PlaylistRepository
}

var _ models.Store = (*Store)(nil)

// NewStore creates a [Store] using the given connection pool and SQL dialect.
func NewStore(db *sql.DB, dialect shared.Dialect) *Store {
	return newStore(db, db, dialect)
}

func newStore(db *sql.DB, q DBTX, dialect shared.Dialect) *Store {
	return &Store{
		db:        db,
		q:         q,
		dialect:   dialect,
		sessions:  NewSessionRepository(q, dialect),
		playlists: NewPlaylistRepository(q, dialect),
	}
}

// Sessions returns the session repository bound to this store's connection.
func (s *Store) Sessions() models.SessionStore { return s.sessions }

// Playlists returns the playlist repository bound to this store's connection.
func (s *Store) Playlists() models.PlaylistStore { return s.playlists }

// WithTx runs fn in a single transaction. The transaction commits when fn returns nil and rolls back otherwise.
//
// A Store that is already bound to a transaction runs fn inline, so nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(models.Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newStore(s.db, tx, s.dialect)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure from SQLite or Postgres.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// count runs a COUNT(*) query over table.
func count(ctx context.Context, q DBTX, table string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
