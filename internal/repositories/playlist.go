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

// PlaylistRepository implements [models.PlaylistStore] on the playlists table.
//
// Playlists are addressed by (user_id, name); items are stored as JSON text.
type PlaylistRepository struct {
	q       DBTX
	dialect shared.Dialect
}

var _ models.PlaylistStore = (*PlaylistRepository)(nil)

// NewPlaylistRepository creates a new PlaylistRepository with the given connection or transaction
func NewPlaylistRepository(q DBTX, dialect shared.Dialect) *PlaylistRepository {
	return &PlaylistRepository{q: q, dialect: dialect}
}

const insertPlaylist = `
	INSERT INTO playlists (id, name, user_id, items, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

// Create inserts a new playlist with a generated ID.
//
// Returns [shared.ErrUniqueViolation] when the session already owns a playlist with the same name.
func (r *PlaylistRepository) Create(ctx context.Context, p *models.Playlist) error {
	id := shared.GenerateID()
	p.Items = p.Items.Normalize()
	items, err := itemsText(p.Items)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, r.dialect.Rebind(insertPlaylist),
		id, p.Name, p.UserID, items, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: playlist %s/%s", shared.ErrUniqueViolation, p.UserID, p.Name)
		}
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	p.ID = id
	return nil
}

// CreateIfMissing inserts the playlist unless (user_id, name) already exists.
func (r *PlaylistRepository) CreateIfMissing(ctx context.Context, p *models.Playlist) (bool, error) {
	id := shared.GenerateID()
	p.Items = p.Items.Normalize()
	items, err := itemsText(p.Items)
	if err != nil {
		return false, err
	}

	query := insertPlaylist + " ON CONFLICT (user_id, name) DO NOTHING"

	result, err := r.q.ExecContext(ctx, r.dialect.Rebind(query),
		id, p.Name, p.UserID, items, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	p.ID = id
	return true, nil
}

// Get retrieves a playlist by owner and name
func (r *PlaylistRepository) Get(ctx context.Context, userID, name string) (*models.Playlist, error) {
	query := `
		SELECT id, name, user_id, items, created_at, updated_at
		FROM playlists
		WHERE user_id = ? AND name = ?
	`

	return r.scanOne(r.q.QueryRowContext(ctx, r.dialect.Rebind(query), userID, name))
}

// Exists reports whether the playlist exists. On Postgres the row is share-locked until the
// surrounding transaction ends, so a concurrent delete waits for the caller to commit.
func (r *PlaylistRepository) Exists(ctx context.Context, userID, name string) (bool, error) {
	query := `SELECT 1 FROM playlists WHERE user_id = ? AND name = ?`
	if r.dialect == shared.DialectPostgres {
		query += " FOR SHARE"
	}

	var one int
	err := r.q.QueryRowContext(ctx, r.dialect.Rebind(query), userID, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check playlist: %w", err)
	}
	return true, nil
}

// List retrieves all playlists owned by userID in creation order
func (r *PlaylistRepository) List(ctx context.Context, userID string) ([]models.Playlist, error) {
	query := `
		SELECT id, name, user_id, items, created_at, updated_at
		FROM playlists
		WHERE user_id = ?
		ORDER BY created_at ASC, name ASC
	`

	rows, err := r.q.QueryContext(ctx, r.dialect.Rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// UpdateItems replaces the playlist's items and refreshes updated_at
func (r *PlaylistRepository) UpdateItems(ctx context.Context, userID, name string, items models.Items, at time.Time) error {
	query := `
		UPDATE playlists
		SET items = ?, updated_at = ?
		WHERE user_id = ? AND name = ?
	`

	text, err := itemsText(items)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, r.dialect.Rebind(query), text, at.UTC(), userID, name)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	return expectRow(result, shared.ErrPlaylistNotFound, name)
}

// Delete removes a playlist by owner and name
func (r *PlaylistRepository) Delete(ctx context.Context, userID, name string) error {
	query := `DELETE FROM playlists WHERE user_id = ? AND name = ?`

	result, err := r.q.ExecContext(ctx, r.dialect.Rebind(query), userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return expectRow(result, shared.ErrPlaylistNotFound, name)
}

// Count returns the number of playlists across all sessions
func (r *PlaylistRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "playlists")
}

// scanOne scans a single row into a [models.Playlist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	var p models.Playlist

	err := row.Scan(&p.ID, &p.Name, &p.UserID, &p.Items, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	return &p, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Playlist]
func (r *PlaylistRepository) scanRow(rows *sql.Rows) (*models.Playlist, error) {
	var p models.Playlist

	if err := rows.Scan(&p.ID, &p.Name, &p.UserID, &p.Items, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	return &p, nil
}

// itemsText encodes items as the JSON text stored in the items column.
func itemsText(items models.Items) (string, error) {
	b, err := items.Normalize().MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	return string(b), nil
}
