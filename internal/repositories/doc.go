// Package repositories implements SQL persistence for sessions and playlists.
//
// Key Implementations:
//   - [SessionRepository] : session rows keyed by session identifier, current playlist pointer
//   - [PlaylistRepository] : playlist rows keyed by (user_id, name), items stored as JSON text
//   - [Store] : binds both repositories to a connection pool or a single transaction
//
// Queries are written once with ? placeholders and rebound per [shared.Dialect], so the same
// repositories run on SQLite (mattn/go-sqlite3) and Postgres (pgx stdlib driver).
// Unique constraint failures from either driver are reported as [shared.ErrUniqueViolation].
package repositories
