// Package services implements the playlist, global session and feed operations behind the HTTP API and CLI.
//
// # Playlist Service
//
// [PlaylistService] enforces the session and playlist rules on top of a [models.Store]:
//   - every session owns a "default" playlist, created in the same transaction as the session
//   - the default playlist can never be deleted
//   - a session's current playlist always names a playlist it owns; deleting the current
//     playlist points the session back at "default" in the same transaction
//
// Sessions are created lazily on first reference (get-or-create). Committed mutations are
// announced through an [events.Publisher]; a failed publish is logged and never returned.
//
// # Global Session
//
// [GlobalSession] binds the playlist service to one configured session identifier so that
// every caller shares a single playlist namespace.
//
// # Feed Service
//
// [FeedService] fetches an RSS or Atom document with a bounded, rate limited request and
// normalizes it with gofeed. Missing fields are defaulted, never reported as errors.
//
// # Error Handling
//
// Operations return the sentinel errors from the shared package, wrapped with context:
//   - [shared.ErrBadRequest] : missing or invalid input
//   - [shared.ErrNotFound] : playlist or session absent
//   - [shared.ErrConflict] : playlist name already taken in the session
//   - [shared.ErrForbidden] : attempt to delete the default playlist
//   - [shared.ErrFetch] : feed could not be fetched or parsed
package services
