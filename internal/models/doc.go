// Package models defines the domain records and persistence interfaces of the playq service.
//
// The package contains two categories of types:
//
// 1. Persistent records, stored by the repositories package:
//   - [Session] : a session identifier and its current playlist pointer
//   - [Playlist] : a named, ordered list of opaque [Items] owned by a session
//
// 2. Transfer objects that never touch the store:
//   - [FeedResult] and [FeedEntry] : a normalized RSS/Atom feed
//   - [Stats] : row counts reported by the health check
//
// [SessionStore], [PlaylistStore] and [Store] describe the persistence operations the service layer relies on.
// [Store.WithTx] scopes a group of operations to a single transaction.
package models
