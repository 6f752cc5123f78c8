// Package ui implements an interactive terminal browser for one session's playlists using
// bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [PlaylistListView] : the session's playlists, with the current one starred
//  2. [ItemListView] : the items of the selected playlist
//  3. [ConfirmView] : confirm switching the current playlist or deleting one
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every change goes through [services.Sessions], so the TUI enforces the same rules as the HTTP API:
// the default playlist cannot be deleted and deleting the current playlist moves the pointer back to it.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, c, d, r, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
