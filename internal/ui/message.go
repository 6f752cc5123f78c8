package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/playq/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgCurrentChanged
	MsgPlaylistDeleted
)

type playlistsFetched struct {
	session   *models.Session
	playlists []models.Playlist
	err       error
}

type actionDone struct {
	name string
	err  error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(sess *models.Session, playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{sess, playlists, err}}
}

// currentChangedMsg is the constructor for [MsgCurrentChanged]
func currentChangedMsg(name string, err error) Msg {
	return Msg{kind: MsgCurrentChanged, data: actionDone{name, err}}
}

// playlistDeletedMsg is the constructor for [MsgPlaylistDeleted]
func playlistDeletedMsg(name string, err error) Msg {
	return Msg{kind: MsgPlaylistDeleted, data: actionDone{name, err}}
}
