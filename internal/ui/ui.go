package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ItemListView
	ConfirmView
)

// action is the change awaiting confirmation.
type action int

const (
	actionNone action = iota
	actionSetCurrent
	actionDelete
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	sessions  services.Sessions
	sessionID string
	width     int
	height    int

	session      *models.Session
	playlists    []models.Playlist
	playlistList list.Model
	itemList     list.Model
	itemsReady   bool
	selected     *models.Playlist

	pending  action
	returnTo ViewState
	status   string
	err      error

	help help.Model
	keys keyMap
}

// NewModel creates a browser for sessionID. The session is created on first fetch if needed.
func NewModel(ctx context.Context, sessions services.Sessions, sessionID string) *Model {
	return &Model{
		ctx:       ctx,
		view:      PlaylistListView,
		sessions:  sessions,
		sessionID: sessionID,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init fetches the session's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.session != nil {
			m.playlistList.SetSize(m.listWidth(), m.listHeight())
		}
		if m.itemsReady {
			m.itemList.SetSize(m.listWidth(), m.listHeight())
		}
		return m, nil

	case tea.KeyMsg:
		if m.session == nil {
			if m.err != nil || key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ItemListView:
			return m.handleItemListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.session = data.session
		m.playlists = data.playlists
		m.setPlaylists()
		if m.selected != nil {
			m.reselect()
		}
		return m, nil

	case MsgCurrentChanged:
		data := msg.data.(actionDone)
		if data.err != nil {
			m.status = styles.Err(fmt.Sprintf("Could not set current playlist: %v", data.err))
			return m, nil
		}
		m.status = styles.OK(fmt.Sprintf("✓ Current playlist is now %q", data.name))
		return m, m.fetchPlaylists()

	case MsgPlaylistDeleted:
		data := msg.data.(actionDone)
		if data.err != nil {
			m.status = styles.Err(fmt.Sprintf("Could not delete playlist: %v", data.err))
			return m, nil
		}
		m.status = styles.OK(fmt.Sprintf("✓ Deleted %q", data.name))
		m.selected = nil
		m.view = PlaylistListView
		return m, m.fetchPlaylists()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.session == nil {
		return styles.Err(fmt.Sprintf("Error: %v\n\nPress any key to quit", m.err))
	}
	if m.session == nil {
		return "Loading playlists..."
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ItemListView:
		return m.renderItemList()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.status = ""
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.enter):
		if p := m.highlighted(); p != nil {
			m.openPlaylist(p)
		}
		return m, nil
	case key.Matches(msg, m.keys.current):
		if p := m.highlighted(); p != nil {
			m.confirm(actionSetCurrent, p)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if p := m.highlighted(); p != nil {
			if p.IsDefault() {
				m.status = styles.Warn("The default playlist cannot be deleted")
				return m, nil
			}
			m.confirm(actionDelete, p)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleItemListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.current):
		m.confirm(actionSetCurrent, m.selected)
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.selected == nil {
		m.pending = actionNone
		m.view = PlaylistListView
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.yes):
		act, name := m.pending, m.selected.Name
		m.pending = actionNone
		m.view = m.returnTo
		if act == actionDelete {
			return m, m.deletePlaylist(name)
		}
		return m, m.setCurrent(name)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.pending = actionNone
		m.view = m.returnTo
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) confirm(act action, p *models.Playlist) {
	m.selected = p
	m.pending = act
	m.returnTo = m.view
	m.view = ConfirmView
}

func (m *Model) highlighted() *models.Playlist {
	if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
		p := item.playlist
		return &p
	}
	return nil
}

func (m *Model) openPlaylist(p *models.Playlist) {
	m.selected = p

	items := make([]list.Item, len(p.Items))
	for i, raw := range p.Items {
		items[i] = mediaItem{index: i, raw: raw}
	}
	m.itemList = list.New(items, list.NewDefaultDelegate(), m.listWidth(), m.listHeight())
	m.itemList.Title = fmt.Sprintf("Items in '%s'", p.Name)
	m.itemsReady = true
	m.view = ItemListView
}

// reselect refreshes the selected playlist after a fetch, falling back to the list view when it is gone.
func (m *Model) reselect() {
	for i := range m.playlists {
		if m.playlists[i].Name == m.selected.Name {
			p := m.playlists[i]
			m.selected = &p
			return
		}
	}
	m.selected = nil
	if m.view == ItemListView {
		m.view = PlaylistListView
	}
}

func (m *Model) setPlaylists() {
	items := make([]list.Item, len(m.playlists))
	for i, p := range m.playlists {
		items[i] = playlistItem{playlist: p, current: p.Name == m.session.CurrentPlaylist}
	}

	index := m.playlistList.Index()
	m.playlistList = list.New(items, list.NewDefaultDelegate(), m.listWidth(), m.listHeight())
	m.playlistList.Title = fmt.Sprintf("Session %s", m.session.SessionID)
	if index < len(items) {
		m.playlistList.Select(index)
	}
}

func (m *Model) listWidth() int  { return max(m.width-4, 0) }
func (m *Model) listHeight() int { return max(m.height-8, 0) }

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		sess, playlists, err := m.sessions.ListPlaylists(m.ctx, m.sessionID)
		return playlistsFetchedMsg(sess, playlists, err)
	}
}

func (m *Model) setCurrent(name string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.sessions.SetCurrentPlaylist(m.ctx, m.sessionID, name)
		return currentChangedMsg(name, err)
	}
}

func (m *Model) deletePlaylist(name string) tea.Cmd {
	return func() tea.Msg {
		return playlistDeletedMsg(name, m.sessions.DeletePlaylist(m.ctx, m.sessionID, name))
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.current, m.keys.remove, m.keys.refresh, m.keys.quit}
	return m.withStatus(m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderItemList() string {
	helpKeys := []key.Binding{m.keys.current, m.keys.back, m.keys.quit}
	return m.withStatus(m.itemList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	var question string
	switch m.pending {
	case actionDelete:
		question = fmt.Sprintf("Delete '%s'?", m.selected.Name)
	default:
		question = fmt.Sprintf("Make '%s' the current playlist?", m.selected.Name)
	}

	title := styles.Title(question)
	info := fmt.Sprintf("\nSession: %s\nItems: %d\n", m.sessionID, m.selected.Items.Len())
	if m.pending == actionDelete && m.selected.Name == m.session.CurrentPlaylist {
		info += styles.Warn(fmt.Sprintf("This is the current playlist; the session will switch to %q.\n", models.DefaultPlaylist))
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) withStatus(body, helpView string) string {
	if m.status == "" {
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}
	return fmt.Sprintf("%s\n%s\n\n%s", body, m.status, helpView)
}
