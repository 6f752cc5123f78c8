package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/services"
	"github.com/desertthunder/playq/internal/shared"
)

const healthMessage = "Playlist API is running"

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type itemsRequest struct {
	Items json.RawMessage `json:"items"`
}

type currentRequest struct {
	PlaylistName string `json:"playlist_name"`
}

// parseItems reads the items field of a request body. Absent or null items are an empty list.
func parseItems(r *http.Request) (models.Items, error) {
	body := decodeBody[itemsRequest](r)
	items, err := models.ParseItems(body.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadRequest, err)
	}
	return items, nil
}

// urlParam returns the decoded path parameter key.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// SessionHandler serves the per-session playlist endpoints and the health check.
type SessionHandler struct {
	sessions services.Sessions
	logger   *log.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions services.Sessions, logger *log.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// Routes registers the session and playlist endpoints.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/session", h.createSession)
	r.Get("/health", h.health)

	r.Get("/playlists/{sessionId}", h.listPlaylists)
	r.Get("/playlists/{sessionId}/{name}", h.getPlaylist)
	r.Post("/playlists/{sessionId}/{name}", h.createPlaylist)
	r.Put("/playlists/{sessionId}/{name}", h.updatePlaylist)
	r.Delete("/playlists/{sessionId}/{name}", h.deletePlaylist)

	r.Put("/session/{sessionId}/current-playlist", h.setCurrentPlaylist)
}

// createSession takes the identifier from the body, then the X-Session-ID header, else generates one.
func (h *SessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	sessionID := decodeBody[sessionRequest](r).SessionID
	if sessionID == "" {
		sessionID = r.Header.Get("X-Session-ID")
	}

	sess, err := h.sessions.GetOrCreateSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &sessionResponse{Envelope: success(), Session: sess})
}

func (h *SessionHandler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	sess, playlists, err := h.sessions.ListPlaylists(r.Context(), urlParam(r, "sessionId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &playlistsResponse{Envelope: success(), Playlists: playlists, CurrentPlaylist: sess.CurrentPlaylist})
}

func (h *SessionHandler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := h.sessions.GetPlaylist(r.Context(), urlParam(r, "sessionId"), urlParam(r, "name"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &playlistResponse{Envelope: success(), Playlist: p})
}

func (h *SessionHandler) createPlaylist(w http.ResponseWriter, r *http.Request) {
	items, err := parseItems(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	p, err := h.sessions.CreatePlaylist(r.Context(), urlParam(r, "sessionId"), urlParam(r, "name"), items)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &playlistResponse{Envelope: success(), Playlist: p})
}

func (h *SessionHandler) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	items, err := parseItems(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	p, err := h.sessions.UpdatePlaylist(r.Context(), urlParam(r, "sessionId"), urlParam(r, "name"), items)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &playlistResponse{Envelope: success(), Playlist: p})
}

func (h *SessionHandler) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeletePlaylist(r.Context(), urlParam(r, "sessionId"), urlParam(r, "name")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &messageResponse{Envelope: success(), Message: "Playlist deleted"})
}

func (h *SessionHandler) setCurrentPlaylist(w http.ResponseWriter, r *http.Request) {
	name := decodeBody[currentRequest](r).PlaylistName

	current, err := h.sessions.SetCurrentPlaylist(r.Context(), urlParam(r, "sessionId"), name)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &currentResponse{Envelope: success(), CurrentPlaylist: current})
}

func (h *SessionHandler) health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.Stats(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &healthResponse{Envelope: success(), Message: healthMessage, Stats: stats})
}

// GlobalHandler serves the endpoints of the shared global session.
type GlobalHandler struct {
	global *services.GlobalSession
	logger *log.Logger
}

// NewGlobalHandler creates a GlobalHandler.
func NewGlobalHandler(global *services.GlobalSession, logger *log.Logger) *GlobalHandler {
	return &GlobalHandler{global: global, logger: logger}
}

// Routes registers the global session endpoints.
func (h *GlobalHandler) Routes(r chi.Router) {
	r.Post("/global-session", h.session)
	r.Get("/global-playlists", h.listPlaylists)
	r.Put("/global-playlists/{name}", h.upsertPlaylist)
	r.Delete("/global-playlists/{name}", h.deletePlaylist)
	r.Put("/global-current-playlist", h.setCurrentPlaylist)
}

func (h *GlobalHandler) session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.global.Session(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &sessionResponse{Envelope: success(), Session: sess})
}

func (h *GlobalHandler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	sess, byName, err := h.global.Playlists(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &globalPlaylistsResponse{Envelope: success(), Playlists: byName, CurrentPlaylist: sess.CurrentPlaylist})
}

func (h *GlobalHandler) upsertPlaylist(w http.ResponseWriter, r *http.Request) {
	items, err := parseItems(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	p, _, err := h.global.Upsert(r.Context(), urlParam(r, "name"), items)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &playlistResponse{Envelope: success(), Playlist: p})
}

func (h *GlobalHandler) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := h.global.Delete(r.Context(), urlParam(r, "name")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &messageResponse{Envelope: success(), Message: "Playlist deleted"})
}

func (h *GlobalHandler) setCurrentPlaylist(w http.ResponseWriter, r *http.Request) {
	name := decodeBody[currentRequest](r).PlaylistName

	current, err := h.global.SetCurrent(r.Context(), name)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &currentResponse{Envelope: success(), CurrentPlaylist: current})
}

type feedRequest struct {
	FeedURL string `json:"feed_url"`
}

// FeedHandler serves RSS/Atom normalization.
type FeedHandler struct {
	feeds  services.FeedParser
	logger *log.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(feeds services.FeedParser, logger *log.Logger) *FeedHandler {
	return &FeedHandler{feeds: feeds, logger: logger}
}

// Routes registers the feed endpoint.
func (h *FeedHandler) Routes(r chi.Router) {
	r.Post("/parse-rss", h.parse)
}

func (h *FeedHandler) parse(w http.ResponseWriter, r *http.Request) {
	feedURL := decodeBody[feedRequest](r).FeedURL

	result, err := h.feeds.ParseFeed(r.Context(), feedURL)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.Render(w, r, &feedResponse{Envelope: success(), FeedResult: result})
}
