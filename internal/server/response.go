package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/render"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Envelope is embedded in every success response.
type Envelope struct {
	Success bool `json:"success"`
}

func (Envelope) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusOK)
	return nil
}

func success() Envelope { return Envelope{Success: true} }

type errorResponse struct {
	HTTPStatusCode int    `json:"-"`
	Success        bool   `json:"success"`
	ErrorText      string `json:"error"`
}

func (er *errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, er.HTTPStatusCode)
	return nil
}

type sessionResponse struct {
	Envelope
	Session *models.Session `json:"session"`
}

type playlistsResponse struct {
	Envelope
	Playlists       []models.Playlist `json:"playlists"`
	CurrentPlaylist string            `json:"current_playlist"`
}

type globalPlaylistsResponse struct {
	Envelope
	Playlists       map[string]models.Items `json:"playlists"`
	CurrentPlaylist string                  `json:"current_playlist"`
}

type playlistResponse struct {
	Envelope
	Playlist *models.Playlist `json:"playlist"`
}

type currentResponse struct {
	Envelope
	CurrentPlaylist string `json:"current_playlist"`
}

type messageResponse struct {
	Envelope
	Message string `json:"message"`
}

type healthResponse struct {
	Envelope
	Message string `json:"message"`
	models.Stats
}

type feedResponse struct {
	Envelope
	*models.FeedResult
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrBadRequest),
		errors.Is(err, shared.ErrConflict),
		errors.Is(err, shared.ErrForbidden):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders err with its mapped status. Server errors are logged.
func respondError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	render.Render(w, r, &errorResponse{HTTPStatusCode: status, ErrorText: err.Error()})
}

// decodeBody decodes a JSON request body into a T. A missing or malformed body yields the zero T.
func decodeBody[T any](r *http.Request) T {
	var zero T
	if r.Body == nil {
		return zero
	}

	var v T
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&v); err != nil {
		return zero
	}
	return v
}
