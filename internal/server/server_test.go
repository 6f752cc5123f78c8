package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/playq/internal/services"
	"github.com/desertthunder/playq/internal/shared"
	tu "github.com/desertthunder/playq/internal/testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := shared.NewLogger(nil)
	sessions := services.NewPlaylistService(tu.NewTestStore(t), &tu.MockPublisher{}, logger)
	feeds := services.NewFeedService(
		shared.FeedsConfig{Timeout: shared.Duration{Duration: 5 * time.Second}, UserAgent: "playq-test"},
		nil, logger,
	)

	router := NewRouter(RouterOptions{
		Prefix: "/api",
		Logger: logger,
		Handlers: []Handler{
			NewSessionHandler(sessions, logger),
			NewGlobalHandler(services.NewGlobalSession(sessions, "global_test"), logger),
			NewFeedHandler(feeds, logger),
		},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// call sends body as raw JSON and decodes the response object.
func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func playlistNames(t *testing.T, out map[string]any) []string {
	t.Helper()
	list, ok := out["playlists"].([]any)
	require.True(t, ok, "playlists should be an array: %v", out)

	var names []string
	for _, p := range list {
		names = append(names, p.(map[string]any)["name"].(string))
	}
	return names
}

func TestSessionEndpoints(t *testing.T) {
	t.Run("create session from body", func(t *testing.T) {
		srv := newTestServer(t)

		status, out := call(t, srv, http.MethodPost, "/api/session", `{"session_id":"s1"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, out["success"])
		sess := out["session"].(map[string]any)
		assert.Equal(t, "s1", sess["session_id"])
		assert.Equal(t, "default", sess["current_playlist"])
	})

	t.Run("create session from header", func(t *testing.T) {
		srv := newTestServer(t)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/session", nil)
		require.NoError(t, err)
		req.Header.Set("X-Session-ID", "from-header")
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "from-header", out["session"].(map[string]any)["session_id"])
	})

	t.Run("generates an identifier", func(t *testing.T) {
		srv := newTestServer(t)

		status, out := call(t, srv, http.MethodPost, "/api/session", "")
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, out["session"].(map[string]any)["session_id"])
	})

	t.Run("malformed body is treated as empty", func(t *testing.T) {
		srv := newTestServer(t)

		status, out := call(t, srv, http.MethodPost, "/api/session", `{not json`)
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, out["session"].(map[string]any)["session_id"])
	})
}

func TestPlaylistEndpoints(t *testing.T) {
	t.Run("session, favs, current, delete", func(t *testing.T) {
		srv := newTestServer(t)

		status, _ := call(t, srv, http.MethodPost, "/api/session", `{"session_id":"s1"}`)
		require.Equal(t, http.StatusOK, status)

		status, out := call(t, srv, http.MethodPost, "/api/playlists/s1/favs", `{"items":[{"id":1}]}`)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "favs", out["playlist"].(map[string]any)["name"])

		status, out = call(t, srv, http.MethodPut, "/api/session/s1/current-playlist", `{"playlist_name":"favs"}`)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "favs", out["current_playlist"])

		status, _ = call(t, srv, http.MethodDelete, "/api/playlists/s1/favs", "")
		require.Equal(t, http.StatusOK, status)

		status, out = call(t, srv, http.MethodGet, "/api/playlists/s1", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "default", out["current_playlist"])
		assert.Equal(t, []string{"default"}, playlistNames(t, out))
	})

	t.Run("list creates the session", func(t *testing.T) {
		srv := newTestServer(t)

		status, out := call(t, srv, http.MethodGet, "/api/playlists/fresh", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{"default"}, playlistNames(t, out))
	})

	t.Run("get", func(t *testing.T) {
		srv := newTestServer(t)
		call(t, srv, http.MethodPost, "/api/playlists/s1/mix", `{"items":["a","b"]}`)

		status, out := call(t, srv, http.MethodGet, "/api/playlists/s1/mix", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []any{"a", "b"}, out["playlist"].(map[string]any)["items"])

		status, out = call(t, srv, http.MethodGet, "/api/playlists/s1/missing", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, false, out["success"])
		assert.NotEmpty(t, out["error"])
	})

	t.Run("escaped names", func(t *testing.T) {
		srv := newTestServer(t)

		status, _ := call(t, srv, http.MethodPost, "/api/playlists/s1/road%20trip", `{"items":[]}`)
		require.Equal(t, http.StatusOK, status)

		status, out := call(t, srv, http.MethodGet, "/api/playlists/s1/road%20trip", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "road trip", out["playlist"].(map[string]any)["name"])
	})

	t.Run("update replaces items", func(t *testing.T) {
		srv := newTestServer(t)
		call(t, srv, http.MethodPost, "/api/playlists/s1/mix", `{"items":[1,2,3]}`)

		status, out := call(t, srv, http.MethodPut, "/api/playlists/s1/mix", `{"items":[4]}`)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []any{float64(4)}, out["playlist"].(map[string]any)["items"])
	})

	t.Run("missing items is an empty list", func(t *testing.T) {
		srv := newTestServer(t)

		status, out := call(t, srv, http.MethodPost, "/api/playlists/s1/empty", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []any{}, out["playlist"].(map[string]any)["items"])
	})

	tt := []struct {
		name   string
		method string
		path   string
		body   string
		setup  []string
		status int
	}{
		{name: "duplicate create", method: http.MethodPost, path: "/api/playlists/s1/mix", body: `{"items":[]}`,
			setup: []string{"/api/playlists/s1/mix"}, status: http.StatusBadRequest},
		{name: "create default", method: http.MethodPost, path: "/api/playlists/s1/default", body: `{"items":[]}`,
			setup: []string{"/api/playlists/s1/other"}, status: http.StatusBadRequest},
		{name: "items not an array", method: http.MethodPost, path: "/api/playlists/s1/bad", body: `{"items":{"a":1}}`,
			status: http.StatusBadRequest},
		{name: "update missing", method: http.MethodPut, path: "/api/playlists/s1/nope", body: `{"items":[]}`,
			status: http.StatusNotFound},
		{name: "delete default", method: http.MethodDelete, path: "/api/playlists/s1/default",
			setup: []string{"/api/playlists/s1/other"}, status: http.StatusBadRequest},
		{name: "delete missing", method: http.MethodDelete, path: "/api/playlists/s1/nope",
			status: http.StatusNotFound},
		{name: "current missing name", method: http.MethodPut, path: "/api/session/s1/current-playlist", body: `{}`,
			status: http.StatusBadRequest},
		{name: "current unknown playlist", method: http.MethodPut, path: "/api/session/s1/current-playlist",
			body: `{"playlist_name":"ghost"}`, status: http.StatusNotFound},
		{name: "name too long", method: http.MethodPost, path: "/api/playlists/s1/" + strings.Repeat("x", 101),
			body: `{"items":[]}`, status: http.StatusBadRequest},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t)
			for _, p := range tc.setup {
				status, _ := call(t, srv, http.MethodPost, p, `{"items":[]}`)
				require.Equal(t, http.StatusOK, status)
			}

			status, out := call(t, srv, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestGlobalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, out := call(t, srv, http.MethodPost, "/api/global-session", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "global_test", out["session"].(map[string]any)["session_id"])

	status, _ = call(t, srv, http.MethodPut, "/api/global-playlists/party", `{"items":["x"]}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodPut, "/api/global-playlists/party", `{"items":["y","z"]}`)
	require.Equal(t, http.StatusOK, status)

	status, out = call(t, srv, http.MethodGet, "/api/global-playlists", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"default": []any{}, "party": []any{"y", "z"}}, out["playlists"])
	assert.Equal(t, "default", out["current_playlist"])

	status, out = call(t, srv, http.MethodPut, "/api/global-current-playlist", `{"playlist_name":"party"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "party", out["current_playlist"])

	status, _ = call(t, srv, http.MethodDelete, "/api/global-playlists/party", "")
	require.Equal(t, http.StatusOK, status)

	status, out = call(t, srv, http.MethodGet, "/api/global-playlists", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "default", out["current_playlist"])

	status, _ = call(t, srv, http.MethodDelete, "/api/global-playlists/default", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFeedEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("normalizes a feed", func(t *testing.T) {
		feed, _ := tu.NewFeedServer(t, http.StatusOK, "application/rss+xml", tu.SampleRSS)

		body, err := json.Marshal(map[string]string{"feed_url": feed.URL})
		require.NoError(t, err)

		status, out := call(t, srv, http.MethodPost, "/api/parse-rss", string(body))
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, out["success"])
		assert.NotEmpty(t, out["feed_title"])
		assert.Len(t, out["entries"], 3)
	})

	t.Run("missing url", func(t *testing.T) {
		status, out := call(t, srv, http.MethodPost, "/api/parse-rss", `{}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, out["success"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		feed, _ := tu.NewFeedServer(t, http.StatusBadGateway, "text/plain", "nope")

		body, err := json.Marshal(map[string]string{"feed_url": feed.URL})
		require.NoError(t, err)

		status, _ := call(t, srv, http.MethodPost, "/api/parse-rss", string(body))
		assert.Equal(t, http.StatusInternalServerError, status)
	})
}

func TestRouter(t *testing.T) {
	srv := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		call(t, srv, http.MethodPost, "/api/session", `{"session_id":"h1"}`)

		status, out := call(t, srv, http.MethodGet, "/api/health", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Playlist API is running", out["message"])
		assert.Equal(t, float64(1), out["total_playlists"])
		assert.Equal(t, float64(1), out["total_sessions"])
	})

	t.Run("unknown route", func(t *testing.T) {
		status, out := call(t, srv, http.MethodGet, "/api/nope", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, false, out["success"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		status, out := call(t, srv, http.MethodPatch, "/api/session", "")
		assert.Equal(t, http.StatusMethodNotAllowed, status)
		assert.Equal(t, false, out["success"])
	})

	t.Run("cors", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/session", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := srv.Client().Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "playq_http_requests_total")
	})

	t.Run("request id header", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-Id", "req-123")

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestStatusFor(t *testing.T) {
	tt := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: shared.ErrPlaylistNotFound, want: http.StatusNotFound},
		{name: "conflict", err: shared.ErrPlaylistExists, want: http.StatusBadRequest},
		{name: "forbidden", err: shared.ErrDefaultProtected, want: http.StatusBadRequest},
		{name: "bad request", err: shared.ErrMissingName, want: http.StatusBadRequest},
		{name: "fetch", err: shared.ErrFetch, want: http.StatusInternalServerError},
		{name: "other", err: io.ErrUnexpectedEOF, want: http.StatusInternalServerError},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestDecodeBody(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"session_id":"abc"}`))
		assert.Equal(t, "abc", decodeBody[sessionRequest](r).SessionID)
	})

	t.Run("malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"session_id":`))
		assert.Equal(t, sessionRequest{}, decodeBody[sessionRequest](r))
	})

	t.Run("wrong type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"session_id":42}`))
		assert.Equal(t, sessionRequest{}, decodeBody[sessionRequest](r))
	})
}

func TestServerServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := New(shared.ServerConfig{ShutdownTimeout: shared.Duration{Duration: time.Second}}, handler, shared.NewLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
