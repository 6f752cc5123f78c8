// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/playq/internal/events"
	"github.com/desertthunder/playq/internal/repositories"
	"github.com/desertthunder/playq/internal/shared"
)

// NewTestStore creates a [repositories.Store] over a migrated in-memory SQLite database.
// The database is closed when the test ends.
func NewTestStore(t *testing.T) *repositories.Store {
	t.Helper()

	db, err := shared.NewDatabase(shared.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db, shared.DialectSQLite); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return repositories.NewStore(db, shared.DialectSQLite)
}

// NewFileTestStore creates a [repositories.Store] over a migrated SQLite file in t.TempDir(),
// opened with the same pool and locking settings the server uses.
func NewFileTestStore(t *testing.T) *repositories.Store {
	t.Helper()

	db, err := shared.OpenDatabase(shared.DatabaseConfig{
		Driver:       shared.DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "playq.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 8,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db, shared.DialectSQLite); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return repositories.NewStore(db, shared.DialectSQLite)
}

// MockPublisher is a test double for [events.Publisher] that records every event.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.Err
}

func (m *MockPublisher) Close() error { return nil }

// Events returns a copy of the recorded events.
func (m *MockPublisher) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.events...)
}

// Types returns the recorded event types in order.
func (m *MockPublisher) Types() []events.Type {
	var types []events.Type
	for _, e := range m.Events() {
		types = append(types, e.Type)
	}
	return types
}

// NewFeedServer serves body with the given status and content type. The returned func reports
// how many requests were served. The server is closed when the test ends.
func NewFeedServer(t *testing.T, status int, contentType, body string) (*httptest.Server, func() int) {
	t.Helper()

	var (
		mu   sync.Mutex
		hits int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return hits
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Sample feeds used across packages.
const (
	SampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Sample Podcast</title>
    <link>https://example.com/</link>
    <description>Episodes</description>
    <item>
      <title>Episode 1</title>
      <link>https://example.com/1</link>
      <guid>ep-1</guid>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <description>First episode</description>
      <author>host@example.com (Host)</author>
      <media:content url="https://example.com/1.mp3" type="audio/mpeg" medium="audio"/>
    </item>
    <item>
      <title>Episode 2</title>
      <link>https://example.com/2</link>
      <description>Second episode</description>
    </item>
    <item>
      <description>Untitled and unlinked</description>
    </item>
  </channel>
</rss>`

	SampleAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Sample Atom</title>
  <link href="https://example.org/"/>
  <id>urn:uuid:feed</id>
  <updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.org/entry"/>
    <id>urn:uuid:entry-1</id>
    <updated>2024-01-01T00:00:00Z</updated>
    <summary>Atom summary</summary>
    <author><name>Writer</name></author>
  </entry>
</feed>`
)
