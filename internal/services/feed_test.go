package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
	tu "github.com/desertthunder/playq/internal/testing"
)

func newTestFeedService(client *http.Client) *FeedService {
	cfg := shared.FeedsConfig{Timeout: shared.Duration{Duration: 5 * time.Second}, UserAgent: "playq-test"}
	return NewFeedService(cfg, client, shared.NewLogger(nil))
}

func TestParseFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("empty url is rejected without network", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("network must not be used"))
		svc := newTestFeedService(&http.Client{Transport: rt})

		_, err := svc.ParseFeed(ctx, "")
		assert.ErrorIs(t, err, shared.ErrBadRequest)

		_, err = svc.ParseFeed(ctx, "   ")
		assert.ErrorIs(t, err, shared.ErrBadRequest)
	})

	t.Run("RSS", func(t *testing.T) {
		srv, hits := tu.NewFeedServer(t, http.StatusOK, "application/rss+xml", tu.SampleRSS)
		svc := newTestFeedService(nil)

		result, err := svc.ParseFeed(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, 1, hits())

		assert.Equal(t, "Sample Podcast", result.FeedTitle)
		assert.Equal(t, "https://example.com/", result.FeedLink)
		require.Len(t, result.Entries, 3)

		first := result.Entries[0]
		assert.Equal(t, "Episode 1", first.Title)
		assert.Equal(t, "https://example.com/1", first.Link)
		assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", first.Published)
		assert.Equal(t, "First episode", first.Summary)
		assert.Contains(t, first.Author, "Host")
		require.NotNil(t, first.ID)
		assert.Equal(t, "ep-1", *first.ID)
		require.Len(t, first.MediaContent, 1)
		assert.Equal(t, "https://example.com/1.mp3", first.MediaContent[0]["url"])
		assert.Equal(t, "audio/mpeg", first.MediaContent[0]["type"])

		second := result.Entries[1]
		assert.Equal(t, "", second.Author, "missing author is an empty string")
		require.NotNil(t, second.ID)
		assert.Equal(t, "https://example.com/2", *second.ID, "id falls back to link")
		assert.NotNil(t, second.MediaContent)
		assert.Empty(t, second.MediaContent)

		third := result.Entries[2]
		assert.Equal(t, models.DefaultEntryTitle, third.Title)
		assert.Equal(t, models.DefaultLink, third.Link)
		assert.Nil(t, third.ID)
		assert.Equal(t, "", third.Published)
	})

	t.Run("Atom", func(t *testing.T) {
		srv, _ := tu.NewFeedServer(t, http.StatusOK, "application/atom+xml", tu.SampleAtom)
		svc := newTestFeedService(nil)

		result, err := svc.ParseFeed(ctx, srv.URL)
		require.NoError(t, err)

		assert.Equal(t, "Sample Atom", result.FeedTitle)
		require.Len(t, result.Entries, 1)
		entry := result.Entries[0]
		assert.Equal(t, "Atom Entry", entry.Title)
		assert.Equal(t, "Writer", entry.Author)
		assert.Equal(t, "Atom summary", entry.Summary)
		require.NotNil(t, entry.ID)
		assert.Equal(t, "urn:uuid:entry-1", *entry.ID)
	})

	t.Run("non-2xx is a fetch error", func(t *testing.T) {
		srv, _ := tu.NewFeedServer(t, http.StatusNotFound, "text/plain", "missing")
		svc := newTestFeedService(nil)

		_, err := svc.ParseFeed(ctx, srv.URL)
		assert.ErrorIs(t, err, shared.ErrFetch)
	})

	t.Run("unparseable document is a fetch error", func(t *testing.T) {
		srv, _ := tu.NewFeedServer(t, http.StatusOK, "text/plain", "this is not a feed")
		svc := newTestFeedService(nil)

		_, err := svc.ParseFeed(ctx, srv.URL)
		assert.ErrorIs(t, err, shared.ErrFetch)
	})

	t.Run("truncated RSS keeps complete items", func(t *testing.T) {
		body := `<rss><channel><title>T</title><item><title>A</title><link>http://x/1</link></item><item><title>B</tit`
		srv, _ := tu.NewFeedServer(t, http.StatusOK, "application/rss+xml", body)
		svc := newTestFeedService(nil)

		result, err := svc.ParseFeed(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "T", result.FeedTitle)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "A", result.Entries[0].Title)
		assert.Equal(t, "http://x/1", result.Entries[0].Link)
	})

	t.Run("truncated Atom keeps complete entries", func(t *testing.T) {
		cut := strings.Index(tu.SampleAtom, "</feed>")
		body := tu.SampleAtom[:cut] + "<entry><title>Half"
		srv, _ := tu.NewFeedServer(t, http.StatusOK, "application/atom+xml", body)
		svc := newTestFeedService(nil)

		result, err := svc.ParseFeed(ctx, srv.URL)
		require.NoError(t, err)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "Atom Entry", result.Entries[0].Title)
	})

	t.Run("truncated before any item is a fetch error", func(t *testing.T) {
		srv, _ := tu.NewFeedServer(t, http.StatusOK, "application/rss+xml", `<rss><channel><title>T</title><item><title>A`)
		svc := newTestFeedService(nil)

		_, err := svc.ParseFeed(ctx, srv.URL)
		assert.ErrorIs(t, err, shared.ErrFetch)
	})

	t.Run("transport failure is a fetch error", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
		svc := newTestFeedService(&http.Client{Transport: rt})

		_, err := svc.ParseFeed(ctx, "http://feeds.invalid/rss")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrFetch)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, _ := tu.NewFeedServer(t, http.StatusOK, "application/rss+xml", tu.SampleRSS)
		svc := newTestFeedService(nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.ParseFeed(cctx, srv.URL)
		assert.ErrorIs(t, err, shared.ErrFetch)
	})
}

func TestTruncateToLastEntry(t *testing.T) {
	tt := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "rss", in: "<rss><channel><item>a</item><item>b", want: "<rss><channel><item>a</item></channel></rss>", ok: true},
		{name: "rdf", in: "<rdf:RDF><channel/><item>a</item><it", want: "<rdf:RDF><channel/><item>a</item></rdf:RDF>", ok: true},
		{name: "atom", in: "<feed><entry>a</entry><entry>b", want: "<feed><entry>a</entry></feed>", ok: true},
		{name: "no entries", in: "<rss><channel><title>T", ok: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := truncateToLastEntry([]byte(tc.in))
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, string(got))
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("feed defaults", func(t *testing.T) {
		result := Normalize(&gofeed.Feed{})
		assert.Equal(t, models.DefaultFeedTitle, result.FeedTitle)
		assert.Equal(t, models.DefaultLink, result.FeedLink)
		assert.NotNil(t, result.Entries)
	})

	t.Run("author fallbacks", func(t *testing.T) {
		tt := []struct {
			name string
			item *gofeed.Item
			want string
		}{
			{name: "none", item: &gofeed.Item{}, want: ""},
			{name: "name", item: &gofeed.Item{Author: &gofeed.Person{Name: "A"}}, want: "A"},
			{name: "email only", item: &gofeed.Item{Author: &gofeed.Person{Email: "a@example.com"}}, want: "a@example.com"},
			{name: "authors list", item: &gofeed.Item{Authors: []*gofeed.Person{{Name: "B"}}}, want: "B"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, tc.want, authorOf(tc.item))
			})
		}
	})

	t.Run("media group content", func(t *testing.T) {
		item := &gofeed.Item{
			Extensions: ext.Extensions{
				"media": {
					"group": {{
						Name: "group",
						Children: map[string][]ext.Extension{
							"content": {{Name: "content", Attrs: map[string]string{"url": "https://example.com/v.mp4"}}},
						},
					}},
				},
			},
		}

		media := mediaContent(item.Extensions)
		require.Len(t, media, 1)
		assert.Equal(t, "https://example.com/v.mp4", media[0]["url"])
	})

	t.Run("summary falls back to content", func(t *testing.T) {
		entry := normalizeItem(&gofeed.Item{Content: "<p>body</p>"})
		assert.Equal(t, "<p>body</p>", entry.Summary)
	})
}

func TestFeedServiceRateLimit(t *testing.T) {
	srv, hits := tu.NewFeedServer(t, http.StatusOK, "application/rss+xml", tu.SampleRSS)
	cfg := shared.FeedsConfig{
		Timeout:   shared.Duration{Duration: 500 * time.Millisecond},
		RateLimit: 0.001,
		Burst:     1,
	}
	svc := NewFeedService(cfg, nil, shared.NewLogger(nil))

	_, err := svc.ParseFeed(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = svc.ParseFeed(context.Background(), srv.URL)
	assert.ErrorIs(t, err, shared.ErrFetch, "second call cannot get a token before the timeout")
	assert.Equal(t, 1, hits())
}
