package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/time/rate"

	"github.com/desertthunder/playq/internal/metrics"
	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
)

// maxFeedBytes caps the size of a fetched feed document.
const maxFeedBytes = 10 << 20

// FeedService fetches RSS and Atom documents and normalizes them into [models.FeedResult].
type FeedService struct {
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	logger    *log.Logger
}

// NewFeedService creates a FeedService from cfg. A nil client gets one with the configured timeout.
// A non-positive rate limit disables limiting.
func NewFeedService(cfg shared.FeedsConfig, client *http.Client, logger *log.Logger) *FeedService {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &FeedService{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		timeout:   timeout,
		userAgent: cfg.UserAgent,
		logger:    shared.WithLogger(logger, "component", "feeds"),
	}
}

// ParseFeed fetches feedURL and normalizes its entries.
//
// An empty URL fails with [shared.ErrMissingFeedURL] before any network activity. Fetch and
// parse failures are wrapped in [shared.ErrFetch]. Missing entry fields are defaulted.
func (f *FeedService) ParseFeed(ctx context.Context, feedURL string) (result *models.FeedResult, err error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, shared.ErrMissingFeedURL
	}

	start := time.Now()
	defer func() {
		n := 0
		if result != nil {
			n = len(result.Entries)
		}
		metrics.ObserveFeedFetch(start, n, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}

	feed, err := f.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	result = Normalize(feed)
	if missing := countDefaulted(feed); missing > 0 {
		f.logger.Warn("feed entries missing title or link", "url", feedURL, "count", missing)
	}
	return result, nil
}

func (f *FeedService) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", shared.ErrFetch, resp.StatusCode, feedURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err == nil {
		return feed, nil
	}

	repaired, ok := truncateToLastEntry(data)
	if !ok {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}
	feed, rerr := gofeed.NewParser().Parse(bytes.NewReader(repaired))
	if rerr != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}

	f.logger.Warn("malformed feed, kept complete entries", "url", feedURL, "entries", len(feed.Items), "error", err)
	return feed, nil
}

// truncateToLastEntry cuts data after its last complete item or entry and closes the
// document, so a feed damaged or cut off part way through still yields its leading entries.
func truncateToLastEntry(data []byte) ([]byte, bool) {
	item := bytes.LastIndex(data, []byte("</item>"))
	entry := bytes.LastIndex(data, []byte("</entry>"))

	var end int
	var closing string
	switch {
	case item < 0 && entry < 0:
		return nil, false
	case entry > item:
		end, closing = entry+len("</entry>"), "</feed>"
	case bytes.Contains(data, []byte("<rdf:RDF")):
		end, closing = item+len("</item>"), "</rdf:RDF>"
	default:
		end, closing = item+len("</item>"), "</channel></rss>"
	}

	out := make([]byte, 0, end+len(closing))
	out = append(out, data[:end]...)
	return append(out, closing...), true
}

// Normalize converts a parsed feed into a [models.FeedResult], defaulting every missing field.
func Normalize(feed *gofeed.Feed) *models.FeedResult {
	result := &models.FeedResult{
		FeedTitle: orDefault(feed.Title, models.DefaultFeedTitle),
		FeedLink:  orDefault(feed.Link, models.DefaultLink),
		Entries:   make([]models.FeedEntry, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		result.Entries = append(result.Entries, normalizeItem(item))
	}
	return result
}

func normalizeItem(item *gofeed.Item) models.FeedEntry {
	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return models.FeedEntry{
		Title:        orDefault(item.Title, models.DefaultEntryTitle),
		Link:         orDefault(item.Link, models.DefaultLink),
		Published:    item.Published,
		Summary:      summary,
		Author:       authorOf(item),
		ID:           entryID(item),
		MediaContent: mediaContent(item.Extensions),
	}
}

func authorOf(item *gofeed.Item) string {
	author := item.Author
	if author == nil && len(item.Authors) > 0 {
		author = item.Authors[0]
	}
	if author == nil {
		return ""
	}
	if author.Name != "" {
		return author.Name
	}
	return author.Email
}

// entryID prefers the GUID, then the source link. Neither present yields nil.
func entryID(item *gofeed.Item) *string {
	switch {
	case item.GUID != "":
		id := item.GUID
		return &id
	case item.Link != "":
		id := item.Link
		return &id
	default:
		return nil
	}
}

// mediaContent collects the attributes of media:content elements, including those nested in media:group.
func mediaContent(extensions ext.Extensions) []map[string]string {
	out := []map[string]string{}
	media, ok := extensions["media"]
	if !ok {
		return out
	}

	collect := func(elems []ext.Extension) {
		for _, e := range elems {
			attrs := make(map[string]string, len(e.Attrs))
			for k, v := range e.Attrs {
				attrs[k] = v
			}
			out = append(out, attrs)
		}
	}

	collect(media["content"])
	for _, group := range media["group"] {
		collect(group.Children["content"])
	}
	return out
}

func countDefaulted(feed *gofeed.Feed) int {
	n := 0
	for _, item := range feed.Items {
		if item != nil && (item.Title == "" || item.Link == "") {
			n++
		}
	}
	return n
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
