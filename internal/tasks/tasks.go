package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/playq/internal/formatter"
	"github.com/desertthunder/playq/internal/services"
	"github.com/desertthunder/playq/internal/shared"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "feeds_manifest.json"
)

// BulkParseOpts contains configuration for bulk feed parsing.
type BulkParseOpts struct {
	Format     formatter.Format // Output format for each feed
	OutputDir  string           // Base output directory (default: feeds_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Feeds dispatched per second (default: 5)
}

// FeedParseJob is one queued feed.
type FeedParseJob struct {
	Index int
	URL   string
}

// FeedParseResult is the outcome for one feed.
type FeedParseResult struct {
	Index   int
	URL     string
	Title   string
	Entries int
	Success bool
	Files   []string
	Error   error
}

// BulkParseResult summarizes a bulk run.
type BulkParseResult struct {
	TotalFeeds      int
	Successful      int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []FeedParseResult // Ordered as the input URLs
}

// FeedEngine runs feed operations against a [services.FeedParser].
type FeedEngine struct {
	feeds services.FeedParser
}

// NewFeedEngine creates a new FeedEngine.
func NewFeedEngine(feeds services.FeedParser) *FeedEngine {
	return &FeedEngine{feeds: feeds}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *FeedEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// BulkParse parses urls concurrently with rate-limited dispatch and writes one file per feed
// plus a manifest into opts.OutputDir. Blank URLs are ignored.
func (e *FeedEngine) BulkParse(ctx context.Context, prog chan<- ProgressUpdate, urls []string, opts BulkParseOpts) (*BulkParseResult, error) {
	if e.feeds == nil {
		return nil, fmt.Errorf("%w: feed parser not initialized", shared.ErrMissingArgument)
	}

	urls = compact(urls)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no feed URLs given", shared.ErrMissingArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("feeds_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Format == "" {
		opts.Format = formatter.JSON
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkParseResult{
		TotalFeeds:      len(urls),
		OutputDirectory: opts.OutputDir,
		Results:         make([]FeedParseResult, 0, len(urls)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan FeedParseJob, len(urls))
	results := make(chan FeedParseResult, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.parseWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, u := range urls {
			if err := limiter.Wait(ctx); err != nil {
				for j := i; j < len(urls); j++ {
					results <- FeedParseResult{Index: j, URL: urls[j], Error: fmt.Errorf("not dispatched: %w", ctx.Err())}
				}
				return
			}
			jobs <- FeedParseJob{Index: i, URL: u}
			e.sendProgress(prog, queueUpdate(i+1, len(urls), u))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(prog, parsedUpdate(completed, len(urls), res))
		} else {
			result.Failed++
			e.sendProgress(prog, failedUpdate(completed, len(urls), res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].Index < result.Results[j].Index })

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := formatter.WriteManifest(buildManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("parse completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

// parseWorker drains jobs until the channel closes. Jobs received after cancellation fail
// without a fetch.
func (e *FeedEngine) parseWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan FeedParseJob,
	results chan<- FeedParseResult,
	opts BulkParseOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- FeedParseResult{Index: job.Index, URL: job.URL, Error: fmt.Errorf("not dispatched: %w", err)}
			continue
		}
		results <- e.parseSingleFeed(ctx, job, opts)
	}
}

func (e *FeedEngine) parseSingleFeed(ctx context.Context, job FeedParseJob, opts BulkParseOpts) FeedParseResult {
	res := FeedParseResult{Index: job.Index, URL: job.URL, Files: []string{}}

	feed, err := e.feeds.ParseFeed(ctx, job.URL)
	if err != nil {
		res.Error = err
		return res
	}
	res.Title = feed.FeedTitle
	res.Entries = len(feed.Entries)

	base := filepath.Join(opts.OutputDir, fmt.Sprintf("%03d_%s", job.Index+1, formatter.Slug(feed.FeedTitle)))
	path, err := formatter.WriteExport(feed, opts.Format, base)
	if err != nil {
		res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return res
	}

	res.Files = []string{path}
	res.Success = true
	return res
}

func buildManifest(result *BulkParseResult, format formatter.Format) *formatter.Manifest {
	m := &formatter.Manifest{
		Format:      format,
		GeneratedAt: time.Now().UTC(),
		OutputDir:   result.OutputDirectory,
		TotalFeeds:  result.TotalFeeds,
		Successful:  result.Successful,
		Failed:      result.Failed,
		Feeds:       make([]formatter.ManifestFeed, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		feed := formatter.ManifestFeed{
			URL:     res.URL,
			Title:   res.Title,
			Entries: res.Entries,
			Files:   res.Files,
			Status:  "success",
		}
		if !res.Success {
			feed.Status = "failed"
			if res.Error != nil {
				feed.Error = res.Error.Error()
			}
		}
		m.Feeds = append(m.Feeds, feed)
	}
	return m
}

func compact(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
