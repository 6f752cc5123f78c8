// package formatter renders normalized feed results as JSON, CSV, Markdown, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
)

// Format names an output format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists the supported formats in display order.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat validates name. "md" and "text" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %v)", shared.ErrInvalidArgument, name, Formats)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	default:
		return ".json"
	}
}

// Export renders result in format f.
func Export(result *models.FeedResult, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(result)
	case Markdown:
		return ExportToMarkdown(result)
	case Text:
		return ExportToText(result)
	default:
		return shared.MarshalJSON(result, true)
	}
}

// Write renders result in format f to w.
func Write(w io.Writer, result *models.FeedResult, f Format) error {
	data, err := Export(result, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", f, err)
	}
	return nil
}

// ExportToCSV converts a FeedResult to CSV with columns: Title, Link, Published, Author, ID, Summary, Media
func ExportToCSV(result *models.FeedResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Link", "Published", "Author", "ID", "Summary", "Media"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range result.Entries {
		record := []string{
			entry.Title,
			entry.Link,
			entry.Published,
			entry.Author,
			entryID(entry),
			entry.Summary,
			strings.Join(mediaURLs(entry), " "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a FeedResult to a Markdown document with one numbered line per entry.
func ExportToMarkdown(result *models.FeedResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", result.FeedTitle))
	if result.FeedLink != "" && result.FeedLink != models.DefaultLink {
		buf.WriteString(fmt.Sprintf("**Link**: <%s>\n", result.FeedLink))
	}
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(result.Entries)))

	buf.WriteString("## Entries\n\n")
	for i, entry := range result.Entries {
		line := fmt.Sprintf("%d. [%s](%s)", i+1, entry.Title, entry.Link)
		if entry.Author != "" {
			line += fmt.Sprintf(" by %s", entry.Author)
		}
		if entry.Published != "" {
			line += fmt.Sprintf(" (%s)", entry.Published)
		}
		buf.WriteString(line + "\n")
		for _, u := range mediaURLs(entry) {
			buf.WriteString(fmt.Sprintf("   - media: <%s>\n", u))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a FeedResult to plain text format
func ExportToText(result *models.FeedResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Feed: %s\n", result.FeedTitle))
	if result.FeedLink != "" && result.FeedLink != models.DefaultLink {
		buf.WriteString(fmt.Sprintf("Link: %s\n", result.FeedLink))
	}
	buf.WriteString(fmt.Sprintf("Entries: %d\n\n", len(result.Entries)))

	for i, entry := range result.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, entry.Title, entry.Link))
	}

	return buf.Bytes(), nil
}

// WriteExport writes result to {base}{ext} and returns the path.
func WriteExport(result *models.FeedResult, f Format, base string) (string, error) {
	if base == "" {
		base = Slug(result.FeedTitle)
	}

	data, err := Export(result, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	path := base + f.Ext()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

// ManifestFeed is one feed's outcome in a bulk manifest.
type ManifestFeed struct {
	URL     string   `json:"url"`
	Title   string   `json:"title,omitempty"`
	Status  string   `json:"status"`
	Entries int      `json:"entries"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Manifest summarizes a bulk feed export.
type Manifest struct {
	Format      Format         `json:"format"`
	GeneratedAt time.Time      `json:"generated_at"`
	OutputDir   string         `json:"output_directory"`
	TotalFeeds  int            `json:"total_feeds"`
	Successful  int            `json:"successful"`
	Failed      int            `json:"failed"`
	Feeds       []ManifestFeed `json:"feeds"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases title and joins its alphanumeric runs with underscores.
func Slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if s == "" {
		return "feed"
	}
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "_")
	}
	return s
}

func entryID(entry models.FeedEntry) string {
	if entry.ID == nil {
		return ""
	}
	return *entry.ID
}

func mediaURLs(entry models.FeedEntry) []string {
	var urls []string
	for _, m := range entry.MediaContent {
		if u := m["url"]; u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
