package formatter

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/playq/internal/models"
	"github.com/desertthunder/playq/internal/shared"
	th "github.com/desertthunder/playq/internal/testing"
)

func strPtr(s string) *string { return &s }

func sampleResult() *models.FeedResult {
	return &models.FeedResult{
		FeedTitle: "Sample Podcast",
		FeedLink:  "https://example.com",
		Entries: []models.FeedEntry{
			{
				Title:     "Episode 1",
				Link:      "https://example.com/ep1",
				Published: "Mon, 02 Jan 2006 15:04:05 +0000",
				Summary:   "First, with a comma",
				Author:    "Host",
				ID:        strPtr("ep-1"),
				MediaContent: []map[string]string{
					{"url": "https://example.com/ep1.mp3", "type": "audio/mpeg"},
				},
			},
			{
				Title:        models.DefaultEntryTitle,
				Link:         models.DefaultLink,
				MediaContent: []map[string]string{},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: JSON},
		{in: "json", want: JSON},
		{in: "CSV", want: CSV},
		{in: "md", want: Markdown},
		{in: "markdown", want: Markdown},
		{in: "text", want: Text},
		{in: " txt ", want: Text},
		{in: "xml", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseFormat(%q) expected error", tc.in)
				}
				if !strings.Contains(err.Error(), shared.ErrInvalidArgument.Error()) {
					t.Errorf("error should wrap ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExporters(t *testing.T) {
	result := sampleResult()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(result)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Title,Link,Published,Author,ID,Summary,Media\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `"First, with a comma"`) {
			t.Errorf("CSV should quote fields containing commas, got: %s", output)
		}
		if !strings.Contains(output, "https://example.com/ep1.mp3") {
			t.Errorf("CSV missing media url")
		}
		if lines := strings.Count(output, "\n"); lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(result)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Sample Podcast",
			"**Link**: <https://example.com>",
			"**Entries**: 2",
			"## Entries",
			"1. [Episode 1](https://example.com/ep1) by Host (Mon, 02 Jan 2006 15:04:05 +0000)",
			"   - media: <https://example.com/ep1.mp3>",
			"2. [No Title](#)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown default link omitted", func(t *testing.T) {
		data, err := ExportToMarkdown(&models.FeedResult{FeedTitle: models.DefaultFeedTitle, FeedLink: models.DefaultLink})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if strings.Contains(string(data), "**Link**") {
			t.Errorf("placeholder link should be omitted")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(result)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Feed: Sample Podcast") {
			t.Errorf("Text missing feed title")
		}
		if !strings.Contains(output, "Entries: 2") {
			t.Errorf("Text missing entry count")
		}
		if !strings.Contains(output, "1. Episode 1 - https://example.com/ep1") {
			t.Errorf("Text missing first entry")
		}
	})

	t.Run("Export JSON", func(t *testing.T) {
		data, err := Export(result, JSON)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if decoded["feed_title"] != "Sample Podcast" {
			t.Errorf("feed_title = %v", decoded["feed_title"])
		}
	})
}

func TestWrite(t *testing.T) {
	t.Run("writes to writer", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, sampleResult(), Text); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "Feed: Sample Podcast") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("writer failure", func(t *testing.T) {
		if err := Write(&th.FWriter{}, sampleResult(), CSV); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()

	tt := []struct {
		format Format
		ext    string
	}{
		{format: JSON, ext: ".json"},
		{format: CSV, ext: ".csv"},
		{format: Markdown, ext: ".md"},
		{format: Text, ext: ".txt"},
	}

	for _, tc := range tt {
		t.Run(string(tc.format), func(t *testing.T) {
			base := filepath.Join(dir, "sample")
			path, err := WriteExport(sampleResult(), tc.format, base)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if path != base+tc.ext {
				t.Errorf("path = %s, want %s", path, base+tc.ext)
			}
			th.AssertFileExists(t, path)
		})
	}

	t.Run("missing directory", func(t *testing.T) {
		if _, err := WriteExport(sampleResult(), JSON, filepath.Join(dir, "nope", "sample")); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "manifest.json")

	m := &Manifest{
		Format:     CSV,
		OutputDir:  dir,
		TotalFeeds: 2,
		Successful: 1,
		Failed:     1,
		Feeds: []ManifestFeed{
			{URL: "https://a.example/rss", Title: "A", Status: "success", Entries: 3, Files: []string{"001_a.csv"}},
			{URL: "https://b.example/rss", Status: "failed", Error: "feed fetch failed: status 502"},
		},
	}

	if err := WriteManifest(m, path); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	content := th.MustReadFile(t, path)
	var decoded Manifest
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if decoded.Format != CSV {
		t.Errorf("format = %s, want csv", decoded.Format)
	}
	if decoded.TotalFeeds != 2 || decoded.Successful != 1 || decoded.Failed != 1 {
		t.Errorf("unexpected counts: %+v", decoded)
	}
	if !strings.Contains(content, `"status": "failed"`) {
		t.Errorf("manifest missing failed status")
	}
	if !strings.Contains(content, "status 502") {
		t.Errorf("manifest missing error message")
	}
}

func TestSlug(t *testing.T) {
	tt := []struct {
		in, want string
	}{
		{in: "Sample Podcast", want: "sample_podcast"},
		{in: "  Hello, World!  ", want: "hello_world"},
		{in: "***", want: "feed"},
		{in: "", want: "feed"},
		{in: strings.Repeat("ab ", 40), want: strings.TrimRight(strings.Repeat("ab_", 20), "_")},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			if got := Slug(tc.in); got != tc.want {
				t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
