package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playq/internal/formatter"
	"github.com/desertthunder/playq/internal/shared"
	"github.com/desertthunder/playq/internal/tasks"
	"github.com/desertthunder/playq/internal/ui"
)

// FeedParse fetches one feed and writes it in the requested format to stdout or --output.
func (r *Runner) FeedParse(ctx context.Context, cmd *cli.Command) error {
	feedURL, err := requireArg(cmd, "url")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	result, err := r.feedParser().ParseFeed(ctx, feedURL)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		data, err := formatter.Export(result, format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.logger.Info("feed written", "url", feedURL, "path", path, "entries", len(result.Entries))
		return r.writePlain("✓ Wrote %d entries to %s\n", len(result.Entries), path)
	}

	if err := formatter.Write(r.output, result, format); err != nil {
		return err
	}
	if format == formatter.JSON {
		return r.writePlain("\n")
	}
	return nil
}

// FeedBulk parses every URL given as an argument, with --url, or listed in --file, writing one
// export per feed and a manifest into the output directory.
func (r *Runner) FeedBulk(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	urls := append(cmd.Args().Slice(), cmd.StringSlice("url")...)
	if file := cmd.String("file"); file != "" {
		fromFile, err := readURLFile(file)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("%w: provide feed URLs as arguments, with --url, or with --file", shared.ErrMissingArgument)
	}

	opts := tasks.BulkParseOpts{
		Format:     format,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.QueueFeeds:
				r.logger.Debug(update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📄 %s\n", update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	r.writePlain("📥 Parsing %d feeds as %s\n", len(urls), format)
	result, err := r.feedEngine().BulkParse(ctx, progressCh, urls, opts)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Bulk Parse Complete")
	r.writePlain("Total:      %d\n", result.TotalFeeds)
	r.writePlain("Successful: %s\n", ui.Styles().OK(fmt.Sprint(result.Successful)))
	if result.Failed > 0 {
		r.writePlain("Failed:     %s\n", ui.Styles().Err(fmt.Sprint(result.Failed)))
	} else {
		r.writePlain("Failed:     0\n")
	}
	r.writePlain("Output:     %s\n", result.OutputDirectory)
	r.writePlain("Manifest:   %s\n", result.ManifestPath)
	return nil
}

// readURLFile returns the non-blank lines of path that do not start with #.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return urls, nil
}
