package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	QueueFeeds Phase = iota
	ParseFeed
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case QueueFeeds:
		return "queue_feeds"
	case ParseFeed:
		return "parse_feed"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func queueUpdate(step, total int, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   QueueFeeds,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Queued %s", step, total, url),
	}
}

func parsedUpdate(step, total int, res FeedParseResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseFeed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d entries)", step, total, res.Title, res.Entries),
		Data:    res,
	}
}

func failedUpdate(step, total int, res FeedParseResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseFeed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.URL, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote manifest: %s", path),
	}
}
