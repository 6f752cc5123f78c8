package models

// Defaults substituted for feed fields missing from the source document.
const (
	DefaultFeedTitle  = "No Feed Title"
	DefaultEntryTitle = "No Title"
	DefaultLink       = "#"
)

// FeedResult is a normalized RSS or Atom feed.
type FeedResult struct {
	FeedTitle string      `json:"feed_title"`
	FeedLink  string      `json:"feed_link"`
	Entries   []FeedEntry `json:"entries"`
}

// FeedEntry is a single normalized feed item. Every field is present in its JSON form;
// ID is null when the source entry has neither a GUID nor a link.
type FeedEntry struct {
	Title        string              `json:"title"`
	Link         string              `json:"link"`
	Published    string              `json:"published"`
	Summary      string              `json:"summary"`
	Author       string              `json:"author"`
	ID           *string             `json:"id"`
	MediaContent []map[string]string `json:"media_content"`
}
