package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/playq/internal/models"
)

const maxItemWidth = 60

var (
	_ list.Item = playlistItem{}
	_ list.Item = mediaItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	current  bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	if i.current {
		return "★ " + i.playlist.Name
	}
	return i.playlist.Name
}
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d items", i.playlist.Items.Len())
	if !i.playlist.UpdatedAt.IsZero() {
		desc = fmt.Sprintf("%s • updated %s", desc, i.playlist.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return desc
}

// mediaItem wraps one opaque playlist entry to implement [list.Item].
type mediaItem struct {
	index int
	raw   json.RawMessage
}

func (i mediaItem) FilterValue() string { return i.Title() }

// Title prefers a "title" or "name" field of an object entry, else the compact JSON.
func (i mediaItem) Title() string {
	var obj map[string]any
	if err := json.Unmarshal(i.raw, &obj); err == nil {
		for _, k := range []string{"title", "name"} {
			if s, ok := obj[k].(string); ok && s != "" {
				return truncate(s)
			}
		}
	}

	var s string
	if err := json.Unmarshal(i.raw, &s); err == nil {
		return truncate(s)
	}
	return truncate(strings.TrimSpace(string(i.raw)))
}

func (i mediaItem) Description() string { return fmt.Sprintf("#%d", i.index+1) }

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxItemWidth {
		return s
	}
	return string(r[:maxItemWidth-1]) + "…"
}
