package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind identifies which platform an item came from.
type Kind string

const (
	KindSubstack Kind = "substack"
	KindBluesky  Kind = "bluesky"
	KindLeaflet  Kind = "leaflet"
	KindBearBlog Kind = "bearblog"
)

// AllKinds returns all known source kinds.
func AllKinds() []Kind {
	return []Kind{KindSubstack, KindBluesky, KindLeaflet, KindBearBlog}
}

// ParseKind parses a source kind string, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "substack":
		return KindSubstack, nil
	case "bluesky":
		return KindBluesky, nil
	case "leaflet":
		return KindLeaflet, nil
	case "bearblog":
		return KindBearBlog, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, s)
}

func (k Kind) String() string { return string(k) }

// Item is the standardized data model for all sources.
//
// PublishedAt and CreatedAt are RFC 3339 strings in the canonical form
// produced by FormatTime, so lexicographic and chronological ordering
// coincide.
type Item struct {
	ID          string `json:"id" db:"id"`
	SourceKind  Kind   `json:"source_kind" db:"source_kind"`
	SourceID    string `json:"source_id" db:"source_id"`
	Author      string `json:"author,omitempty" db:"author"`
	Title       string `json:"title,omitempty" db:"title"`
	Summary     string `json:"summary,omitempty" db:"summary"`
	URL         string `json:"url" db:"url"`
	ContentHTML string `json:"content_html,omitempty" db:"content_html"`
	PublishedAt string `json:"published_at" db:"published_at"`
	CreatedAt   string `json:"created_at" db:"created_at"`
}

// Filter narrows item listings. Zero values mean "no constraint".
type Filter struct {
	Kind     Kind
	SourceID string
	Limit    int
	Since    string
	Query    string
}

// Storage is the sink fetchers write into.
type Storage interface {
	UpsertItem(ctx context.Context, item *Item) error
}

// Fetcher is the interface every source must implement.
type Fetcher interface {
	Kind() Kind
	SourceID() string
	Sync(ctx context.Context, st Storage) error
}

// FormatTime renders a timestamp in the canonical stored form:
// UTC with an explicit +00:00 offset.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "+00:00"
}

// NormalizeSourceID strips the protocol scheme and trailing slash from a
// base URL, e.g. "https://sun.substack.com/" -> "sun.substack.com".
func NormalizeSourceID(baseURL string) string {
	s := strings.TrimPrefix(baseURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimSuffix(s, "/")
}
