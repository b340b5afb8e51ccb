// Package export renders a filtered item set as JSON, NDJSON, or RSS.
// All formats present the same items in the same order; only the encoding
// differs.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/dkendall/homefeed/pkg/source"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatRSS    Format = "rss"
)

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "rss":
		return FormatRSS, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q (expected json, ndjson, or rss)", source.ErrInvalidArgument, s)
}

// Write renders items to w in the given format.
func Write(w io.Writer, items []source.Item, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, items)
	case FormatNDJSON:
		return writeNDJSON(w, items)
	case FormatRSS:
		return writeRSS(w, items)
	}
	return fmt.Errorf("%w: unsupported export format %q", source.ErrInvalidArgument, format)
}

func writeJSON(w io.Writer, items []source.Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeNDJSON(w io.Writer, items []source.Item) error {
	enc := json.NewEncoder(w)
	for i := range items {
		if err := enc.Encode(items[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeRSS(w io.Writer, items []source.Item) error {
	if err := feeds.WriteXML(BuildChannel(items), w); err != nil {
		return fmt.Errorf("%w: render RSS export: %v", source.ErrParse, err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// BuildChannel maps items onto an RSS channel. Title falls back to the
// summary and then the URL; description falls back from summary to content.
func BuildChannel(items []source.Item) *feeds.RssFeed {
	channel := &feeds.RssFeed{
		Title:       "homefeed",
		Link:        "https://homefeed.local/",
		Description: "Aggregated activity feed exported by homefeed.",
	}

	for i := range items {
		item := &items[i]

		title := item.Title
		if title == "" {
			title = item.Summary
		}
		if title == "" {
			title = item.URL
		}

		description := item.Summary
		if description == "" {
			description = item.ContentHTML
		}

		author := item.Author
		if author == "" {
			author = "Unknown"
		}

		channel.Items = append(channel.Items, &feeds.RssItem{
			Title:       title,
			Link:        item.URL,
			Description: description,
			Author:      author,
			Category:    item.SourceKind.String(),
			Guid:        &feeds.RssGuid{Id: item.ID, IsPermaLink: "false"},
			PubDate:     rssDate(item.PublishedAt),
		})
	}

	return channel
}

// rssDate reformats a stored timestamp as RFC 1123; unparseable values pass
// through untouched.
func rssDate(value string) string {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(time.RFC1123Z)
	}
	if t, err := time.Parse(time.RFC1123Z, value); err == nil {
		return t.Format(time.RFC1123Z)
	}
	return value
}
