package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dkendall/homefeed/pkg/source"
)

func sampleItem() source.Item {
	return source.Item{
		ID:          "sample-id",
		SourceKind:  source.KindSubstack,
		SourceID:    "patterns.substack.com",
		Author:      "Pattern Matched",
		Title:       "Test entry",
		Summary:     "Summary",
		URL:         "https://patterns.substack.com/p/test",
		PublishedAt: "2024-01-01T00:00:00+00:00",
		CreatedAt:   "2024-01-01T00:00:00+00:00",
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"json":   FormatJSON,
		"NDJSON": FormatNDJSON,
		"rss":    FormatRSS,
	} {
		got, err := ParseFormat(input)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", input, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q", input, got)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, source.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []source.Item{sampleItem()}, FormatJSON); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "[") {
		t.Errorf("JSON export should be an array: %q", out)
	}
	if strings.Count(out, "sample-id") != 1 || strings.Count(out, "Test entry") != 1 {
		t.Errorf("item fields should appear exactly once:\n%s", out)
	}

	var decoded []source.Item
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("export not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "sample-id" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	items := []source.Item{sampleItem(), sampleItem()}
	items[1].ID = "second-id"

	if err := Write(&buf, items, FormatNDJSON); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		var item source.Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			t.Fatalf("line %d not valid JSON: %v", i, err)
		}
	}
	if !strings.Contains(lines[0], "sample-id") || !strings.Contains(lines[1], "second-id") {
		t.Error("NDJSON lines out of order")
	}
}

func TestWriteRSS(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []source.Item{sampleItem()}, FormatRSS); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<rss") {
		t.Error("missing rss element")
	}
	if !strings.Contains(out, "<item>") {
		t.Error("missing item element")
	}
	if strings.Count(out, "sample-id") != 1 {
		t.Errorf("guid should appear exactly once:\n%s", out)
	}
	if strings.Count(out, "Test entry") != 1 {
		t.Errorf("title should appear exactly once:\n%s", out)
	}
	if !strings.Contains(out, "<category>substack</category>") {
		t.Error("missing source kind category")
	}
	if !strings.Contains(out, "Mon, 01 Jan 2024 00:00:00 +0000") {
		t.Errorf("pubDate not in RFC 1123 form:\n%s", out)
	}
}

func TestBuildChannelFallbacks(t *testing.T) {
	item := sampleItem()
	item.Title = ""
	item.Summary = ""
	item.ContentHTML = "<p>body</p>"
	item.Author = ""

	channel := BuildChannel([]source.Item{item})
	if len(channel.Items) != 1 {
		t.Fatal("no channel items")
	}
	got := channel.Items[0]
	if got.Title != item.URL {
		t.Errorf("title = %q, want URL fallback", got.Title)
	}
	if got.Description != "<p>body</p>" {
		t.Errorf("description = %q, want content fallback", got.Description)
	}
	if got.Author != "Unknown" {
		t.Errorf("author = %q", got.Author)
	}
	if got.Guid == nil || got.Guid.IsPermaLink != "false" {
		t.Error("guid should be marked non-permalink")
	}
}
