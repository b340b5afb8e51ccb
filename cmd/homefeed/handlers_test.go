package main

import (
	"errors"
	"testing"
	"time"

	"github.com/dkendall/homefeed/internal/config"
	"github.com/dkendall/homefeed/pkg/source"
)

func TestNormalizeSince(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"2024-01-01T12:00:00Z", "2024-01-01T12:00:00+00:00"},
		{"2024-01-01T12:00:00+02:00", "2024-01-01T10:00:00+00:00"},
		{"2024-01-01", "2024-01-01T00:00:00+00:00"},
		{"24h", "2024-06-14T12:00:00+00:00"},
		{"90m", "2024-06-15T10:30:00+00:00"},
		{"7d", "2024-06-08T12:00:00+00:00"},
		{"2w", "2024-06-01T12:00:00+00:00"},
	}
	for _, tc := range cases {
		got, err := normalizeSince(tc.input, now)
		if err != nil {
			t.Errorf("normalizeSince(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("normalizeSince(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}

	for _, input := range []string{"yesterday", "-24h", "0d", "xd", "2024-13-40"} {
		if _, err := normalizeSince(input, now); !errors.Is(err, source.ErrInvalidArgument) {
			t.Errorf("normalizeSince(%q) err = %v, want ErrInvalidArgument", input, err)
		}
	}
}

func TestBuildFilter(t *testing.T) {
	filter, err := buildFilter("bearblog", "sage", 5, "", "go")
	if err != nil {
		t.Fatalf("buildFilter: %v", err)
	}
	if filter.Kind != source.KindBearBlog || filter.SourceID != "sage" || filter.Limit != 5 || filter.Query != "go" {
		t.Errorf("filter = %+v", filter)
	}

	if _, err := buildFilter("myspace", "", 0, "", ""); !errors.Is(err, source.ErrUnknownKind) {
		t.Errorf("unknown kind err = %v", err)
	}
	if _, err := buildFilter("", "", 0, "not-a-time", ""); !errors.Is(err, source.ErrInvalidArgument) {
		t.Errorf("bad since err = %v", err)
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	got := truncateCell("abcdefghijklmnop", 10)
	if len([]rune(got)) != 10 || got != "abcdefg..." {
		t.Errorf("got %q", got)
	}
}

func TestConfigExampleParses(t *testing.T) {
	cfg := config.Default()
	if err := config.Parse(configExample, cfg); err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if cfg.Sources.Substack == nil || cfg.Sources.Substack.Enabled {
		t.Error("example substack block should exist and be disabled")
	}
	if len(cfg.Sources.Leaflet) != 1 || len(cfg.Sources.BearBlog) != 1 {
		t.Errorf("example lists = %d leaflet, %d bearblog", len(cfg.Sources.Leaflet), len(cfg.Sources.BearBlog))
	}
	if cfg.Server.ParseSyncInterval() != time.Hour {
		t.Errorf("sync interval = %s", cfg.Server.ParseSyncInterval())
	}
}
