package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestATURIToURL(t *testing.T) {
	url, err := atURIToURL("at://did:plc:abc123/app.bsky.feed.post/xyz789", "user.example")
	if err != nil {
		t.Fatalf("atURIToURL: %v", err)
	}
	if url != "https://bsky.app/profile/user.example/post/xyz789" {
		t.Errorf("url = %q", url)
	}
}

func TestATURIToURLInvalid(t *testing.T) {
	for _, uri := range []string{"invalid-uri", "https://bsky.app/whatever", ""} {
		if _, err := atURIToURL(uri, "user.example"); !errors.Is(err, ErrParse) {
			t.Errorf("atURIToURL(%q): expected ErrParse, got %v", uri, err)
		}
	}
}

func TestTruncateTitle(t *testing.T) {
	short := "Short post"
	if got := truncateTitle(short); got != short {
		t.Errorf("short text modified: %q", got)
	}

	exact := strings.Repeat("a", 100)
	if got := truncateTitle(exact); got != exact {
		t.Errorf("100-char text modified: %q", got)
	}

	long := strings.Repeat("b", 101)
	got := truncateTitle(long)
	if len([]rune(got)) != 100 {
		t.Errorf("truncated length = %d, want 100", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated text missing ellipsis: %q", got)
	}
	if got[:97] != long[:97] {
		t.Error("truncation should keep the first 97 characters")
	}

	// Multi-byte text counts characters, not bytes.
	wide := strings.Repeat("é", 150)
	got = truncateTitle(wide)
	if n := len([]rune(got)); n != 100 {
		t.Errorf("multi-byte truncated length = %d, want 100", n)
	}
}

func TestIsOriginalPost(t *testing.T) {
	if !isOriginalPost(feedViewPost{}) {
		t.Error("post without reason should be original")
	}
	repost := feedViewPost{Reason: []byte(`{"$type":"app.bsky.feed.defs#reasonRepost"}`)}
	if isOriginalPost(repost) {
		t.Error("post with reason should not be original")
	}
}

const authorFeedBody = `{
  "feed": [
    {
      "post": {
        "uri": "at://did:plc:abc123/app.bsky.feed.post/aaa111",
        "author": {"handle": "user.example"},
        "record": {"text": "Hello from the timeline", "createdAt": "2024-01-02T08:30:00Z"}
      }
    },
    {
      "post": {
        "uri": "at://did:plc:other/app.bsky.feed.post/bbb222",
        "author": {"handle": "other.example"},
        "record": {"text": "Someone else's post", "createdAt": "2024-01-01T00:00:00Z"}
      },
      "reason": {"$type": "app.bsky.feed.defs#reasonRepost"}
    }
  ]
}`

func TestBlueskySyncFiltersReposts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("actor"); got != "user.example" {
			t.Errorf("actor = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(authorFeedBody))
	}))
	defer srv.Close()

	b := NewBluesky("user.example")
	b.apiBase = srv.URL

	st := &memStorage{}
	if err := b.Sync(context.Background(), st); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if len(st.items) != 1 {
		t.Fatalf("stored %d items, want 1 (repost filtered)", len(st.items))
	}
	item := st.items[0]
	if item.ID != "at://did:plc:abc123/app.bsky.feed.post/aaa111" {
		t.Errorf("id = %q", item.ID)
	}
	if item.URL != "https://bsky.app/profile/user.example/post/aaa111" {
		t.Errorf("url = %q", item.URL)
	}
	if item.Title != "Hello from the timeline" {
		t.Errorf("title = %q", item.Title)
	}
	if item.Summary != item.Title {
		t.Errorf("summary should mirror short text, got %q", item.Summary)
	}
	if item.PublishedAt != "2024-01-02T08:30:00+00:00" {
		t.Errorf("published_at = %q", item.PublishedAt)
	}
	if item.Author != "user.example" {
		t.Errorf("author = %q", item.Author)
	}
}

func TestBlueskySyncAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b := NewBluesky("user.example")
	b.apiBase = srv.URL

	if err := b.Sync(context.Background(), &memStorage{}); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestBlueskySyncBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	b := NewBluesky("user.example")
	b.apiBase = srv.URL

	if err := b.Sync(context.Background(), &memStorage{}); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestBlueskySyncMalformedURI(t *testing.T) {
	body := `{"feed":[{"post":{"uri":"not-an-at-uri","author":{"handle":"u.example"},"record":{"text":"x"}}}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	b := NewBluesky("u.example")
	b.apiBase = srv.URL

	st := &memStorage{}
	if err := b.Sync(context.Background(), st); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if len(st.items) != 0 {
		t.Errorf("stored %d items from malformed URI", len(st.items))
	}
}
