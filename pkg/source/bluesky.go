package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const blueskyAPIBase = "https://public.api.bsky.app"

// Bluesky collects a user's posts from the public AT Protocol API.
// Reposts and quotes are filtered out so only original posts are kept.
type Bluesky struct {
	handle  string
	apiBase string
	client  *http.Client
}

// NewBluesky creates a fetcher for a Bluesky account.
func NewBluesky(handle string) *Bluesky {
	return &Bluesky{
		handle:  handle,
		apiBase: blueskyAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *Bluesky) Kind() Kind       { return KindBluesky }
func (b *Bluesky) SourceID() string { return b.handle }

type authorFeedResponse struct {
	Feed []feedViewPost `json:"feed"`
}

type feedViewPost struct {
	Post   postView        `json:"post"`
	Reason json.RawMessage `json:"reason"`
}

type postView struct {
	URI    string     `json:"uri"`
	Author postAuthor `json:"author"`
	Record postRecord `json:"record"`
}

type postAuthor struct {
	Handle string `json:"handle"`
}

type postRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

func (b *Bluesky) Sync(ctx context.Context, st Storage) error {
	resp, err := b.fetchAuthorFeed(ctx)
	if err != nil {
		return err
	}

	for _, fp := range resp.Feed {
		if !isOriginalPost(fp) {
			continue
		}

		postURL, err := atURIToURL(fp.Post.URI, fp.Post.Author.Handle)
		if err != nil {
			return err
		}

		published := FormatTime(time.Now())
		if t, err := time.Parse(time.RFC3339, fp.Post.Record.CreatedAt); err == nil {
			published = FormatTime(t)
		}

		text := fp.Post.Record.Text
		item := &Item{
			ID:          fp.Post.URI,
			SourceKind:  KindBluesky,
			SourceID:    b.handle,
			Author:      fp.Post.Author.Handle,
			Title:       truncateTitle(text),
			Summary:     text,
			URL:         postURL,
			PublishedAt: published,
			CreatedAt:   FormatTime(time.Now()),
		}

		if err := st.UpsertItem(ctx, item); err != nil {
			return fmt.Errorf("%w: upsert bluesky item %s: %v", ErrStorage, item.ID, err)
		}
	}
	return nil
}

func (b *Bluesky) fetchAuthorFeed(ctx context.Context) (*authorFeedResponse, error) {
	endpoint := fmt.Sprintf("%s/xrpc/app.bsky.feed.getAuthorFeed?actor=%s&limit=50",
		b.apiBase, url.QueryEscape(b.handle))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create bluesky request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch bluesky feed for %s: %v", ErrFetch, b.handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: bluesky API status %d", ErrFetch, resp.StatusCode)
	}

	var feed authorFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode bluesky response: %v", ErrParse, err)
	}
	return &feed, nil
}

// isOriginalPost reports whether a feed entry is the account's own post.
// Reposts and reshares carry a non-null reason.
func isOriginalPost(fp feedViewPost) bool {
	return len(fp.Reason) == 0 || string(fp.Reason) == "null"
}

// atURIToURL converts an AT URI to the canonical web URL.
//
// AT URI format: at://did:plc:xyz/app.bsky.feed.post/abc123
// URL format: https://bsky.app/profile/{handle}/post/{rkey}
func atURIToURL(uri, handle string) (string, error) {
	parts := strings.Split(uri, "/")
	if len(parts) < 4 || parts[0] != "at:" {
		return "", fmt.Errorf("%w: invalid AT URI: %s", ErrParse, uri)
	}
	rkey := parts[len(parts)-1]
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey), nil
}

// truncateTitle derives a title from short-form post text. Text over 100
// characters is cut to 97 plus a three-character ellipsis, exactly 100 total.
func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	return string(runes[:97]) + "..."
}
