package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "homefeed/1.0"

// feedFetcher is the shared implementation behind the RSS/Atom-backed
// sources. The kinds differ only in how the feed URL is derived from the
// configured base URL.
type feedFetcher struct {
	kind     Kind
	sourceID string
	feedURL  string
	client   *http.Client
	parser   *gofeed.Parser
}

func newFeedFetcher(kind Kind, sourceID, feedURL string) *feedFetcher {
	return &feedFetcher{
		kind:     kind,
		sourceID: sourceID,
		feedURL:  feedURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		parser:   gofeed.NewParser(),
	}
}

func (f *feedFetcher) Kind() Kind       { return f.kind }
func (f *feedFetcher) SourceID() string { return f.sourceID }

// Sync fetches the feed and upserts one item per entry. Each entry's upsert
// is its own unit: entries stored before a failure stay stored.
func (f *feedFetcher) Sync(ctx context.Context, st Storage) error {
	feed, err := f.fetchFeed(ctx)
	if err != nil {
		return err
	}

	for _, entry := range feed.Items {
		item := f.mapEntry(entry)
		if err := st.UpsertItem(ctx, item); err != nil {
			return fmt.Errorf("%w: upsert %s item %s: %v", ErrStorage, f.kind, item.ID, err)
		}
	}
	return nil
}

func (f *feedFetcher) fetchFeed(ctx context.Context) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s request: %v", ErrFetch, f.kind, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s feed %s: %v", ErrFetch, f.kind, f.feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s feed %s status %d", ErrFetch, f.kind, f.feedURL, resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s feed %s: %v", ErrParse, f.kind, f.feedURL, err)
	}
	return feed, nil
}

// mapEntry applies the shared field-mapping policy: id from the entry GUID
// falling back to the link, url from the first link falling back to the id,
// published from published else updated else fetch time.
func (f *feedFetcher) mapEntry(entry *gofeed.Item) *Item {
	id := entry.GUID
	if id == "" {
		id = entry.Link
	}

	url := entry.Link
	if url == "" && len(entry.Links) > 0 {
		url = entry.Links[0]
	}
	if url == "" {
		url = id
	}

	author := ""
	if len(entry.Authors) > 0 {
		author = entry.Authors[0].Name
	} else if entry.Author != nil {
		author = entry.Author.Name
	}

	published := time.Now()
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	return &Item{
		ID:          id,
		SourceKind:  f.kind,
		SourceID:    f.sourceID,
		Author:      author,
		Title:       entry.Title,
		Summary:     entry.Description,
		URL:         url,
		ContentHTML: entry.Content,
		PublishedAt: FormatTime(published),
		CreatedAt:   FormatTime(time.Now()),
	}
}
