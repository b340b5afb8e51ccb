package source

import "strings"

// Substack publications expose their feed at {base_url}/feed. The source id
// is the publication's domain, derived from the base URL.
type Substack struct {
	*feedFetcher
}

// NewSubstack creates a fetcher for a Substack publication.
func NewSubstack(baseURL string) *Substack {
	feedURL := strings.TrimSuffix(baseURL, "/") + "/feed"
	return &Substack{newFeedFetcher(KindSubstack, NormalizeSourceID(baseURL), feedURL)}
}
