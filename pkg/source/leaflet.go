package source

import "strings"

// Leaflet publications serve RSS at {base_url}/rss.
type Leaflet struct {
	*feedFetcher
}

// NewLeaflet creates a fetcher for a Leaflet publication.
func NewLeaflet(id, baseURL string) *Leaflet {
	feedURL := strings.TrimSuffix(baseURL, "/") + "/rss"
	return &Leaflet{newFeedFetcher(KindLeaflet, id, feedURL)}
}
