package source

import "strings"

// BearBlog blogs serve RSS at {base_url}/feed/. Instances are configured
// with an explicit id since several blogs of the same kind may be tracked.
type BearBlog struct {
	*feedFetcher
}

// NewBearBlog creates a fetcher for a BearBlog publication.
func NewBearBlog(id, baseURL string) *BearBlog {
	feedURL := strings.TrimSuffix(baseURL, "/") + "/feed/"
	return &BearBlog{newFeedFetcher(KindBearBlog, id, feedURL)}
}
