// Package syncer turns configuration into fetchers and drives sync runs.
package syncer

import (
	"context"
	"fmt"
	"os"

	"github.com/dkendall/homefeed/internal/config"
	"github.com/dkendall/homefeed/pkg/source"
)

// SourceError records one source instance's sync failure.
type SourceError struct {
	Kind     source.Kind
	SourceID string
	Err      error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Kind, e.SourceID, e.Err)
}

// Report summarizes a sync run across source instances.
type Report struct {
	Synced int
	Failed []SourceError
}

// BuildFetchers returns fetchers for every enabled source instance, in
// configuration order: the singleton kinds first, then the list kinds.
func BuildFetchers(cfg *config.Config) []source.Fetcher {
	var fetchers []source.Fetcher

	if sc := cfg.Sources.Substack; sc != nil && sc.Enabled {
		fetchers = append(fetchers, source.NewSubstack(sc.BaseURL))
	}
	if bc := cfg.Sources.Bluesky; bc != nil && bc.Enabled {
		fetchers = append(fetchers, source.NewBluesky(bc.Handle))
	}
	for _, lc := range cfg.Sources.Leaflet {
		if lc.Enabled {
			fetchers = append(fetchers, source.NewLeaflet(lc.ID, lc.BaseURL))
		}
	}
	for _, bc := range cfg.Sources.BearBlog {
		if bc.Enabled {
			fetchers = append(fetchers, source.NewBearBlog(bc.ID, bc.BaseURL))
		}
	}

	return fetchers
}

// SyncAll syncs every enabled source instance matching the optional kind
// and source id filters. Failures are isolated per source: one instance's
// error is recorded in the report and the remaining instances still run.
func SyncAll(ctx context.Context, cfg *config.Config, st source.Storage, kind source.Kind, sourceID string) Report {
	var report Report

	for _, f := range BuildFetchers(cfg) {
		if !matches(f, kind, sourceID) {
			continue
		}

		fmt.Fprintf(os.Stderr, "syncing %s/%s...\n", f.Kind(), f.SourceID())
		if err := f.Sync(ctx, st); err != nil {
			fmt.Fprintf(os.Stderr, "  error: %v\n", err)
			report.Failed = append(report.Failed, SourceError{Kind: f.Kind(), SourceID: f.SourceID(), Err: err})
			continue
		}
		report.Synced++
	}

	return report
}

// matches applies the kind and source id filters. The source id is compared
// against the fetcher's own resolved id, so base-URL-derived ids match the
// same normalized form the stored items carry.
func matches(f source.Fetcher, kind source.Kind, sourceID string) bool {
	if kind != "" && f.Kind() != kind {
		return false
	}
	if sourceID != "" && f.SourceID() != sourceID {
		return false
	}
	return true
}
