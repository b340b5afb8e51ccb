// Package scheduler drives periodic background syncs for the daemon mode.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dkendall/homefeed/internal/config"
	"github.com/dkendall/homefeed/internal/syncer"
	"github.com/dkendall/homefeed/pkg/source"
)

// Scheduler runs periodic syncs of all enabled sources.
type Scheduler struct {
	cfg      *config.Config
	store    source.Storage
	interval time.Duration
}

// New creates a new scheduler.
func New(cfg *config.Config, st source.Storage, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{cfg: cfg, store: st, interval: interval}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled. A full sync
// runs immediately on start, then on every tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fmt.Fprintln(os.Stderr, "scheduler: initial sync...")
	s.syncOnce(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (sync every %s)\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintln(os.Stderr, "scheduler: syncing...")
			s.syncOnce(ctx)
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	report := syncer.SyncAll(ctx, s.cfg, s.store, "", "")
	fmt.Fprintf(os.Stderr, "  synced %d sources, %d failed\n", report.Synced, len(report.Failed))
}
