package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkendall/homefeed/internal/config"
	"github.com/dkendall/homefeed/pkg/source"
)

type countingStorage struct {
	upserts atomic.Int64
}

func (c *countingStorage) UpsertItem(context.Context, *source.Item) error {
	c.upserts.Add(1)
	return nil
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&config.Config{}, &countingStorage{}, 0)
	if s.interval != time.Hour {
		t.Errorf("interval = %s, want 1h", s.interval)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(&config.Config{}, &countingStorage{}, time.Hour)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
