package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dkendall/homefeed/internal/config"
	"github.com/dkendall/homefeed/internal/scheduler"
	"github.com/dkendall/homefeed/internal/store"
	"github.com/dkendall/homefeed/internal/syncer"
	"github.com/dkendall/homefeed/pkg/export"
	"github.com/dkendall/homefeed/pkg/server"
	"github.com/dkendall/homefeed/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.toml"); err == nil {
			path = "config.toml"
		}
	}
	return config.Load(path)
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	path := dbPath
	if path == "" {
		path = cfg.Database.Path
	}
	return store.New(path)
}

func runSync(ctx context.Context, kindArg, sourceID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var kind source.Kind
	if kindArg != "" {
		if kind, err = source.ParseKind(kindArg); err != nil {
			return err
		}
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	report := syncer.SyncAll(ctx, cfg, db, kind, sourceID)

	fmt.Fprintf(os.Stderr, "\nsynced %d source(s), %d failed\n", report.Synced, len(report.Failed))
	if len(report.Failed) > 0 {
		return fmt.Errorf("%w: %d source(s) failed to sync", source.ErrFetch, len(report.Failed))
	}
	if report.Synced == 0 && kindArg == "" && sourceID == "" {
		fmt.Fprintln(os.Stderr, "no sources enabled (run: homefeed init)")
	}
	return nil
}

func buildFilter(kindArg, sourceID string, limit int, since, query string) (source.Filter, error) {
	var filter source.Filter
	var err error

	if kindArg != "" {
		if filter.Kind, err = source.ParseKind(kindArg); err != nil {
			return source.Filter{}, err
		}
	}
	if filter.Since, err = normalizeSince(since, time.Now()); err != nil {
		return source.Filter{}, err
	}

	filter.SourceID = sourceID
	filter.Limit = limit
	filter.Query = query
	return filter, nil
}

func runList(ctx context.Context, kindArg, sourceID string, limit int, since, query string) error {
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be greater than zero", source.ErrInvalidArgument)
	}

	filter, err := buildFilter(kindArg, sourceID, limit, since, query)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := db.ListItems(ctx, filter)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("no items found (try syncing first: homefeed sync)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PUBLISHED\tKIND\tSOURCE\tTITLE")
	for i := range items {
		item := &items[i]
		title := item.Title
		if title == "" {
			title = item.URL
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			item.PublishedAt, item.SourceKind, truncateCell(item.SourceID, 30), truncateCell(title, 60))
	}
	return w.Flush()
}

func runExport(ctx context.Context, kindArg, sourceID string, limit int, since, query, formatArg, output string) error {
	format, err := export.ParseFormat(formatArg)
	if err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", source.ErrInvalidArgument)
	}

	filter, err := buildFilter(kindArg, sourceID, limit, since, query)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := db.ListItems(ctx, filter)
	if err != nil {
		return err
	}

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}

	if err := export.Write(out, items, format); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %d item(s)\n", len(items))
	return nil
}

func runServe(address string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if address == "" {
		address = cfg.Server.Address
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(db, cfg.CORS, address)
	return srv.ListenAndServe(ctx)
}

func runDaemon(address string, every time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if address == "" {
		address = cfg.Server.Address
	}
	if every <= 0 {
		every = cfg.Server.ParseSyncInterval()
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(cfg, db, every)
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	srv := server.New(db, cfg.CORS, address)
	return srv.ListenAndServe(ctx)
}

func runCheck(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.VerifySchema(ctx); err != nil {
		return err
	}

	total, err := db.CountItems(ctx)
	if err != nil {
		return err
	}
	counts, err := db.CountBySource(ctx)
	if err != nil {
		return err
	}

	fmt.Println("schema: ok")
	fmt.Printf("items: %d\n", total)
	for _, kind := range source.AllKinds() {
		if n, ok := counts[kind]; ok {
			fmt.Printf("  %s: %d\n", kind, n)
		}
	}
	return nil
}

func runInit(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s already exists (use --force to overwrite)", source.ErrInvalidArgument, path)
		}
	}
	if err := os.WriteFile(path, configExample, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

// normalizeSince converts the --since argument into the canonical stored
// timestamp form. Accepted: RFC 3339, a bare date, or a relative duration
// such as 90m, 24h, 7d, or 2w, measured back from now.
func normalizeSince(value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return source.FormatTime(t), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return source.FormatTime(t), nil
	}

	if d, err := parseRelative(value); err == nil {
		return source.FormatTime(now.Add(-d)), nil
	}

	return "", fmt.Errorf("%w: cannot parse time %q (expected RFC 3339, YYYY-MM-DD, or a duration like 24h or 7d)",
		source.ErrInvalidArgument, value)
}

// parseRelative handles duration strings, extending time.ParseDuration with
// d (days) and w (weeks) suffixes.
func parseRelative(value string) (time.Duration, error) {
	if n, ok := strings.CutSuffix(value, "d"); ok {
		if days, err := strconv.Atoi(n); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid day count %q", value)
	}
	if n, ok := strings.CutSuffix(value, "w"); ok {
		if weeks, err := strconv.Atoi(n); err == nil && weeks > 0 {
			return time.Duration(weeks) * 7 * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid week count %q", value)
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

// truncateCell shortens a table cell to max runes, marking the cut.
func truncateCell(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
