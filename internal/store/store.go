package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dkendall/homefeed/pkg/source"
)

// Store is the persistence interface consumed by the sync pipeline and the
// read surfaces (CLI, server, export).
type Store interface {
	UpsertItem(ctx context.Context, item *source.Item) error
	GetItem(ctx context.Context, id string) (*source.Item, error)
	ListItems(ctx context.Context, filter source.Filter) ([]source.Item, error)
	CountItems(ctx context.Context) (int, error)
	CountBySource(ctx context.Context) (map[source.Kind]int, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %v", source.ErrStorage, path, err)
	}

	// Upserts from concurrent syncs are serialized through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: run migrations: %v", source.ErrStorage, err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertItem inserts or overwrites an item keyed by (source_kind, id).
// created_at is written on first insert only and preserved on conflict, so
// it keeps first-seen semantics across re-syncs.
func (s *SQLiteStore) UpsertItem(ctx context.Context, item *source.Item) error {
	url := item.URL
	if url == "" {
		url = item.ID
	}
	publishedAt := item.PublishedAt
	if publishedAt == "" {
		publishedAt = source.FormatTime(time.Now())
	}
	createdAt := item.CreatedAt
	if createdAt == "" {
		createdAt = source.FormatTime(time.Now())
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, source_kind, source_id, author, title, summary, url, content_html, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_kind, id) DO UPDATE SET
			source_id = excluded.source_id,
			author = excluded.author,
			title = excluded.title,
			summary = excluded.summary,
			url = excluded.url,
			content_html = excluded.content_html,
			published_at = excluded.published_at
	`, item.ID, item.SourceKind.String(), item.SourceID, item.Author, item.Title,
		item.Summary, url, item.ContentHTML, publishedAt, createdAt)
	if err != nil {
		return fmt.Errorf("%w: upsert item %s: %v", source.ErrStorage, item.ID, err)
	}
	return nil
}

// GetItem returns the item with the given id, or nil if absent.
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*source.Item, error) {
	var item source.Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items WHERE id = ? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get item %s: %v", source.ErrStorage, id, err)
	}
	return &item, nil
}

// ListItems returns items matching the filter, ordered by published_at
// descending. Set filter fields narrow with logical AND; the query matches
// as a substring of title or summary.
func (s *SQLiteStore) ListItems(ctx context.Context, filter source.Filter) ([]source.Item, error) {
	query := "SELECT * FROM items WHERE 1=1"
	var args []any

	if filter.Kind != "" {
		query += " AND source_kind = ?"
		args = append(args, filter.Kind.String())
	}
	if filter.SourceID != "" {
		query += " AND source_id = ?"
		args = append(args, filter.SourceID)
	}
	if filter.Since != "" {
		query += " AND published_at >= ?"
		args = append(args, filter.Since)
	}
	if filter.Query != "" {
		query += " AND (title LIKE ? OR summary LIKE ?)"
		pattern := "%" + filter.Query + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY published_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	items := []source.Item{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list items: %v", source.ErrStorage, err)
	}
	return items, nil
}

// CountItems returns the total number of stored items.
func (s *SQLiteStore) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM items"); err != nil {
		return 0, fmt.Errorf("%w: count items: %v", source.ErrStorage, err)
	}
	return count, nil
}

// CountBySource returns item counts grouped by source kind.
func (s *SQLiteStore) CountBySource(ctx context.Context) (map[source.Kind]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT source_kind, COUNT(*) AS cnt FROM items GROUP BY source_kind ORDER BY source_kind")
	if err != nil {
		return nil, fmt.Errorf("%w: count items by source: %v", source.ErrStorage, err)
	}
	defer rows.Close()

	counts := make(map[source.Kind]int)
	for rows.Next() {
		var kind string
		var cnt int
		if err := rows.Scan(&kind, &cnt); err != nil {
			return nil, fmt.Errorf("%w: scan source counts: %v", source.ErrStorage, err)
		}
		counts[source.Kind(kind)] = cnt
	}
	return counts, rows.Err()
}

// VerifySchema checks that the expected tables exist.
func (s *SQLiteStore) VerifySchema(ctx context.Context) error {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'")
	if err != nil {
		return fmt.Errorf("%w: verify schema: %v", source.ErrStorage, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: missing table: items", source.ErrStorage)
	}
	return nil
}
