package store

const schema = `
CREATE TABLE IF NOT EXISTS items (
    id           TEXT NOT NULL,
    source_kind  TEXT NOT NULL,
    source_id    TEXT NOT NULL,
    author       TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL DEFAULT '',
    summary      TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL,
    content_html TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    PRIMARY KEY (source_kind, id)
);

CREATE INDEX IF NOT EXISTS idx_items_published_at ON items(published_at);
CREATE INDEX IF NOT EXISTS idx_items_source_date ON items(source_kind, source_id, published_at DESC);
`
