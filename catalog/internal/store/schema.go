package store

import "database/sql"

// Schema is the complete catalog cache schema. All statements are
// idempotent so the schema can be applied on every startup.
const Schema = `
-- Navigation categories
CREATE TABLE IF NOT EXISTS categories (
    id                TEXT PRIMARY KEY,
    title             TEXT NOT NULL,
    slug              TEXT NOT NULL UNIQUE,
    source_url        TEXT NOT NULL DEFAULT '',
    last_refreshed_at INTEGER NOT NULL,
    created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_categories_created ON categories(created_at);

-- Product listings, partitioned by the category key they were crawled under
CREATE TABLE IF NOT EXISTS products (
    id                TEXT PRIMARY KEY,
    source_id         TEXT NOT NULL UNIQUE,
    category_slug     TEXT NOT NULL DEFAULT '',
    title             TEXT NOT NULL,
    author            TEXT NOT NULL DEFAULT '',
    price             REAL NOT NULL DEFAULT 0,
    currency          TEXT NOT NULL DEFAULT 'GBP',
    image_url         TEXT NOT NULL DEFAULT '',
    source_url        TEXT NOT NULL DEFAULT '',
    last_refreshed_at INTEGER NOT NULL,
    created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_slug, last_refreshed_at DESC);

-- On-demand product details
CREATE TABLE IF NOT EXISTS product_details (
    product_id    TEXT PRIMARY KEY REFERENCES products(id) ON DELETE CASCADE,
    description   TEXT NOT NULL DEFAULT '',
    ratings_avg   REAL NOT NULL DEFAULT 0,
    reviews_count INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL
);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
