package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UpsertCategory inserts a category or, when the slug already exists,
// updates the mutable fields (title, source URL, refresh timestamp) in
// place. The original row's id and created_at are preserved.
func (s *Store) UpsertCategory(ctx context.Context, c *Category) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO categories (id, title, slug, source_url, last_refreshed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
		   title             = excluded.title,
		   source_url        = excluded.source_url,
		   last_refreshed_at = excluded.last_refreshed_at`,
		c.ID, c.Title, c.Slug, c.SourceURL, c.LastRefreshedAt, c.CreatedAt,
	)
	return err
}

// ListCategories returns categories in creation order.
func (s *Store) ListCategories(ctx context.Context, limit int) ([]*Category, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, slug, source_url, last_refreshed_at, created_at
		 FROM categories ORDER BY created_at ASC, rowid ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.SourceURL, &c.LastRefreshedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// GetCategoryBySlug returns the category with the given slug, or nil.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, title, slug, source_url, last_refreshed_at, created_at
		 FROM categories WHERE slug = ?`, slug).
		Scan(&c.ID, &c.Title, &c.Slug, &c.SourceURL, &c.LastRefreshedAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

// LatestCategoryRefresh returns the most recent refresh timestamp across
// all categories, or nil when the table is empty.
func (s *Store) LatestCategoryRefresh(ctx context.Context) (*int64, error) {
	var ts sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT MAX(last_refreshed_at) FROM categories`).Scan(&ts)
	if err != nil {
		return nil, err
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Int64, nil
}
