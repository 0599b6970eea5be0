package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UpsertProduct inserts a product or, when the source_id already exists,
// updates the mutable fields (title, author, price, URLs, category key,
// refresh timestamp) in place. The original row's id and created_at are
// preserved.
func (s *Store) UpsertProduct(ctx context.Context, p *Product) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO products (id, source_id, category_slug, title, author, price,
		   currency, image_url, source_url, last_refreshed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_id) DO UPDATE SET
		   category_slug     = excluded.category_slug,
		   title             = excluded.title,
		   author            = excluded.author,
		   price             = excluded.price,
		   currency          = excluded.currency,
		   image_url         = excluded.image_url,
		   source_url        = excluded.source_url,
		   last_refreshed_at = excluded.last_refreshed_at`,
		p.ID, p.SourceID, p.CategorySlug, p.Title, p.Author, p.Price,
		p.Currency, p.ImageURL, p.SourceURL, p.LastRefreshedAt, p.CreatedAt,
	)
	return err
}

// DeleteProductsByCategory removes every product stored under the given
// category key. Used by replace-mode reconciliation to bound growth from
// per-crawl synthetic source IDs.
func (s *Store) DeleteProductsByCategory(ctx context.Context, categorySlug string) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM products WHERE category_slug = ?`, categorySlug)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListProducts returns the products stored under a category key, most
// recently refreshed first.
func (s *Store) ListProducts(ctx context.Context, categorySlug string, limit int) ([]*Product, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, source_id, category_slug, title, author, price,
		   currency, image_url, source_url, last_refreshed_at, created_at
		 FROM products
		 WHERE category_slug = ?
		 ORDER BY last_refreshed_at DESC, source_id ASC
		 LIMIT ?`, categorySlug, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct returns a product by primary ID, or nil.
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, source_id, category_slug, title, author, price,
		   currency, image_url, source_url, last_refreshed_at, created_at
		 FROM products WHERE id = ?`, id)

	var p Product
	err := row.Scan(&p.ID, &p.SourceID, &p.CategorySlug, &p.Title, &p.Author, &p.Price,
		&p.Currency, &p.ImageURL, &p.SourceURL, &p.LastRefreshedAt, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// LatestProductRefresh returns the most recent refresh timestamp among
// products stored under a category key, or nil when none exist.
func (s *Store) LatestProductRefresh(ctx context.Context, categorySlug string) (*int64, error) {
	var ts sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT MAX(last_refreshed_at) FROM products WHERE category_slug = ?`,
		categorySlug).Scan(&ts)
	if err != nil {
		return nil, err
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Int64, nil
}

func scanProduct(rows *sql.Rows) (*Product, error) {
	var p Product
	err := rows.Scan(&p.ID, &p.SourceID, &p.CategorySlug, &p.Title, &p.Author, &p.Price,
		&p.Currency, &p.ImageURL, &p.SourceURL, &p.LastRefreshedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}
