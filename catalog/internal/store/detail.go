package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertProductDetail adds a detail row for a product. The caller is
// responsible for only inserting once per product (product_id is the
// primary key).
func (s *Store) InsertProductDetail(ctx context.Context, d *ProductDetail) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO product_details (product_id, description, ratings_avg, reviews_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.ProductID, d.Description, d.RatingsAvg, d.ReviewsCount, d.CreatedAt,
	)
	return err
}

// GetProductDetail returns the detail row for a product, or nil.
func (s *Store) GetProductDetail(ctx context.Context, productID string) (*ProductDetail, error) {
	var d ProductDetail
	err := s.DB.QueryRowContext(ctx,
		`SELECT product_id, description, ratings_avg, reviews_count, created_at
		 FROM product_details WHERE product_id = ?`, productID).
		Scan(&d.ProductID, &d.Description, &d.RatingsAvg, &d.ReviewsCount, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product detail: %w", err)
	}
	return &d, nil
}
