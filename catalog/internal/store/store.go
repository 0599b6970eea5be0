// Package store persists the catalog cache (categories, products, details)
// in SQLite. It is the sole durable owner of catalog records; the refresh
// pipeline writes only through the upsert/delete operations here.
package store

import "database/sql"

// Store wraps the catalog cache database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store on an opened database. Call ApplySchema first
// (or open via dbopen.WithSchema).
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
