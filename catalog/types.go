// Package catalog maintains a locally cached bookstore catalog refreshed
// on demand by headless-browser extraction.
//
// A refresh for a catalog key (the navigation singleton, or a category
// slug for product listings) consults the staleness policy, crawls the
// source site when the cache is stale, synthesizes fallback records when
// extraction comes back empty, and reconciles the batch into SQLite via
// idempotent upserts. Refreshes degrade, never fail: the caller always
// receives the best data currently obtainable.
package catalog

import (
	"github.com/hazyhaar/libraire/catalog/internal/scrape"
	"github.com/hazyhaar/libraire/catalog/internal/store"
)

// Schema is the catalog SQL schema, exposed for dbopen.WithSchema.
const Schema = store.Schema

// Re-export store and candidate types for the public API.
type (
	Category         = store.Category
	Product          = store.Product
	ProductDetail    = store.ProductDetail
	NavCandidate     = scrape.NavCandidate
	ProductCandidate = scrape.ProductCandidate
)
