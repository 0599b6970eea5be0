package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/libraire/catalog/internal/scrape"
	"github.com/hazyhaar/libraire/catalog/internal/store"
	"github.com/hazyhaar/libraire/idgen"
)

// Reconciler merges candidate batches into the cache store. Writes are
// per-item upserts keyed by the natural unique key (slug for categories,
// source ID for products); a failing item is logged and skipped so a
// partial batch still lands. After each batch it reads back the key's
// records, which is the result the request layer observes.
type Reconciler struct {
	store  *store.Store
	logger *slog.Logger
	newCat idgen.Generator
	newPrd idgen.Generator
	now    func() time.Time
}

// NewReconciler creates a Reconciler over an opened store.
func NewReconciler(s *store.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:  s,
		logger: logger,
		newCat: idgen.Prefixed("cat_", idgen.Default),
		newPrd: idgen.Prefixed("prd_", idgen.Default),
		now:    time.Now,
	}
}

// Categories upserts navigation candidates and returns the written count
// plus the category list in creation order, capped at limit. The error
// covers only the read-back; per-item upsert failures are skipped.
func (r *Reconciler) Categories(ctx context.Context, cands []scrape.NavCandidate, limit int) (int, []*store.Category, error) {
	if limit <= 0 {
		limit = scrape.DefaultMaxCategories
	}

	now := r.now().UnixMilli()
	written := 0
	for _, c := range cands {
		rec := &store.Category{
			ID:              r.newCat(),
			Title:           c.Title,
			Slug:            c.Slug,
			SourceURL:       c.URL,
			LastRefreshedAt: now,
			CreatedAt:       now,
		}
		if err := r.store.UpsertCategory(ctx, rec); err != nil {
			r.logger.Warn("reconcile: category upsert failed", "slug", c.Slug, "error", err)
			continue
		}
		written++
	}

	records, err := r.store.ListCategories(ctx, limit)
	return written, records, err
}

// Products upserts product candidates under a category key. With
// replaceExisting, the key's stored records are deleted first, bounding
// growth from per-crawl synthetic source IDs. Returns the written count
// plus the key's records, most recently refreshed first.
func (r *Reconciler) Products(ctx context.Context, key string, cands []scrape.ProductCandidate, replaceExisting bool, limit int) (int, []*store.Product, error) {
	if limit <= 0 {
		limit = scrape.DefaultMaxProducts
	}

	if replaceExisting {
		n, err := r.store.DeleteProductsByCategory(ctx, key)
		if err != nil {
			// Upserts still dedupe by source ID, so keep going.
			r.logger.Warn("reconcile: purge failed", "key", key, "error", err)
		} else if n > 0 {
			r.logger.Debug("reconcile: purged stale products", "key", key, "count", n)
		}
	}

	now := r.now().UnixMilli()
	written := 0
	for _, c := range cands {
		rec := &store.Product{
			ID:              r.newPrd(),
			SourceID:        c.SourceID,
			CategorySlug:    key,
			Title:           c.Title,
			Author:          c.Author,
			Price:           c.Price,
			Currency:        c.Currency,
			ImageURL:        c.ImageURL,
			SourceURL:       c.URL,
			LastRefreshedAt: now,
			CreatedAt:       now,
		}
		if err := r.store.UpsertProduct(ctx, rec); err != nil {
			r.logger.Warn("reconcile: product upsert failed", "source_id", c.SourceID, "error", err)
			continue
		}
		written++
	}

	records, err := r.store.ListProducts(ctx, key, limit)
	return written, records, err
}
