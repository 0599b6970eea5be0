package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/libraire/catalog/internal/crawl"
	"github.com/hazyhaar/libraire/catalog/internal/scrape"
	"github.com/hazyhaar/libraire/catalog/internal/store"
)

// NavigationKey is the singleton refresh key for the category cache.
const NavigationKey = "navigation"

// Crawler is the automation seam: one call, one page load, best-effort
// candidates. Implemented by crawl.Crawler; replaced by a stub in tests.
type Crawler interface {
	Navigation(ctx context.Context, pageURL string, max int) ([]scrape.NavCandidate, error)
	Products(ctx context.Context, pageURL string, max int) ([]scrape.ProductCandidate, error)
}

// Service coordinates catalog refreshes: staleness check, crawl,
// fallback synthesis, reconciliation, cache read-back.
type Service struct {
	store   *store.Store
	crawler Crawler
	policy  *StalenessPolicy
	synth   *Synthesizer
	rec     *Reconciler
	logger  *slog.Logger
	cfg     *Config
	rand    *rand.Rand

	ownsCrawler bool

	// keys serializes refreshes per catalog key so concurrent calls for
	// the same stale key issue a single crawl. Keys are few (navigation
	// plus known category slugs), so entries are never evicted.
	keysMu sync.Mutex
	keys   map[string]*sync.Mutex
}

// ServiceOption configures optional Service dependencies.
type ServiceOption func(*Service)

// WithCrawler injects a crawler, replacing the rod-backed default. The
// service will not manage the injected crawler's lifecycle.
func WithCrawler(c Crawler) ServiceOption {
	return func(s *Service) {
		s.crawler = c
		s.ownsCrawler = false
	}
}

// WithClock injects the clock used for staleness decisions and record
// timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.policy.Now = now
		s.rec.now = now
	}
}

// WithRand injects the entropy source for synthesized prices and detail
// ratings, making fallback output deterministic in tests.
func WithRand(r *rand.Rand) ServiceOption {
	return func(s *Service) {
		s.rand = r
		s.synth.Rand = r
	}
}

// New creates the catalog service on an opened cache database. The
// schema must already be applied (dbopen.WithSchema(store.Schema)).
func New(db *sql.DB, cfg *Config, logger *slog.Logger, opts ...ServiceOption) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Crawl.Logger == nil {
		cfg.Crawl.Logger = logger
	}

	st := store.NewStore(db)
	s := &Service{
		store: st,
		policy: &StalenessPolicy{
			NavigationTTL: cfg.Staleness.NavigationTTL,
			ProductTTL:    cfg.Staleness.ProductTTL,
		},
		synth:       &Synthesizer{BaseURL: cfg.BaseURL},
		rec:         NewReconciler(st, logger),
		logger:      logger,
		cfg:         cfg,
		ownsCrawler: true,
		keys:        make(map[string]*sync.Mutex),
	}
	s.crawler = crawl.New(cfg.Crawl)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the browser when the service owns a rod-backed crawler.
func (s *Service) Start() error {
	if !s.ownsCrawler {
		return nil
	}
	if c, ok := s.crawler.(*crawl.Crawler); ok {
		return c.Start()
	}
	return nil
}

// Close shuts the owned crawler down.
func (s *Service) Close() error {
	if !s.ownsCrawler {
		return nil
	}
	if c, ok := s.crawler.(*crawl.Crawler); ok {
		return c.Close()
	}
	return nil
}

// Navigation returns the category cache, refreshing it first when stale
// or when force is set. Refresh failures degrade: crawl to fallback,
// fallback to the previously cached records.
func (s *Service) Navigation(ctx context.Context, force bool) ([]*Category, error) {
	unlock := s.lockKey(NavigationKey)
	defer unlock()

	log := s.logger.With("key", NavigationKey)

	last, err := s.store.LatestCategoryRefresh(ctx)
	if err != nil {
		log.Warn("navigation: timestamp lookup failed, treating as stale", "error", err)
		last = nil
	}

	dec := s.policy.Decide(ClassNavigation, last, force)
	if !dec.Refresh {
		log.Debug("navigation: serving cached", "reason", dec.Reason)
		return s.store.ListCategories(ctx, s.cfg.MaxCategories)
	}

	cands, _ := s.crawler.Navigation(ctx, s.cfg.BaseURL, s.cfg.MaxCategories)
	if len(cands) == 0 {
		log.Info("navigation: extraction empty, using fallback catalog")
		cands = s.synth.Navigation()
	}
	if len(cands) == 0 {
		log.Warn("navigation: no candidates at all, serving prior cache")
		return s.store.ListCategories(ctx, s.cfg.MaxCategories)
	}

	written, records, err := s.rec.Categories(ctx, cands, s.cfg.MaxCategories)
	if err != nil {
		return nil, fmt.Errorf("catalog: navigation read-back: %w", err)
	}
	log.Info("navigation: refreshed", "written", written, "reason", dec.Reason)
	return records, nil
}

// Products returns the product cache for a category key, refreshing it
// first when stale or when force is set. A refresh wholesale-replaces
// the key's records (crawl source IDs are synthetic per crawl).
func (s *Service) Products(ctx context.Context, categorySlug string, force bool, limit int) ([]*Product, error) {
	key := strings.ToLower(strings.TrimSpace(categorySlug))
	if key == "" {
		return nil, fmt.Errorf("catalog: empty category key")
	}
	if limit <= 0 {
		limit = s.cfg.MaxProducts
	}

	unlock := s.lockKey(key)
	defer unlock()

	log := s.logger.With("key", key)

	last, err := s.store.LatestProductRefresh(ctx, key)
	if err != nil {
		log.Warn("products: timestamp lookup failed, treating as stale", "error", err)
		last = nil
	}

	dec := s.policy.Decide(ClassProducts, last, force)
	if !dec.Refresh {
		log.Debug("products: serving cached", "reason", dec.Reason)
		return s.store.ListProducts(ctx, key, limit)
	}

	cands, _ := s.crawler.Products(ctx, s.listingURL(ctx, key), limit)
	if len(cands) == 0 {
		log.Info("products: extraction empty, synthesizing fallback", "count", limit)
		cands = s.synth.Products(key, limit)
	}
	if len(cands) == 0 {
		log.Warn("products: no candidates at all, serving prior cache")
		return s.store.ListProducts(ctx, key, limit)
	}

	written, records, err := s.rec.Products(ctx, key, cands, true, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: products read-back: %w", err)
	}
	log.Info("products: refreshed", "written", written, "reason", dec.Reason)
	return records, nil
}

// Product returns one product plus its detail row, creating a synthetic
// detail on first access (the source site's detail pages are not
// crawled).
func (s *Service) Product(ctx context.Context, id string) (*Product, *ProductDetail, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: product lookup: %w", err)
	}
	if p == nil {
		return nil, nil, nil
	}

	detail, err := s.store.GetProductDetail(ctx, p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: detail lookup: %w", err)
	}
	if detail == nil {
		detail = &ProductDetail{
			ProductID:    p.ID,
			Description:  fmt.Sprintf("Detailed description for %s.", p.Title),
			RatingsAvg:   3.0 + s.float64()*2.0,
			ReviewsCount: 10 + s.intn(100),
			CreatedAt:    s.rec.now().UnixMilli(),
		}
		if err := s.store.InsertProductDetail(ctx, detail); err != nil {
			// Serve the synthesized detail anyway; a second read recreates it.
			s.logger.Warn("product: detail insert failed", "product_id", p.ID, "error", err)
		}
	}
	return p, detail, nil
}

func (s *Service) lockKey(key string) func() {
	s.keysMu.Lock()
	mu, ok := s.keys[key]
	if !ok {
		mu = &sync.Mutex{}
		s.keys[key] = mu
	}
	s.keysMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// listingURL resolves the page to crawl for a category key: the cached
// category's own source URL when known, a conventional path otherwise.
func (s *Service) listingURL(ctx context.Context, key string) string {
	if cat, err := s.store.GetCategoryBySlug(ctx, key); err == nil && cat != nil && cat.SourceURL != "" {
		return cat.SourceURL
	}
	return fmt.Sprintf("%s/category/%s", strings.TrimRight(s.cfg.BaseURL, "/"), key)
}

func (s *Service) float64() float64 {
	if s.rand != nil {
		return s.rand.Float64()
	}
	return rand.Float64()
}

func (s *Service) intn(n int) int {
	if s.rand != nil {
		return s.rand.Intn(n)
	}
	return rand.Intn(n)
}
