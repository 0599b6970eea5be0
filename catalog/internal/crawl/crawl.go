// Package crawl owns the browser automation session for catalog
// refreshes. One invocation opens one page, waits for readiness plus a
// settle delay, snapshots the DOM, and hands it to the extractor — no
// link-following, no pagination. Every failure inside the session is
// recoverable: the crawl logs and returns zero candidates rather than
// surfacing an error to the refresh path.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"log/slog"

	"github.com/hazyhaar/libraire/catalog/internal/scrape"
)

// Config configures the crawler.
type Config struct {
	// Disabled short-circuits every crawl to zero candidates without
	// opening a session. Deployment-level switch.
	Disabled bool `yaml:"disabled"`

	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `yaml:"remote_url"`

	// NavigationTimeout bounds page navigation and load. Default: 30s.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`

	// HandlerTimeout bounds one whole crawl invocation. Default: 45s.
	HandlerTimeout time.Duration `yaml:"handler_timeout"`

	// SettleDelay is waited after the load event so client-side rendering
	// can finish before the DOM is snapshotted. Completeness over latency:
	// refreshes are infrequent, bounded by the staleness policy. Default: 2s.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// PlainPages skips the stealth page setup. Default: false (stealth on).
	PlainPages bool `yaml:"plain_pages"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = 45 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Crawler drives one-page extraction sessions against the source site.
type Crawler struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher

	// loadDoc is the session seam, replaceable in tests.
	loadDoc func(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// New creates a Crawler. Call Start before crawling (a no-op when
// disabled).
func New(cfg Config) *Crawler {
	cfg.defaults()
	c := &Crawler{cfg: cfg}
	c.loadDoc = c.snapshot
	return c
}

// Start launches Chrome (or connects to a remote instance).
func (c *Crawler) Start() error {
	if c.cfg.Disabled {
		c.cfg.Logger.Info("crawl: automation disabled, browser not started")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	wsURL := c.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("crawl: launch: %w", err)
		}
		wsURL = u
		c.lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("crawl: connect: %w", err)
	}
	c.browser = b
	c.cfg.Logger.Info("crawl: browser ready", "remote", c.cfg.RemoteURL != "")
	return nil
}

// Close shuts down Chrome.
func (c *Crawler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser != nil {
		c.browser.Close()
		c.browser = nil
	}
	if c.lnch != nil {
		c.lnch.Cleanup()
		c.lnch = nil
	}
	return nil
}

// Navigation crawls the source page and extracts up to max category
// candidates. Always best-effort: timeouts, navigation failures, and
// session panics degrade to an empty list.
func (c *Crawler) Navigation(ctx context.Context, pageURL string, max int) ([]scrape.NavCandidate, error) {
	doc, base, ok := c.load(ctx, pageURL)
	if !ok {
		return nil, nil
	}
	return scrape.Navigation(doc, base, max), nil
}

// Products crawls a category listing page and extracts up to max product
// candidates. Same degradation contract as Navigation.
func (c *Crawler) Products(ctx context.Context, pageURL string, max int) ([]scrape.ProductCandidate, error) {
	doc, base, ok := c.load(ctx, pageURL)
	if !ok {
		return nil, nil
	}
	return scrape.Products(doc, base, scrape.ProductOptions{Max: max}), nil
}

func (c *Crawler) load(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, bool) {
	log := c.cfg.Logger.With("url", pageURL)

	if c.cfg.Disabled {
		log.Debug("crawl: skipped, automation disabled")
		return nil, nil, false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		log.Warn("crawl: bad target url", "error", err)
		return nil, nil, false
	}

	start := time.Now()
	doc, err := c.loadDoc(ctx, pageURL)
	if err != nil {
		log.Warn("crawl: session failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, nil, false
	}
	log.Debug("crawl: page snapshot ready", "duration_ms", time.Since(start).Milliseconds())
	return doc, base, true
}

// snapshot opens a tab, navigates, waits for load plus the settle delay,
// and returns the serialized DOM. The handler timeout scopes the whole
// session; the navigation timeout scopes navigate+load.
func (c *Crawler) snapshot(ctx context.Context, pageURL string) (doc *goquery.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl: session panic: %v", r)
		}
	}()

	c.mu.Lock()
	b := c.browser
	c.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("crawl: browser not started")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandlerTimeout)
	defer cancel()

	// Tab creation is a CDP round trip; bind it to the handler timeout
	// so a hung target-create cannot outlive the session budget.
	b = b.Context(ctx)

	var page *rod.Page
	if c.cfg.PlainPages {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	} else {
		page, err = stealth.Page(b)
	}
	if err != nil {
		return nil, fmt.Errorf("crawl: create tab: %w", err)
	}
	defer page.Close()

	navCtx, navCancel := context.WithTimeout(ctx, c.cfg.NavigationTimeout)
	defer navCancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("crawl: navigate: %w", err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		// Load-event timeouts are common on heavy pages; the settle delay
		// below still gives the DOM a chance to be usable.
		c.cfg.Logger.Warn("crawl: wait load timeout", "url", pageURL, "error", err)
	}

	select {
	case <-time.After(c.cfg.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("crawl: get DOM: %w", err)
	}

	return goquery.NewDocumentFromReader(strings.NewReader(res.Value.Str()))
}
