// Package scrape extracts catalog candidates from a loaded page snapshot.
//
// Both modes are pure over a goquery document: the crawl layer owns the
// browser session and hands a parsed snapshot in. Selector strategies are
// ordered, declarative lists so supporting a new page structure is an
// addition, not a control-flow edit.
package scrape

// NavCandidate is a not-yet-persisted navigation category.
type NavCandidate struct {
	Title string
	Slug  string
	URL   string
}

// ProductCandidate is a not-yet-persisted product listing entry.
type ProductCandidate struct {
	SourceID string
	Title    string
	Author   string
	Price    float64
	Currency string
	ImageURL string
	URL      string
}

// DefaultMaxCategories caps navigation extraction.
const DefaultMaxCategories = 8

// DefaultMaxProducts caps product-listing extraction.
const DefaultMaxProducts = 10

// DefaultCurrency tags extracted and synthesized prices.
const DefaultCurrency = "GBP"
