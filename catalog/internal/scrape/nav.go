package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// navStrategies are tried most specific to least specific. Unlike product
// extraction, results are merged across all strategies with a global
// slug-dedup, so a sparse primary nav can be topped up by footer links.
var navStrategies = []string{
	"nav.primary a",
	"nav a",
	"header a",
	".navigation a",
	".menu a",
	"[class*='nav'] a",
	".categories a",
	"footer a",
}

// navKeywords is the topical allowlist: a link qualifies as a category
// only when its text or target matches the catalog vocabulary. Keeps
// account/help/basket links out of the navigation cache.
var navKeywords = []string{
	"fiction",
	"non-fiction",
	"nonfiction",
	"children",
	"kids",
	"young adult",
	"teen",
	"mystery",
	"crime",
	"thriller",
	"romance",
	"fantasy",
	"horror",
	"science",
	"sci-fi",
	"history",
	"biography",
	"poetry",
	"academic",
	"education",
	"rare",
	"bestseller",
	"books",
}

// navPathHints qualify a link by its URL when the text alone is ambiguous.
var navPathHints = []string{
	"/category/",
	"/categories/",
	"/collections/",
	"/genre/",
	"/books",
}

const (
	navTextMinLen = 3
	navTextMaxLen = 49
)

// Navigation extracts category candidates from a page snapshot. Candidates
// are deduplicated by slug (first occurrence wins) and capped at max; a
// max <= 0 falls back to DefaultMaxCategories.
func Navigation(doc *goquery.Document, base *url.URL, max int) []NavCandidate {
	if max <= 0 {
		max = DefaultMaxCategories
	}

	seen := make(map[string]bool)
	var out []NavCandidate

	for _, strategy := range navStrategies {
		doc.Find(strategy).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if cand, ok := navCandidate(sel, base); ok && !seen[cand.Slug] {
				seen[cand.Slug] = true
				out = append(out, cand)
			}
			return len(out) < max
		})
		if len(out) >= max {
			break
		}
	}

	if len(out) > max {
		out = out[:max]
	}
	return out
}

// navCandidate reads one anchor. Returns ok=false when the anchor fails
// the length filter or the topical allowlist; a bad anchor never aborts
// the surrounding scan.
func navCandidate(sel *goquery.Selection, base *url.URL) (NavCandidate, bool) {
	text := strings.TrimSpace(sel.Text())
	if len(text) < navTextMinLen || len(text) > navTextMaxLen {
		return NavCandidate{}, false
	}

	href, _ := sel.Attr("href")
	if !matchesVocabulary(text, href) {
		return NavCandidate{}, false
	}

	slug := Slugify(text)
	if slug == "" {
		return NavCandidate{}, false
	}

	return NavCandidate{
		Title: text,
		Slug:  slug,
		URL:   absoluteURL(href, base),
	}, true
}

func matchesVocabulary(text, href string) bool {
	lower := strings.ToLower(text)
	for _, kw := range navKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	lowerHref := strings.ToLower(href)
	for _, hint := range navPathHints {
		if strings.Contains(lowerHref, hint) {
			return true
		}
	}
	return false
}

// absoluteURL qualifies href against the source origin. Unparseable or
// empty hrefs resolve to the base itself.
func absoluteURL(href string, base *url.URL) string {
	if base == nil {
		return href
	}
	if href == "" {
		return base.String()
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base.String()
	}
	return base.ResolveReference(ref).String()
}
