package catalog

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/hazyhaar/libraire/catalog/internal/scrape"
	"github.com/hazyhaar/libraire/idgen"
)

// Synthesizer produces deterministic placeholder candidates when live
// extraction yields nothing. Fallback records share the candidate schema
// with real extractions and are persisted identically; only their content
// conventions (the "fallback-" source-ID prefix, the seeded placeholder
// image) mark them.
type Synthesizer struct {
	// BaseURL is the source site origin embedded in candidate URLs.
	BaseURL string
	// Rand supplies price entropy, injectable for tests. Default: global source.
	Rand *rand.Rand
	// Suffix distinguishes repeated fallback runs for the same category.
	// Default: 4-char NanoID.
	Suffix idgen.Generator
}

// Curated navigation used whenever navigation extraction returns nothing.
var fallbackCategories = []scrape.NavCandidate{
	{Title: "Fiction", Slug: "fiction"},
	{Title: "Non-Fiction", Slug: "non-fiction"},
	{Title: "Children's Books", Slug: "childrens"},
	{Title: "Academic", Slug: "academic"},
}

// Fixed pools cycled by position for product fallback.
var (
	fallbackTitles = []string{
		"The Quiet Harbour",
		"A Field Guide to Clouds",
		"Letters from the Attic",
		"The Cartographer's Daughter",
		"Midwinter Recipes",
		"On the Origin of Gardens",
		"The Last Lighthouse Keeper",
		"Notes on a Small Island",
	}
	fallbackAuthors = []string{
		"E. Marsh",
		"Tomas Lindqvist",
		"Priya Raman",
		"Harriet Cole",
		"J. B. Okafor",
		"Miriam Adler",
	}
)

// Product fallback price band.
const (
	fallbackPriceMin  = 5.00
	fallbackPriceSpan = 20.00
)

func (s *Synthesizer) defaults() {
	if s.Suffix == nil {
		s.Suffix = idgen.NanoID(4)
	}
}

// Navigation returns the curated category list with URLs qualified
// against the source origin.
func (s *Synthesizer) Navigation() []scrape.NavCandidate {
	base := strings.TrimRight(s.BaseURL, "/")
	out := make([]scrape.NavCandidate, len(fallbackCategories))
	for i, c := range fallbackCategories {
		c.URL = fmt.Sprintf("%s/category/%s", base, c.Slug)
		out[i] = c
	}
	return out
}

// Products returns exactly count candidates for a category key, cycling
// the fixed title and author pools. Source IDs embed the category and
// index plus a random suffix, so repeated fallback runs for the same
// category remain distinguishable.
func (s *Synthesizer) Products(category string, count int) []scrape.ProductCandidate {
	s.defaults()
	base := strings.TrimRight(s.BaseURL, "/")

	out := make([]scrape.ProductCandidate, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, scrape.ProductCandidate{
			SourceID: fmt.Sprintf("fallback-%s-%d-%s", category, i+1, s.Suffix()),
			Title:    fallbackTitles[i%len(fallbackTitles)],
			Author:   fallbackAuthors[i%len(fallbackAuthors)],
			Price:    s.price(),
			Currency: scrape.DefaultCurrency,
			ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s-%d/200/300", category, i+1),
			URL:      fmt.Sprintf("%s/category/%s/sample-%d", base, category, i+1),
		})
	}
	return out
}

func (s *Synthesizer) price() float64 {
	if s.Rand != nil {
		return fallbackPriceMin + s.Rand.Float64()*fallbackPriceSpan
	}
	return fallbackPriceMin + rand.Float64()*fallbackPriceSpan
}
