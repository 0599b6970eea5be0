package scrape

import "strings"

// Slugify lowercases text and collapses every run of non-alphanumeric
// characters into a single hyphen, with leading/trailing hyphens stripped.
// Slugs are the natural key for categories, so two link texts that differ
// only in punctuation or spacing dedupe to one candidate.
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
