package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/chordpick/internal/domain"
)

// MaxSuggestions caps the band suggestion list.
const MaxSuggestions = 100

// brandSource implements sahilm/fuzzy.Source over distinct band names
type brandSource []string

// String returns the band name at index i (implements fuzzy.Source)
func (b brandSource) String(i int) string { return b[i] }

// Len returns the number of band names (implements fuzzy.Source)
func (b brandSource) Len() int { return len(b) }

// Brands returns distinct non-empty band names from entries, in first-seen
// order. With a non-empty prefix the names are fuzzy-filtered and ranked
// against it. At most limit names are returned (<= 0 uses MaxSuggestions).
func Brands(entries []domain.Entry, prefix string, limit int) []string {
	if limit <= 0 {
		limit = MaxSuggestions
	}

	seen := make(map[string]bool)
	var brands brandSource
	for _, e := range entries {
		if e.Brand == "" || seen[e.Brand] {
			continue
		}
		seen[e.Brand] = true
		brands = append(brands, e.Brand)
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		if len(brands) > limit {
			brands = brands[:limit]
		}
		return brands
	}

	matches := fuzzy.FindFrom(prefix, brands)
	out := make([]string, 0, min(len(matches), limit))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, brands[m.Index])
	}
	return out
}
