package search

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mmcdole/chordpick/internal/domain"
)

// Result is a matched entry with its score (lower = better).
type Result struct {
	Entry domain.Entry
	Score float64
}

// indexedEntry pre-computes folded fields at index time
type indexedEntry struct {
	entry domain.Entry
	song  string
	brand string
}

// Index is an in-memory fuzzy index over song and band names. It is a
// derived projection of the record store, patched on every add/remove.
type Index struct {
	mu        sync.RWMutex
	threshold float64
	items     []indexedEntry // insertion order
	positions map[string]int // id -> position in items
	logger    *slog.Logger
}

// NewIndex creates an empty index. threshold outside [0,1] falls back to
// DefaultThreshold.
func NewIndex(threshold float64, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold < 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Index{
		threshold: threshold,
		positions: make(map[string]int),
		logger:    logger,
	}
}

// Threshold returns the configured match threshold.
func (x *Index) Threshold() float64 {
	return x.threshold
}

// Build replaces the index contents with entries.
func (x *Index) Build(entries []domain.Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.items = make([]indexedEntry, 0, len(entries))
	x.positions = make(map[string]int, len(entries))
	for _, e := range entries {
		x.addLocked(e)
	}
	x.logger.Debug("built search index", "entries", len(x.items))
}

// Add registers one entry. Already indexed ids are skipped.
func (x *Index) Add(e domain.Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.addLocked(e)
}

func (x *Index) addLocked(e domain.Entry) {
	if _, ok := x.positions[e.ID]; ok {
		return
	}
	x.positions[e.ID] = len(x.items)
	x.items = append(x.items, indexedEntry{
		entry: e,
		song:  strings.ToLower(e.Song),
		brand: strings.ToLower(e.Brand),
	})
}

// Remove deregisters the entry with id. Reports whether it was indexed.
func (x *Index) Remove(id string) bool {
	return x.RemoveFunc(func(e domain.Entry) bool { return e.ID == id }) > 0
}

// RemoveFunc deregisters every entry matching pred and returns the count.
func (x *Index) RemoveFunc(pred func(domain.Entry) bool) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.items[:0]
	removed := 0
	for _, it := range x.items {
		if pred(it.entry) {
			delete(x.positions, it.entry.ID)
			removed++
			continue
		}
		kept = append(kept, it)
	}
	if removed == 0 {
		return 0
	}

	x.items = kept
	for i, it := range x.items {
		x.positions[it.entry.ID] = i
	}
	return removed
}

// Entries returns the indexed entries in insertion order.
func (x *Index) Entries() []domain.Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]domain.Entry, len(x.items))
	for i, it := range x.items {
		out[i] = it.entry
	}
	return out
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.items)
}

// Search returns matching entries, best first. An empty query returns nil;
// callers show the full list instead.
func (x *Index) Search(query string) []domain.Entry {
	results := x.SearchScored(query)
	if results == nil {
		return nil
	}
	out := make([]domain.Entry, len(results))
	for i, r := range results {
		out[i] = r.Entry
	}
	return out
}

// SearchScored is Search with match scores.
func (x *Index) SearchScored(query string) []Result {
	folded := strings.ToLower(strings.TrimSpace(query))
	if folded == "" {
		return nil
	}
	words := tokenize(folded)

	x.mu.RLock()
	defer x.mu.RUnlock()

	results := make([]Result, 0)
	for _, it := range x.items {
		if score, ok := matchFields(folded, words, x.threshold, it.song, it.brand); ok {
			results = append(results, Result{Entry: it.entry, Score: score})
		}
	}

	// score, then shorter song; stable keeps insertion order for the rest
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return len(results[i].Entry.Song) < len(results[j].Entry.Song)
	})

	x.logger.Debug("searched index", "query", query, "results", len(results))
	return results
}
