package library

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/search"
)

// View returns the visible list: fuzzy matches for the current query (or
// every entry when the query is empty), sorted by the current sort key.
func (c *Controller) View() []domain.Entry {
	c.viewMu.RLock()
	query, key := c.query, c.sortKey
	list := c.entries
	c.viewMu.RUnlock()

	if strings.TrimSpace(query) != "" {
		list = c.index.Search(query)
	}
	return domain.SortEntries(list, key)
}

// Entries returns every entry, newest first.
func (c *Controller) Entries() []domain.Entry {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()

	out := make([]domain.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Total returns the number of saved entries.
func (c *Controller) Total() int {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return len(c.entries)
}

// Find returns the entry with id.
func (c *Controller) Find(id string) (domain.Entry, bool) {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Entry{}, false
}

func (c *Controller) State() State {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.state
}

func (c *Controller) Query() string {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.query
}

func (c *Controller) Sort() domain.SortKey {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.sortKey
}

// Persistent reports whether entries are saved to durable storage.
func (c *Controller) Persistent() bool {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.persistent
}

// Suggestions returns band names for autocompletion.
func (c *Controller) Suggestions(prefix string) []string {
	return search.Brands(c.Entries(), prefix, search.MaxSuggestions)
}

// Random picks a random entry. ok is false when the list is empty.
func (c *Controller) Random() (e domain.Entry, ok bool) {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	if len(c.entries) == 0 {
		return domain.Entry{}, false
	}
	return c.entries[rand.IntN(len(c.entries))], true
}

// Recent reads the limit most recent entries straight from the store's
// timestamp index.
func (c *Controller) Recent(ctx context.Context, limit int) ([]domain.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil, ErrNotStarted
	}
	return c.store.ListBy(ctx, domain.IndexTS, true, limit)
}
