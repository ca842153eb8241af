package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mmcdole/chordpick/internal/domain"
)

// MemoryStore is a non-persistent domain.RecordStore. It backs the
// session when persistent storage is unavailable.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.Entry
	order   []string // insertion order
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]domain.Entry)}
}

// Volatile reports true; nothing survives Close.
func (s *MemoryStore) Volatile() bool { return true }

func (s *MemoryStore) List(ctx context.Context) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.Entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}
	return entries, nil
}

func (s *MemoryStore) Insert(ctx context.Context, e domain.Entry) error {
	return s.BulkInsert(ctx, []domain.Entry{e})
}

func (s *MemoryStore) BulkInsert(ctx context.Context, entries []domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching state
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if _, ok := s.entries[e.ID]; ok || seen[e.ID] {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, e.ID)
		}
		seen[e.ID] = true
	}
	for _, e := range entries {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ListBy(ctx context.Context, field domain.IndexField, desc bool, limit int) ([]domain.Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var key func(e domain.Entry) string
	switch field {
	case domain.IndexTS:
		key = func(e domain.Entry) string { return fmt.Sprintf("%020d", e.TS) }
	case domain.IndexSong:
		key = func(e domain.Entry) string { return strings.ToLower(e.Song) }
	case domain.IndexBrand:
		key = func(e domain.Entry) string { return strings.ToLower(e.Brand) }
	default:
		return nil, fmt.Errorf("unknown index %q", field)
	}

	// Same ordering as the bolt index keys: value, then id
	sort.Slice(entries, func(i, j int) bool {
		ki, kj := key(entries[i]), key(entries[j])
		if ki != kj {
			return (ki < kj) != desc
		}
		return (entries[i].ID < entries[j].ID) != desc
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
