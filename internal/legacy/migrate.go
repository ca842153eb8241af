package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/chordpick/internal/domain"
)

// Migrator moves entries from a legacy flat list into the record store,
// then deletes the flat list so the import never repeats.
type Migrator struct {
	source domain.LegacySource
	store  domain.RecordStore
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewMigrator creates a migrator from source into store.
func NewMigrator(source domain.LegacySource, store domain.RecordStore, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		source: source,
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run imports the legacy list when the store is empty and returns the
// number of entries inserted. Absent or malformed legacy data counts as
// nothing to migrate.
func (m *Migrator) Run(ctx context.Context) (int, error) {
	if m.source == nil {
		return 0, nil
	}

	existing, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("check store before migration: %w", err)
	}
	if len(existing) > 0 {
		m.logger.Debug("store populated, skipping legacy migration", "entries", len(existing))
		return 0, nil
	}

	raw, err := m.source.Read()
	if err != nil {
		if errors.Is(err, domain.ErrMalformedLegacyData) {
			m.logger.Warn("skipping malformed legacy data", "error", err)
			return 0, nil
		}
		m.logger.Warn("legacy data unreadable, skipping migration", "error", err)
		return 0, nil
	}
	if len(raw) == 0 {
		return 0, nil
	}

	entries := m.normalize(raw)
	if err := m.store.BulkInsert(ctx, entries); err != nil {
		// keep the legacy copy so the next start can retry
		return 0, fmt.Errorf("import legacy entries: %w", err)
	}

	if err := m.source.Remove(); err != nil {
		m.logger.Warn("failed to remove legacy data after migration", "error", err)
	}

	m.logger.Info("migrated legacy entries", "imported", len(entries), "skipped", len(raw)-len(entries))
	return len(entries), nil
}

// normalize trims fields, drops entries without a song, fills missing ids
// and timestamps, and keeps the first occurrence of each id.
func (m *Migrator) normalize(raw []domain.Entry) []domain.Entry {
	seen := make(map[string]bool, len(raw))
	out := make([]domain.Entry, 0, len(raw))
	now := m.now().UnixMilli()

	for _, e := range raw {
		e.Song = strings.TrimSpace(e.Song)
		e.Brand = strings.TrimSpace(e.Brand)
		if e.Song == "" {
			continue
		}
		if e.ID == "" {
			e.ID = m.newID()
		}
		if seen[e.ID] {
			continue
		}
		if e.TS <= 0 {
			e.TS = now
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}
