package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/chordpick/internal/domain"
)

// Storage drivers
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Drivers lists the supported storage drivers.
func Drivers() []string {
	return []string{DriverBolt, DriverSQLite, DriverMemory}
}

// Open opens the entry store for driver under dir.
func Open(ctx context.Context, driver, dir string, logger *slog.Logger) (domain.RecordStore, error) {
	switch driver {
	case DriverBolt, "":
		return OpenBolt(dir, logger)
	case DriverSQLite:
		return OpenSQLite(ctx, dir, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", domain.ErrStorageUnavailable, driver)
	}
}

// Opener returns a domain.OpenFunc bound to driver and dir.
func Opener(driver, dir string, logger *slog.Logger) domain.OpenFunc {
	return func(ctx context.Context) (domain.RecordStore, error) {
		return Open(ctx, driver, dir, logger)
	}
}

var (
	_ domain.RecordStore = (*BoltStore)(nil)
	_ domain.RecordStore = (*SQLiteStore)(nil)
	_ domain.RecordStore = (*MemoryStore)(nil)
	_ domain.Volatile    = (*MemoryStore)(nil)
)
