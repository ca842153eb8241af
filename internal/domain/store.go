package domain

import "context"

// SchemaVersion is the current version of the persisted entry table.
// Bump it when bucket/table layout changes; stores rebuild on open.
const SchemaVersion = 1

// IndexField names a secondary index on the entry table.
type IndexField string

const (
	IndexTS    IndexField = "ts"
	IndexSong  IndexField = "song"
	IndexBrand IndexField = "brand"
)

// RecordStore is the durable, transactional entry table.
// Implementations own the only durable copy of the entry set.
type RecordStore interface {
	// List returns every stored entry in unspecified order.
	List(ctx context.Context) ([]Entry, error)

	// Insert adds one entry. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, e Entry) error

	// BulkInsert adds all entries in one transaction, or none of them.
	BulkInsert(ctx context.Context, entries []Entry) error

	// Remove deletes an entry by id. Unknown ids are a no-op.
	Remove(ctx context.Context, id string) error

	// ListBy scans a secondary index in order. limit <= 0 means no limit.
	ListBy(ctx context.Context, field IndexField, desc bool, limit int) ([]Entry, error)

	Close() error
}

// OpenFunc opens (or creates) a record store.
type OpenFunc func(ctx context.Context) (RecordStore, error)

// LegacySource is the flat serialized list written by older versions.
type LegacySource interface {
	// Read returns the stored list. A missing source yields (nil, nil);
	// unparsable content yields ErrMalformedLegacyData.
	Read() ([]Entry, error)

	// Remove deletes the legacy copy. Removing a missing source is a no-op.
	Remove() error
}

// Volatile is implemented by stores whose contents do not outlive the
// process. Legacy data is never migrated into a volatile store.
type Volatile interface {
	Volatile() bool
}

// IsVolatile reports whether s loses its contents on exit.
func IsVolatile(s RecordStore) bool {
	v, ok := s.(Volatile)
	return ok && v.Volatile()
}
