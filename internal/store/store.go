package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/chordpick/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketEntries = []byte("entries")
	bucketByTS    = []byte("idx_ts")
	bucketBySong  = []byte("idx_song")
	bucketByBrand = []byte("idx_brand")
	bucketMeta    = []byte("meta")

	keySchemaVersion = []byte("schema_version")
)

// indexBuckets are rebuilt from bucketEntries on schema upgrade
var indexBuckets = [][]byte{bucketByTS, bucketBySong, bucketByBrand}

const boltFile = "chordpick.db"

// BoltStore implements domain.RecordStore using BoltDB.
//
// Layout: entries holds id -> JSON. Each secondary index bucket holds
// ordered keys ending in the entry id with empty values:
//
//	idx_ts:    8-byte big-endian ts | id
//	idx_song:  lower(song) | 0x00 | id
//	idx_brand: lower(brand) | 0x00 | id
type BoltStore struct {
	db     *bolt.DB
	logger *slog.Logger
}

// OpenBolt opens or creates the entry database under dir.
func OpenBolt(dir string, logger *slog.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: no data directory configured", domain.ErrStorageUnavailable)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	dbPath := filepath.Join(dir, boltFile)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bolt db: %w", domain.ErrStorageUnavailable, err)
	}

	s := &BoltStore{db: db, logger: logger}
	if err := s.openOrCreate(domain.SchemaVersion); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("opened entry store", "driver", DriverBolt, "path", dbPath)
	return s, nil
}

// openOrCreate creates buckets on first use and rebuilds the secondary
// indexes when the stored schema version is older than version.
func (s *BoltStore) openOrCreate(version int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}

		current := 0
		if v := meta.Get(keySchemaVersion); v != nil {
			current, err = strconv.Atoi(string(v))
			if err != nil {
				return fmt.Errorf("corrupt schema version %q", v)
			}
		}
		if current > version {
			return fmt.Errorf("database schema version %d is newer than supported %d", current, version)
		}

		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		if current == version {
			for _, name := range indexBuckets {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
			return nil
		}

		if err := rebuildIndexes(tx); err != nil {
			return err
		}
		if current > 0 {
			s.logger.Info("upgraded entry store schema", "from", current, "to", version)
		}
		return meta.Put(keySchemaVersion, []byte(strconv.Itoa(version)))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}

func rebuildIndexes(tx *bolt.Tx) error {
	for _, name := range indexBuckets {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return err
		}
	}
	return tx.Bucket(bucketEntries).ForEach(func(_, v []byte) error {
		var e domain.Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		return putIndexes(tx, e)
	})
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *BoltStore) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.View(fn); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}

func (s *BoltStore) update(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrDuplicateKey):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
}

func tsKey(e domain.Entry) []byte {
	k := make([]byte, 8+len(e.ID))
	binary.BigEndian.PutUint64(k, uint64(e.TS))
	copy(k[8:], e.ID)
	return k
}

func textKey(value, id string) []byte {
	k := make([]byte, 0, len(value)+1+len(id))
	k = append(k, strings.ToLower(value)...)
	k = append(k, 0)
	return append(k, id...)
}

// idFromIndexKey extracts the entry id from a secondary index key
func idFromIndexKey(field domain.IndexField, k []byte) []byte {
	if field == domain.IndexTS {
		if len(k) < 8 {
			return nil
		}
		return k[8:]
	}
	i := bytes.LastIndexByte(k, 0)
	if i < 0 {
		return nil
	}
	return k[i+1:]
}

func indexBucket(field domain.IndexField) ([]byte, error) {
	switch field {
	case domain.IndexTS:
		return bucketByTS, nil
	case domain.IndexSong:
		return bucketBySong, nil
	case domain.IndexBrand:
		return bucketByBrand, nil
	default:
		return nil, fmt.Errorf("unknown index %q", field)
	}
}

func putIndexes(tx *bolt.Tx, e domain.Entry) error {
	if err := tx.Bucket(bucketByTS).Put(tsKey(e), nil); err != nil {
		return err
	}
	if err := tx.Bucket(bucketBySong).Put(textKey(e.Song, e.ID), nil); err != nil {
		return err
	}
	return tx.Bucket(bucketByBrand).Put(textKey(e.Brand, e.ID), nil)
}

func deleteIndexes(tx *bolt.Tx, e domain.Entry) error {
	if err := tx.Bucket(bucketByTS).Delete(tsKey(e)); err != nil {
		return err
	}
	if err := tx.Bucket(bucketBySong).Delete(textKey(e.Song, e.ID)); err != nil {
		return err
	}
	return tx.Bucket(bucketByBrand).Delete(textKey(e.Brand, e.ID))
}

func insert(tx *bolt.Tx, e domain.Entry) error {
	b := tx.Bucket(bucketEntries)
	if b.Get([]byte(e.ID)) != nil {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, e.ID)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := b.Put([]byte(e.ID), data); err != nil {
		return err
	}
	return putIndexes(tx, e)
}

// === RecordStore ===

func (s *BoltStore) List(ctx context.Context) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := s.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(_, v []byte) error {
			var e domain.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BoltStore) Insert(ctx context.Context, e domain.Entry) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		return insert(tx, e)
	})
}

func (s *BoltStore) BulkInsert(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	// A returned error rolls back the whole transaction
	return s.update(ctx, func(tx *bolt.Tx) error {
		for _, e := range entries {
			if err := insert(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Remove(ctx context.Context, id string) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		var e domain.Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		if err := deleteIndexes(tx, e); err != nil {
			return err
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) ListBy(ctx context.Context, field domain.IndexField, desc bool, limit int) ([]domain.Entry, error) {
	name, err := indexBucket(field)
	if err != nil {
		return nil, err
	}

	var entries []domain.Entry
	err = s.view(ctx, func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketEntries)
		c := tx.Bucket(name).Cursor()

		first, next := c.First, c.Next
		if desc {
			first, next = c.Last, c.Prev
		}

		for k, _ := first(); k != nil; k, _ = next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			v := data.Get(idFromIndexKey(field, k))
			if v == nil {
				s.logger.Warn("dangling index key", "index", string(name))
				continue
			}
			var e domain.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
