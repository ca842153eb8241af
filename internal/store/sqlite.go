package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/store/migrations"
)

const sqliteFile = "chordpick.sqlite"

// columns for ListBy; values are interpolated, never user input
var sqliteOrder = map[domain.IndexField]string{
	domain.IndexTS:    "ts",
	domain.IndexSong:  "song COLLATE NOCASE",
	domain.IndexBrand: "brand COLLATE NOCASE",
}

// SQLiteStore implements domain.RecordStore on a SQLite file. The schema
// is owned by goose; the applied migration version is the schema version.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the entry database under dir and applies
// pending migrations.
func OpenSQLite(ctx context.Context, dir string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: no data directory configured", domain.ErrStorageUnavailable)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	dbPath := filepath.Join(dir, sqliteFile)
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=1000")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", domain.ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", domain.ErrStorageUnavailable, err)
	}
	// Single writer; keeps transactions serialized like the bolt backend
	db.SetMaxOpenConns(1)

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate schema: %w", domain.ErrStorage, err)
	}
	for _, r := range results {
		logger.Info("applied schema migration", "version", r.Source.Version, "duration", r.Duration)
	}

	logger.Debug("opened entry store", "driver", DriverSQLite, "path", dbPath)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// SchemaVersion reports the applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations.FS)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func storageErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("%w: %w", domain.ErrDuplicateKey, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Entry, error) {
	return s.query(ctx, `SELECT id, song, brand, ts FROM entries`)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.Song, &e.Brand, &e.TS); err != nil {
			return nil, storageErr(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return entries, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, song, brand, ts) VALUES (?, ?, ?, ?)`,
		e.ID, e.Song, e.Brand, e.TS)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *SQLiteStore) BulkInsert(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer tx.Rollback() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (id, song, brand, ts) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return storageErr(err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Song, e.Brand, e.TS); err != nil {
			return storageErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *SQLiteStore) ListBy(ctx context.Context, field domain.IndexField, desc bool, limit int) ([]domain.Entry, error) {
	col, ok := sqliteOrder[field]
	if !ok {
		return nil, fmt.Errorf("unknown index %q", field)
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	q := fmt.Sprintf(`SELECT id, song, brand, ts FROM entries ORDER BY %s %s, id %s LIMIT ?`, col, dir, dir)
	return s.query(ctx, q, limit)
}
