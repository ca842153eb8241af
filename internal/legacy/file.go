package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/chordpick/internal/domain"
)

// Key is the name the flat list was stored under by older versions.
const Key = "cp_entries_v1"

// DefaultCap is the number of most recent entries the flat writer keeps.
const DefaultCap = 200

// File is the legacy flat list: one JSON array of entries in a single file.
type File struct {
	path string
	cap  int
}

// NewFile returns the flat list stored at path. cap <= 0 uses DefaultCap.
func NewFile(path string, cap int) *File {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &File{path: path, cap: cap}
}

// DefaultPath returns the flat list location inside a data directory.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, Key+".json")
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Read returns the stored list. A missing file yields (nil, nil).
func (f *File) Read() ([]domain.Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []domain.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrMalformedLegacyData, f.path, err)
	}
	return entries, nil
}

// Write replaces the list, keeping only the cap most recent entries.
func (f *File) Write(entries []domain.Entry) (int, error) {
	kept := domain.SortEntries(entries, domain.SortLatest)
	if len(kept) > f.cap {
		kept = kept[:f.cap]
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return 0, err
	}

	// Write to a temp file and rename so readers never see a partial list
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return len(kept), nil
}

// Remove deletes the file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

var _ domain.LegacySource = (*File)(nil)
