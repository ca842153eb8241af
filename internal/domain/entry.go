package domain

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a single saved song.
type Entry struct {
	ID    string `json:"id"`
	Song  string `json:"song"`
	Brand string `json:"brand"` // band or artist, may be empty
	TS    int64  `json:"ts"`    // creation time, epoch milliseconds
}

// NewEntry builds an entry from raw form input. The id and timestamp are
// assigned here and never change afterwards.
func NewEntry(id, song, brand string, now time.Time) (Entry, error) {
	song = strings.TrimSpace(song)
	brand = strings.TrimSpace(brand)
	if song == "" {
		return Entry{}, fmt.Errorf("%w: song name is required", ErrValidation)
	}
	if id == "" {
		return Entry{}, fmt.Errorf("%w: entry id is required", ErrValidation)
	}
	return Entry{ID: id, Song: song, Brand: brand, TS: now.UnixMilli()}, nil
}

// CreatedAt returns the creation time.
func (e Entry) CreatedAt() time.Time {
	return time.UnixMilli(e.TS)
}

// GetTitle returns the display title
func (e Entry) GetTitle() string {
	return e.Song
}

// GetDescription returns the band line shown under the title
func (e Entry) GetDescription() string {
	if e.Brand == "" {
		return "—"
	}
	return e.Brand
}
