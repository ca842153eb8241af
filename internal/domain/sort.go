package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey selects the ordering of the visible list.
type SortKey string

const (
	SortLatest SortKey = "latest"
	SortSong   SortKey = "song"
	SortBrand  SortKey = "brand"
)

// SortKeys lists the sort modes in cycle order.
func SortKeys() []SortKey {
	return []SortKey{SortLatest, SortSong, SortBrand}
}

// ParseSortKey converts user input to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortLatest, "":
		return SortLatest, nil
	case SortSong:
		return SortSong, nil
	case SortBrand, "band":
		return SortBrand, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", ErrValidation, s)
	}
}

// String returns the display name for the sort key
func (k SortKey) String() string {
	switch k {
	case SortSong:
		return "Song A–Z"
	case SortBrand:
		return "Band A–Z"
	default:
		return "Latest"
	}
}

// Next returns the following sort key in cycle order.
func (k SortKey) Next() SortKey {
	keys := SortKeys()
	for i, key := range keys {
		if key == k {
			return keys[(i+1)%len(keys)]
		}
	}
	return SortLatest
}

// SortEntries returns a sorted copy. Ties keep their input order.
func SortEntries(entries []Entry, key SortKey) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	switch key {
	case SortSong:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Song) < strings.ToLower(out[j].Song)
		})
	case SortBrand:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Brand) < strings.ToLower(out[j].Brand)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TS > out[j].TS
		})
	}
	return out
}
