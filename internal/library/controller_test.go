package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/legacy"
	"github.com/mmcdole/chordpick/internal/store"
)

// ---- fakes -----------------------------------------------------------------

// flakyStore wraps the memory store and fails selected operations
type flakyStore struct {
	*store.MemoryStore
	failList   bool
	failInsert error
	failRemove bool
}

func (f *flakyStore) List(ctx context.Context) ([]domain.Entry, error) {
	if f.failList {
		return nil, domain.ErrStorage
	}
	return f.MemoryStore.List(ctx)
}

func (f *flakyStore) Insert(ctx context.Context, e domain.Entry) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	return f.MemoryStore.Insert(ctx, e)
}

func (f *flakyStore) Remove(ctx context.Context, id string) error {
	if f.failRemove {
		return domain.ErrStorage
	}
	return f.MemoryStore.Remove(ctx, id)
}

var _ domain.RecordStore = (*flakyStore)(nil)

type fakeLegacy struct {
	entries []domain.Entry
	err     error
	removed bool
}

func (f *fakeLegacy) Read() ([]domain.Entry, error) {
	if f.removed {
		return nil, nil
	}
	return f.entries, f.err
}

func (f *fakeLegacy) Remove() error {
	f.removed = true
	return nil
}

func openWith(s domain.RecordStore) domain.OpenFunc {
	return func(context.Context) (domain.RecordStore, error) { return s, nil }
}

// newController builds a controller with a deterministic clock and ids
func newController(t *testing.T, cfg Config) (*Controller, *[]Notice) {
	t.Helper()
	var notices []Notice
	cfg.Notify = func(n Notice) { notices = append(notices, n) }

	c := New(cfg, nil)
	tick := int64(1000)
	c.now = func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}
	seq := 0
	c.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	t.Cleanup(func() { c.Close() })
	return c, &notices
}

func started(t *testing.T, s domain.RecordStore) *Controller {
	t.Helper()
	c, _ := newController(t, Config{Open: openWith(s), Threshold: 0.3})
	require.NoError(t, c.Start(context.Background()))
	return c
}

func entryIDs(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	sort.Strings(out)
	return out
}

// assertConsistent checks index, in-memory list and store hold the same set
func assertConsistent(t *testing.T, c *Controller) {
	t.Helper()
	stored, err := c.store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entryIDs(stored), entryIDs(c.index.Entries()), "index vs store")
	assert.Equal(t, entryIDs(stored), entryIDs(c.Entries()), "list vs store")
}

// ---- startup ---------------------------------------------------------------

func TestStart_LoadsSortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenBolt(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, s.BulkInsert(ctx, []domain.Entry{
		{ID: "old", Song: "Zebra", TS: 1},
		{ID: "new", Song: "Apple", TS: 2},
	}))

	c, _ := newController(t, Config{Open: openWith(s)})
	assert.Equal(t, StateLoading, c.State())

	require.NoError(t, c.Start(ctx))

	assert.Equal(t, StateReady, c.State())
	assert.True(t, c.Persistent())
	assert.Equal(t, []string{"new", "old"}, []string{c.Entries()[0].ID, c.Entries()[1].ID})
	assert.Equal(t, 2, c.index.Len())
}

func TestStart_MigratesLegacyIntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := legacy.DefaultPath(dir)
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"id":"x1","song":"Sugar","brand":"Maroon 5","ts":1700000000000}]`), 0644))

	s, err := store.OpenBolt(dir, nil)
	require.NoError(t, err)

	c, notices := newController(t, Config{Open: openWith(s), Legacy: legacy.NewFile(path, 0)})
	require.NoError(t, c.Start(ctx))

	stored, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Entry{{ID: "x1", Song: "Sugar", Brand: "Maroon 5", TS: 1700000000000}}, stored)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "legacy storage should be empty")

	assert.Equal(t, []string{"x1"}, entryIDs(c.index.Entries()))
	require.Len(t, *notices, 1)
	assert.Equal(t, NoticeInfo, (*notices)[0].Level)
}

func TestStart_SkipsMigrationWhenStorePopulated(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Insert(ctx, domain.Entry{ID: "a", Song: "Creep", TS: 1}))
	src := &fakeLegacy{entries: []domain.Entry{{ID: "x", Song: "Sugar", TS: 2}}}

	c, _ := newController(t, Config{Open: openWith(s), Legacy: src})
	require.NoError(t, c.Start(ctx))

	assert.False(t, src.removed)
	assert.Equal(t, []string{"a"}, entryIDs(c.Entries()))
}

func TestStart_MalformedLegacyIsSwallowed(t *testing.T) {
	src := &fakeLegacy{err: fmt.Errorf("%w: bad json", domain.ErrMalformedLegacyData)}

	c, notices := newController(t, Config{Open: openWith(store.NewMemory()), Legacy: src})
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, StateReady, c.State())
	assert.Zero(t, c.Total())
	assert.Empty(t, *notices)
}

func TestStart_StorageUnavailableFallsBackToMemory(t *testing.T) {
	open := func(context.Context) (domain.RecordStore, error) {
		return nil, fmt.Errorf("%w: no disk", domain.ErrStorageUnavailable)
	}

	c, notices := newController(t, Config{Open: open})
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, StateReady, c.State())
	assert.False(t, c.Persistent())
	require.Len(t, *notices, 1)
	assert.Equal(t, NoticeWarn, (*notices)[0].Level)

	_, err := c.AddEntry(context.Background(), "Sugar", "")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Total())
}

func TestStart_StorageUnavailableKeepsLegacyFile(t *testing.T) {
	ctx := context.Background()
	path := legacy.DefaultPath(t.TempDir())
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"id":"x1","song":"Sugar","brand":"Maroon 5","ts":1700000000000}]`), 0644))
	open := func(context.Context) (domain.RecordStore, error) {
		return nil, fmt.Errorf("%w: database locked", domain.ErrStorageUnavailable)
	}

	c, notices := newController(t, Config{Open: open, Legacy: legacy.NewFile(path, 0)})
	require.NoError(t, c.Start(ctx))

	assert.False(t, c.Persistent())
	assert.Zero(t, c.Total())
	assert.FileExists(t, path)
	require.Len(t, *notices, 1)
	assert.Equal(t, NoticeWarn, (*notices)[0].Level)

	// a later run with working storage still imports it
	s, err := store.OpenBolt(filepath.Dir(path), nil)
	require.NoError(t, err)
	again, _ := newController(t, Config{Open: openWith(s), Legacy: legacy.NewFile(path, 0)})
	require.NoError(t, again.Start(ctx))
	assert.Equal(t, []string{"x1"}, entryIDs(again.Entries()))
	assert.NoFileExists(t, path)
}

func TestStart_VolatileStoreSkipsMigration(t *testing.T) {
	src := &fakeLegacy{entries: []domain.Entry{{ID: "x", Song: "Sugar", TS: 1}}}

	c, notices := newController(t, Config{Open: openWith(store.NewMemory()), Legacy: src})
	require.NoError(t, c.Start(context.Background()))

	assert.False(t, c.Persistent())
	assert.False(t, src.removed)
	assert.Zero(t, c.Total())
	assert.Empty(t, *notices)
}

func TestStart_ListFailureStartsEmpty(t *testing.T) {
	s := &flakyStore{MemoryStore: store.NewMemory(), failList: true}
	src := &fakeLegacy{entries: []domain.Entry{{ID: "x", Song: "Sugar", TS: 1}}}

	c, notices := newController(t, Config{Open: openWith(s), Legacy: src})
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, StateReady, c.State())
	assert.Zero(t, c.Total())
	assert.False(t, src.removed, "no migration when the store could not be read")
	require.Len(t, *notices, 1)
	assert.Equal(t, NoticeError, (*notices)[0].Level)
}

func TestCommands_BeforeStart(t *testing.T) {
	c, _ := newController(t, Config{})

	_, err := c.AddEntry(context.Background(), "Sugar", "")
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, c.RemoveEntry(context.Background(), "x"), ErrNotStarted)
}

// ---- commands --------------------------------------------------------------

func TestAddEntry(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c := started(t, s)

	e, err := c.AddEntry(ctx, "  Sugar ", " Maroon 5 ")

	require.NoError(t, err)
	assert.Equal(t, "Sugar", e.Song)
	assert.Equal(t, "Maroon 5", e.Brand)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, []domain.Entry{e}, c.Entries())
	assertConsistent(t, c)
}

func TestAddEntry_EmptySongRejected(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c := started(t, s)

	_, err := c.AddEntry(ctx, "", "X")

	assert.ErrorIs(t, err, domain.ErrValidation)
	stored, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Zero(t, c.Total())
	assert.Zero(t, c.index.Len())
}

func TestAddEntry_StoreFailureLeavesViewUnchanged(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{MemoryStore: store.NewMemory()}
	c, notices := newController(t, Config{Open: openWith(s)})
	require.NoError(t, c.Start(ctx))
	_, err := c.AddEntry(ctx, "Creep", "Radiohead")
	require.NoError(t, err)

	for _, failure := range []error{domain.ErrStorage, domain.ErrDuplicateKey} {
		s.failInsert = failure
		before := c.View()

		_, err = c.AddEntry(ctx, "Sugar", "Maroon 5")

		assert.ErrorIs(t, err, failure)
		assert.Equal(t, before, c.View())
		assert.Equal(t, StateReady, c.State())
		assertConsistent(t, c)
	}
	assert.Len(t, *notices, 2)
}

func TestAddEntry_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t, Config{Open: openWith(store.NewMemory())})
	c.newID = New(Config{}, nil).newID // real uuid generator
	require.NoError(t, c.Start(ctx))

	seen := make(map[string]bool)
	for i := range 100 {
		e, err := c.AddEntry(ctx, fmt.Sprintf("Song %d", i), "")
		require.NoError(t, err)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
	assert.Equal(t, 100, c.Total())
}

func TestRemoveEntry_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c := started(t, s)
	_, err := c.AddEntry(ctx, "Creep", "Radiohead")
	require.NoError(t, err)
	before, err := s.List(ctx)
	require.NoError(t, err)

	e, err := c.AddEntry(ctx, "Sugar", "Maroon 5")
	require.NoError(t, err)
	require.NoError(t, c.RemoveEntry(ctx, e.ID))

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, c.index.Search("sugar"))
	assertConsistent(t, c)
}

func TestRemoveEntry_UnknownIDIsNoop(t *testing.T) {
	c := started(t, store.NewMemory())
	_, err := c.AddEntry(context.Background(), "Creep", "")
	require.NoError(t, err)

	require.NoError(t, c.RemoveEntry(context.Background(), "nope"))
	assert.Equal(t, 1, c.Total())
}

func TestRemoveEntry_StoreFailureLeavesViewUnchanged(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{MemoryStore: store.NewMemory()}
	c := started(t, s)
	e, err := c.AddEntry(ctx, "Creep", "")
	require.NoError(t, err)

	s.failRemove = true
	err = c.RemoveEntry(ctx, e.ID)

	assert.True(t, errors.Is(err, domain.ErrStorage))
	assert.Equal(t, 1, c.Total())
	assert.Equal(t, 1, c.index.Len())
}

func TestIndexConsistency_InterleavedMutations(t *testing.T) {
	ctx := context.Background()
	c := started(t, store.NewMemory())

	var live []string
	for i := range 30 {
		e, err := c.AddEntry(ctx, fmt.Sprintf("Song %d", i), fmt.Sprintf("Band %d", i%4))
		require.NoError(t, err)
		live = append(live, e.ID)

		if i%3 == 2 {
			victim := live[0]
			live = live[1:]
			require.NoError(t, c.RemoveEntry(ctx, victim))
		}
		assertConsistent(t, c)
	}
	assert.Equal(t, len(live), c.Total())
}

// ---- views -----------------------------------------------------------------

func TestView_EmptyQueryIsFullSortedList(t *testing.T) {
	ctx := context.Background()
	c := started(t, store.NewMemory())
	_, err := c.AddEntry(ctx, "Zebra", "b")
	require.NoError(t, err)
	_, err = c.AddEntry(ctx, "Apple", "a")
	require.NoError(t, err)

	c.SetQuery("   ")
	c.SetSort(domain.SortSong)
	assert.Equal(t, []string{"Apple", "Zebra"}, songs(c.View()))

	c.SetSort(domain.SortLatest)
	assert.Equal(t, []string{"Apple", "Zebra"}, songs(c.View()))

	c.SetSort(domain.SortBrand)
	assert.Equal(t, []string{"Apple", "Zebra"}, songs(c.View()))
	assert.Equal(t, domain.SortBrand, c.Sort())
}

func TestView_FuzzyQuery(t *testing.T) {
	ctx := context.Background()
	c := started(t, store.NewMemory())
	_, err := c.AddEntry(ctx, "Sugar", "Maroon 5")
	require.NoError(t, err)
	_, err = c.AddEntry(ctx, "Creep", "Radiohead")
	require.NoError(t, err)

	c.SetQuery("suger")

	assert.Equal(t, "suger", c.Query())
	assert.Equal(t, []string{"Sugar"}, songs(c.View()))

	c.SetQuery("")
	assert.Len(t, c.View(), 2)
}

func TestSuggestionsAndRandom(t *testing.T) {
	ctx := context.Background()
	c := started(t, store.NewMemory())

	_, ok := c.Random()
	assert.False(t, ok)

	for _, in := range [][2]string{{"Sugar", "Maroon 5"}, {"Animals", "Maroon 5"}, {"Creep", "Radiohead"}, {"Solo", ""}} {
		_, err := c.AddEntry(ctx, in[0], in[1])
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{"Maroon 5", "Radiohead"}, c.Suggestions(""))
	assert.Equal(t, []string{"Radiohead"}, c.Suggestions("radio"))

	pick, ok := c.Random()
	require.True(t, ok)
	_, found := c.Find(pick.ID)
	assert.True(t, found)
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	c := started(t, store.NewMemory())
	for _, song := range []string{"One", "Two", "Three"} {
		_, err := c.AddEntry(ctx, song, "")
		require.NoError(t, err)
	}

	recent, err := c.Recent(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"Three", "Two"}, songs(recent))
}

func songs(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Song
	}
	return out
}

func TestStart_BoltEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open := store.Opener(store.DriverBolt, dir, nil)

	c, _ := newController(t, Config{Open: open, Legacy: legacy.NewFile(filepath.Join(dir, "none.json"), 0)})
	require.NoError(t, c.Start(ctx))
	e, err := c.AddEntry(ctx, "Sugar", "Maroon 5")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	again, _ := newController(t, Config{Open: open})
	require.NoError(t, again.Start(ctx))
	assert.Equal(t, []domain.Entry{e}, again.Entries())
	assert.Equal(t, []string{"Sugar"}, songs(again.index.Search("suger")))
}
