package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/library"
	"github.com/mmcdole/chordpick/internal/search"
	"github.com/mmcdole/chordpick/internal/store"
)

type fakeOpener struct {
	opened []domain.Entry
	limits []int
	err    error
}

func (f *fakeOpener) Open(e domain.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, e)
	return nil
}

func (f *fakeOpener) OpenBatch(entries []domain.Entry, limit int) (int, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return 0, f.err
	}
	n := min(len(entries), limit)
	f.opened = append(f.opened, entries[:n]...)
	return n, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestModel returns a loaded model over a memory store seeded with entries
func newTestModel(t *testing.T, batchLimit int, seed ...domain.Entry) (Model, *fakeOpener) {
	t.Helper()

	mem := store.NewMemory()
	require.NoError(t, mem.BulkInsert(context.Background(), seed))

	notifier := NewChannelNotifier(8)
	ctrl := library.New(library.Config{
		Open:      func(context.Context) (domain.RecordStore, error) { return mem, nil },
		Threshold: search.DefaultThreshold,
		Notify:    notifier.Notify,
	}, quietLogger())
	t.Cleanup(func() { ctrl.Close() })

	opener := &fakeOpener{}
	m := NewModel(Options{
		Controller: ctrl,
		Opener:     opener,
		Notifier:   notifier,
		BatchLimit: batchLimit,
		Logger:     quietLogger(),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, StartCmd(ctrl)())
	require.True(t, m.Ready)
	return m, opener
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and returns the model and resulting command
func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = press(t, m, runes(string(r)))
	}
	return m
}

func songs(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Song
	}
	return out
}

func seedEntries() []domain.Entry {
	return []domain.Entry{
		{ID: "1", Song: "Sugar", Brand: "Maroon 5", TS: 3000},
		{ID: "2", Song: "Creep", Brand: "Radiohead", TS: 2000},
		{ID: "3", Song: "Enter Sandman", Brand: "Metallica", TS: 1000},
	}
}

func TestModel_LoadingView(t *testing.T) {
	ctrl := library.New(library.Config{}, quietLogger())
	m := NewModel(Options{Controller: ctrl, Opener: &fakeOpener{}, Logger: quietLogger()})

	assert.False(t, m.Ready)
	assert.Contains(t, m.View(), "Loading songs")

	// list keys are ignored until loaded
	m, cmd := press(t, m, runes("a"))
	assert.Nil(t, cmd)
	assert.Equal(t, StateBrowsing, m.State)
}

func TestModel_StartShowsNewestFirst(t *testing.T) {
	m, _ := newTestModel(t, 0, seedEntries()...)

	assert.Equal(t, []string{"Sugar", "Creep", "Enter Sandman"}, songs(m.List.Entries()))
	assert.Contains(t, m.View(), "3 songs")
}

func TestModel_AddSong(t *testing.T) {
	m, _ := newTestModel(t, 0, seedEntries()...)

	m, _ = press(t, m, runes("a"))
	require.Equal(t, StateAdding, m.State)

	m = typeText(t, m, "Yesterday")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "The Beatles")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateBrowsing, m.State)
	require.NotNil(t, cmd)

	msg := cmd()
	added, ok := msg.(EntryAddedMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "Yesterday", added.Entry.Song)
	assert.Equal(t, "The Beatles", added.Entry.Brand)

	m = update(t, m, msg)
	assert.Equal(t, "Yesterday", m.List.Entries()[0].Song)
	assert.Equal(t, "Added: Yesterday", m.StatusMsg)
	sel, ok := m.List.Selected()
	require.True(t, ok)
	assert.Equal(t, added.Entry.ID, sel.ID)
}

func TestModel_AddEmptySongShowsError(t *testing.T) {
	m, _ := newTestModel(t, 0)

	m, _ = press(t, m, runes("a"))
	m = typeText(t, m, "   ")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "adding song")
	assert.Zero(t, m.List.Len())
}

func TestModel_AddFormCancel(t *testing.T) {
	m, _ := newTestModel(t, 0)

	m, _ = press(t, m, runes("a"))
	m = typeText(t, m, "Half typed")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.Equal(t, StateBrowsing, m.State)
	assert.False(t, m.Form.IsVisible())
}

func TestModel_BandCompletion(t *testing.T) {
	m, _ := newTestModel(t, 0, seedEntries()...)

	m, _ = press(t, m, runes("a"))
	m = typeText(t, m, "Harder to Breathe")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "maro")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})

	_, brand := m.Form.Values()
	assert.Equal(t, "Maroon 5", brand)
}

func TestModel_Search(t *testing.T) {
	m, _ := newTestModel(t, 0, seedEntries()...)

	m, _ = press(t, m, runes("/"))
	require.Equal(t, StateSearching, m.State)
	m = typeText(t, m, "suger")

	assert.Equal(t, []string{"Sugar"}, songs(m.List.Entries()))
	assert.Contains(t, m.View(), "1 of 3")

	// enter keeps the filter, esc clears it
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateBrowsing, m.State)
	assert.Equal(t, 1, m.List.Len())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 3, m.List.Len())
}

func TestModel_SortCycle(t *testing.T) {
	m, _ := newTestModel(t, 0, seedEntries()...)

	m, _ = press(t, m, runes("s"))
	assert.Equal(t, []string{"Creep", "Enter Sandman", "Sugar"}, songs(m.List.Entries()))
	assert.Equal(t, "Sorted by song", m.StatusMsg)

	m, _ = press(t, m, runes("s"))
	assert.Equal(t, []string{"Sugar", "Enter Sandman", "Creep"}, songs(m.List.Entries()))

	m, _ = press(t, m, runes("s"))
	assert.Equal(t, []string{"Sugar", "Creep", "Enter Sandman"}, songs(m.List.Entries()))
}

func TestModel_DeleteWithConfirmation(t *testing.T) {
	m, _ := newTestModel(t, 0, seedEntries()...)

	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, runes("d"))
	require.Equal(t, StateConfirmDelete, m.State)
	assert.Contains(t, m.View(), `Delete "Creep"?`)

	// n cancels
	m, cmd := press(t, m, runes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, StateBrowsing, m.State)

	m, _ = press(t, m, runes("d"))
	m, cmd = press(t, m, runes("y"))
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.Equal(t, []string{"Sugar", "Enter Sandman"}, songs(m.List.Entries()))
	assert.Equal(t, "Removed: Creep", m.StatusMsg)
}

func TestModel_OpenChord(t *testing.T) {
	m, opener := newTestModel(t, 0, seedEntries()...)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = update(t, m, cmd())

	require.Len(t, opener.opened, 1)
	assert.Equal(t, "Sugar", opener.opened[0].Song)
	assert.Equal(t, "Opened chords: Sugar", m.StatusMsg)
}

func TestModel_OpenChordFailureShowsError(t *testing.T) {
	m, opener := newTestModel(t, 5, seedEntries()...)
	opener.err = errors.New("failed to open browser: xdg-open not found")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "xdg-open not found")

	m = update(t, m, ClearStatusMsg{})
	m, cmd = press(t, m, runes("C"))
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "opening chords")
}

func TestModel_StoreErrorLeftToNotice(t *testing.T) {
	m, _ := newTestModel(t, 0)

	m = update(t, m, ErrMsg{Err: fmt.Errorf("%w: disk full", domain.ErrStorage), Context: "saving song"})
	assert.Empty(t, m.StatusMsg)
}

func TestModel_BatchWithinLimitOpensDirectly(t *testing.T) {
	m, opener := newTestModel(t, 5, seedEntries()...)

	m, cmd := press(t, m, runes("C"))
	assert.Equal(t, StateBrowsing, m.State)
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.Len(t, opener.opened, 3)
	assert.Equal(t, "Opened chords for 3 songs", m.StatusMsg)
}

func TestModel_BatchPastLimitNeedsConfirmation(t *testing.T) {
	m, opener := newTestModel(t, 2, seedEntries()...)

	m, cmd := press(t, m, runes("C"))
	assert.Nil(t, cmd)
	require.Equal(t, StateConfirmBatch, m.State)
	assert.Contains(t, m.View(), "first 2 of 3")

	m, cmd = press(t, m, runes("y"))
	require.NotNil(t, cmd)
	update(t, m, cmd())

	assert.Equal(t, []int{2}, opener.limits)
	assert.Equal(t, []string{"Sugar", "Creep"}, songs(opener.opened))
}

func TestModel_RandomClearsHidingSearch(t *testing.T) {
	m, _ := newTestModel(t, 0, domain.Entry{ID: "1", Song: "Sugar", Brand: "Maroon 5", TS: 1})

	m, _ = press(t, m, runes("/"))
	m = typeText(t, m, "zzzz")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Zero(t, m.List.Len())

	m, _ = press(t, m, runes("r"))
	assert.Equal(t, "Random pick: Sugar (Maroon 5)", m.StatusMsg)
	sel, ok := m.List.Selected()
	require.True(t, ok)
	assert.Equal(t, "Sugar", sel.Song)
}

func TestModel_NoticeSetsStatus(t *testing.T) {
	m, _ := newTestModel(t, 0)

	m = update(t, m, NoticeMsg{Notice: library.Notice{Level: library.NoticeError, Message: "Could not save"}})
	assert.Equal(t, "Could not save", m.StatusMsg)
	assert.True(t, m.StatusIsErr)

	m = update(t, m, ClearStatusMsg{})
	assert.Empty(t, m.StatusMsg)
}

func TestChannelNotifier(t *testing.T) {
	n := NewChannelNotifier(1)
	n.Notify(library.Notice{Message: "first"})
	n.Notify(library.Notice{Message: "dropped"}) // full, must not block

	msg := n.Wait()()
	assert.Equal(t, NoticeMsg{Notice: library.Notice{Message: "first"}}, msg)
}
