package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/library"
)

// Command factories for async operations

// StartCmd loads the song list, importing the legacy list when needed
func StartCmd(c *library.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return StartedMsg{Err: c.Start(ctx)}
	}
}

// AddEntryCmd saves a new song
func AddEntryCmd(c *library.Controller, song, brand string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		e, err := c.AddEntry(ctx, song, brand)
		if err != nil {
			return ErrMsg{Err: err, Context: "adding song"}
		}
		return EntryAddedMsg{Entry: e}
	}
}

// RemoveEntryCmd deletes a song
func RemoveEntryCmd(c *library.Controller, e domain.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.RemoveEntry(ctx, e.ID); err != nil {
			return ErrMsg{Err: err, Context: "removing song"}
		}
		return EntryRemovedMsg{Entry: e}
	}
}

// OpenChordCmd opens the chord search for one song
func OpenChordCmd(opener ChordOpener, e domain.Entry) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Open(e); err != nil {
			return ErrMsg{Err: err, Context: "opening chords"}
		}
		return ChordsOpenedMsg{Count: 1, Song: e.Song}
	}
}

// OpenChordBatchCmd opens chord searches for up to limit songs
func OpenChordBatchCmd(opener ChordOpener, entries []domain.Entry, limit int) tea.Cmd {
	return func() tea.Msg {
		n, err := opener.OpenBatch(entries, limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "opening chords"}
		}
		return ChordsOpenedMsg{Count: n}
	}
}

// ClearStatusCmd clears the status after a delay
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
