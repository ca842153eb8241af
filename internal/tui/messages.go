package tui

import (
	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/library"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// StartedMsg signals that the song list finished loading
type StartedMsg struct {
	Err error
}

// EntryAddedMsg signals that a song was saved
type EntryAddedMsg struct {
	Entry domain.Entry
}

// EntryRemovedMsg signals that a song was deleted
type EntryRemovedMsg struct {
	Entry domain.Entry
}

// ChordsOpenedMsg signals that chord searches were handed to the browser
type ChordsOpenedMsg struct {
	Count int
	Song  string // set when a single song was opened
}

// NoticeMsg carries a controller notice into the update loop
type NoticeMsg struct {
	Notice library.Notice
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
