package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/chordpick/internal/library"
)

// ChannelNotifier adapts controller notices to a channel for Bubble Tea.
type ChannelNotifier struct {
	ch chan library.Notice
}

// NewChannelNotifier creates a notifier buffering up to size notices.
func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan library.Notice, size)}
}

// Notify sends the notice to the channel (non-blocking if full).
func (n *ChannelNotifier) Notify(notice library.Notice) {
	select {
	case n.ch <- notice:
	default: // Non-blocking if channel full
	}
}

// Wait returns a command that delivers the next notice as a NoticeMsg.
func (n *ChannelNotifier) Wait() tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Notice: <-n.ch}
	}
}
