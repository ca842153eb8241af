package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/tui/styles"
)

// Scroll indicators ("↑ more" and "↓ more") each take 1 line
const ScrollIndicatorLines = 2

// SongList is a scrollable list of entries with a cursor.
type SongList struct {
	entries []domain.Entry

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width  int
	height int
}

// NewSongList creates an empty list
func NewSongList() *SongList {
	return &SongList{}
}

// SetEntries replaces the visible entries, keeping the cursor on the same
// entry when it is still present.
func (l *SongList) SetEntries(entries []domain.Entry) {
	var selectedID string
	if e, ok := l.Selected(); ok {
		selectedID = e.ID
	}

	l.entries = entries
	l.cursor = min(l.cursor, max(len(entries)-1, 0))
	if selectedID != "" {
		l.SelectID(selectedID)
	}
	l.ensureVisible()
}

// Entries returns the visible entries
func (l *SongList) Entries() []domain.Entry {
	return l.entries
}

// Len returns the number of visible entries
func (l *SongList) Len() int {
	return len(l.entries)
}

// Selected returns the entry under the cursor
func (l *SongList) Selected() (domain.Entry, bool) {
	if l.cursor < 0 || l.cursor >= len(l.entries) {
		return domain.Entry{}, false
	}
	return l.entries[l.cursor], true
}

// SelectedIndex returns the cursor position
func (l *SongList) SelectedIndex() int {
	return l.cursor
}

// SelectID moves the cursor to the entry with id. Reports whether it was found.
func (l *SongList) SelectID(id string) bool {
	for i, e := range l.entries {
		if e.ID == id {
			l.cursor = i
			l.ensureVisible()
			return true
		}
	}
	return false
}

// MoveCursor moves the cursor by delta, clamped to the list
func (l *SongList) MoveCursor(delta int) {
	if len(l.entries) == 0 {
		return
	}
	l.cursor = max(0, min(l.cursor+delta, len(l.entries)-1))
	l.ensureVisible()
}

// PageSize returns the number of rows visible at once
func (l *SongList) PageSize() int {
	return max(l.maxVisible, 1)
}

// Top moves the cursor to the first entry
func (l *SongList) Top() {
	l.cursor = 0
	l.offset = 0
}

// Bottom moves the cursor to the last entry
func (l *SongList) Bottom() {
	l.cursor = max(len(l.entries)-1, 0)
	l.ensureVisible()
}

// SetSize sets the list dimensions
func (l *SongList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.maxVisible = max(height-ScrollIndicatorLines, 1)
	l.ensureVisible()
}

func (l *SongList) ensureVisible() {
	// Don't adjust offset if size hasn't been set yet
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

// View renders the list. empty is shown when there are no entries.
func (l *SongList) View(empty string) string {
	if len(l.entries) == 0 {
		return " \n" + styles.DimStyle.Render(empty)
	}

	width := max(l.width, 20)
	dateWidth := len("Jan 02 2006")
	brandWidth := max((width-dateWidth-6)/3, 6)
	songWidth := max(width-dateWidth-brandWidth-6, 6)

	end := min(l.offset+l.maxVisible, len(l.entries))
	lines := make([]string, 0, end-l.offset+2)

	// ALWAYS reserve space for header and footer to prevent layout shifts
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	lines = append(lines, header)

	dim := styles.DimGray
	for i := l.offset; i < end; i++ {
		e := l.entries[i]
		parts := []styles.RowPart{
			{Text: styles.Pad(e.Song, songWidth)},
			{Text: "  "},
			{Text: styles.Pad(e.GetDescription(), brandWidth)},
			{Text: "  "},
			{Text: e.CreatedAt().Format("Jan 02 2006"), Foreground: &dim},
		}
		lines = append(lines, styles.RenderListRow(parts, i == l.cursor, width))
	}

	footer := " "
	if end < len(l.entries) {
		footer = styles.DimStyle.Render(fmt.Sprintf("↓ %d more", len(l.entries)-end))
	}
	lines = append(lines, footer)

	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}
