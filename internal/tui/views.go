package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/chordpick/internal/library"
	"github.com/mmcdole/chordpick/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return m.loadingView()
	}

	if m.State == StateAdding {
		return m.overlay(m.Form.View())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.searchBar(),
		m.List.View(m.emptyText()),
		m.footer(),
	)
	return content
}

func (m Model) loadingView() string {
	text := "Loading songs..."
	if m.ctrl.State() == library.StateMigrating {
		text = "Importing your old list..."
	}
	line := m.Spinner.View() + " " + styles.SubtitleStyle.Render(text)
	if m.Width == 0 || m.Height == 0 {
		return line
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, line)
}

func (m Model) searchBar() string {
	if m.State == StateSearching || m.ctrl.Query() != "" {
		count := styles.DimStyle.Render(fmt.Sprintf("  %d of %d", m.List.Len(), m.ctrl.Total()))
		return m.Search.View() + count
	}
	return " "
}

func (m Model) emptyText() string {
	if m.ctrl.Query() != "" {
		return "No matches"
	}
	return "No songs yet. Press a to add one."
}

func (m Model) footer() string {
	switch m.State {
	case StateConfirmDelete:
		return styles.WarnStyle.Render(fmt.Sprintf("Delete %q? y/n", m.pending.Song))
	case StateConfirmBatch:
		return styles.WarnStyle.Render(fmt.Sprintf(
			"Open chords for the first %d of %d songs? y/n", m.batchLimit, len(m.batch)))
	}

	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.ErrorStyle.Render(m.StatusMsg)
		}
		return styles.SuccessStyle.Render(m.StatusMsg)
	}
	return m.Help.View(Keys)
}

// overlay centers a modal in the window
func (m Model) overlay(modal string) string {
	if m.Width == 0 || m.Height == 0 {
		return modal
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, modal)
}
