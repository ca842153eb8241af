package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, even while typing
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Handle state-specific keys
	switch m.State {
	case StateAdding:
		return m.handleFormKey(msg)

	case StateSearching:
		return m.handleSearchKey(msg)

	case StateConfirmDelete:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			return m, RemoveEntryCmd(m.ctrl, m.pending)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateConfirmBatch:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			entries := m.batch
			m.batch = nil
			return m, OpenChordBatchCmd(m.opener, entries, m.batchLimit)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
			m.batch = nil
		}
		return m, nil
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Escape):
		// Clear active search if any
		if m.ctrl.Query() != "" {
			m.Search.SetValue("")
			m.ctrl.SetQuery("")
			m.refresh()
		}
		return m, nil
	}

	// Everything below needs the loaded list
	if !m.Ready {
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Up):
		m.List.MoveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.List.MoveCursor(1)
	case key.Matches(msg, Keys.PageUp):
		m.List.MoveCursor(-m.List.PageSize())
	case key.Matches(msg, Keys.PageDown):
		m.List.MoveCursor(m.List.PageSize())
	case key.Matches(msg, Keys.Home):
		m.List.Top()
	case key.Matches(msg, Keys.End):
		m.List.Bottom()

	case key.Matches(msg, Keys.Add):
		m.State = StateAdding
		return m, m.Form.Show()

	case key.Matches(msg, Keys.Search):
		m.State = StateSearching
		return m, m.Search.Focus()

	case key.Matches(msg, Keys.Sort):
		m.ctrl.SetSort(m.ctrl.Sort().Next())
		m.refresh()
		return m, m.setStatus("Sorted by "+m.ctrl.Sort().String(), false)

	case key.Matches(msg, Keys.Delete):
		if e, ok := m.List.Selected(); ok {
			m.pending = e
			m.State = StateConfirmDelete
		}

	case key.Matches(msg, Keys.Chord):
		if e, ok := m.List.Selected(); ok {
			return m, OpenChordCmd(m.opener, e)
		}

	case key.Matches(msg, Keys.ChordBatch):
		entries := m.List.Entries()
		if len(entries) == 0 {
			return m, nil
		}
		if len(entries) > m.batchLimit {
			m.batch = entries
			m.State = StateConfirmBatch
			return m, nil
		}
		return m, OpenChordBatchCmd(m.opener, entries, m.batchLimit)

	case key.Matches(msg, Keys.Random):
		return m, m.pickRandom()
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form, cmd, submitted := m.Form.Update(msg)
	m.Form = form
	if submitted {
		song, brand := m.Form.Values()
		m.Form.Hide()
		m.State = StateBrowsing
		return m, AddEntryCmd(m.ctrl, song, brand)
	}
	if !m.Form.IsVisible() {
		m.State = StateBrowsing
	}
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Search.SetValue("")
		m.Search.Blur()
		m.ctrl.SetQuery("")
		m.State = StateBrowsing
		m.refresh()
		return m, nil
	case "enter", "down", "up":
		// Keep the query and return to the list
		m.Search.Blur()
		m.State = StateBrowsing
		return m, nil
	}

	var cmd tea.Cmd
	m.Search, cmd = m.Search.Update(msg)
	m.ctrl.SetQuery(m.Search.Value())
	m.refresh()
	m.List.Top()
	return m, cmd
}

// pickRandom selects a random song, clearing the search when it hides it
func (m *Model) pickRandom() tea.Cmd {
	e, ok := m.ctrl.Random()
	if !ok {
		return m.setStatus("No songs yet", false)
	}
	if !m.List.SelectID(e.ID) {
		m.Search.SetValue("")
		m.ctrl.SetQuery("")
		m.refresh()
		m.List.SelectID(e.ID)
	}
	return m.setStatus(fmt.Sprintf("Random pick: %s (%s)", e.Song, e.GetDescription()), false)
}
