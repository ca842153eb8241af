package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/chordpick/internal/tui/styles"
)

const (
	fieldSong = iota
	fieldBrand
)

// SongForm is the add-song modal: a song field and a band field with
// tab completion of known bands.
type SongForm struct {
	visible bool
	inputs  [2]textinput.Model
	focus   int

	// suggest returns band names ranked for a prefix
	suggest func(prefix string) []string

	// completion cycle state for the band field
	completions []string
	completeIdx int
}

// NewSongForm creates a form. suggest may be nil.
func NewSongForm(suggest func(prefix string) []string) SongForm {
	var inputs [2]textinput.Model
	for i, placeholder := range []string{"Song name", "Band (optional)"} {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 120
		ti.Width = 36
		ti.Prompt = "  "
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		inputs[i] = ti
	}
	return SongForm{inputs: inputs, suggest: suggest}
}

// Show displays the empty form with the song field focused
func (f *SongForm) Show() tea.Cmd {
	f.visible = true
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.resetCompletion()
	return f.setFocus(fieldSong)
}

// Hide dismisses the form
func (f *SongForm) Hide() {
	f.visible = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// IsVisible returns whether the form is shown
func (f SongForm) IsVisible() bool {
	return f.visible
}

// Values returns the entered song and band
func (f SongForm) Values() (song, brand string) {
	return f.inputs[fieldSong].Value(), f.inputs[fieldBrand].Value()
}

// Update handles input events, returns (form, cmd, submitted)
func (f SongForm) Update(msg tea.Msg) (SongForm, tea.Cmd, bool) {
	if !f.visible {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return f, nil, true
		case "esc":
			f.Hide()
			return f, nil, false
		case "tab":
			if f.focus == fieldSong {
				return f, f.setFocus(fieldBrand), false
			}
			f.complete()
			return f, nil, false
		case "shift+tab":
			return f, f.setFocus(fieldSong), false
		}
	}

	f.resetCompletion()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f *SongForm) setFocus(field int) tea.Cmd {
	f.focus = field
	for i := range f.inputs {
		if i != field {
			f.inputs[i].Blur()
		}
	}
	return f.inputs[field].Focus()
}

// complete replaces the band with the next suggestion for what was typed
// before the first tab.
func (f *SongForm) complete() {
	if f.suggest == nil {
		return
	}
	if f.completions == nil {
		f.completions = f.suggest(strings.TrimSpace(f.inputs[fieldBrand].Value()))
		f.completeIdx = 0
	}
	if len(f.completions) == 0 {
		return
	}
	f.inputs[fieldBrand].SetValue(f.completions[f.completeIdx%len(f.completions)])
	f.inputs[fieldBrand].CursorEnd()
	f.completeIdx++
}

func (f *SongForm) resetCompletion() {
	f.completions = nil
	f.completeIdx = 0
}

// View renders the form modal
func (f SongForm) View() string {
	if !f.visible {
		return ""
	}

	label := func(field int, text string) string {
		if f.focus == field {
			return styles.AccentStyle.Render(text)
		}
		return styles.DimStyle.Render(text)
	}

	hint := styles.DimStyle.Render("tab: next/complete band · enter: save · esc: cancel")

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Add song"),
		label(fieldSong, "Song"),
		f.inputs[fieldSong].View(),
		"",
		label(fieldBrand, "Band"),
		f.inputs[fieldBrand].View(),
		"",
		hint,
	)
	return styles.ModalStyle.Render(content)
}
