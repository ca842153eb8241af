package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/chordpick/internal/chord"
	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/library"
	"github.com/mmcdole/chordpick/internal/tui/components"
	"github.com/mmcdole/chordpick/internal/tui/styles"
)

// ApplicationState represents the current input mode of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateAdding
	StateConfirmDelete
	StateConfirmBatch
)

// ChordOpener opens chord searches in a browser
type ChordOpener interface {
	Open(e domain.Entry) error
	OpenBatch(entries []domain.Entry, limit int) (int, error)
}

// Layout
const (
	// header + search bar + status/help footer
	ChromeHeight = 4

	statusDuration      = 3 * time.Second
	errorStatusDuration = 5 * time.Second
)

// Options configures the model
type Options struct {
	Controller *library.Controller
	Opener     ChordOpener
	Notifier   *ChannelNotifier // optional; delivers controller notices
	BatchLimit int
	Logger     *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool // controller finished loading

	ctrl       *library.Controller
	opener     ChordOpener
	notifier   *ChannelNotifier
	batchLimit int
	logger     *slog.Logger

	// UI components
	List    *components.SongList
	Form    components.SongForm
	Search  textinput.Model
	Spinner spinner.Model
	Help    help.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	pending     domain.Entry   // awaiting delete confirmation
	batch       []domain.Entry // awaiting batch confirmation
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = chord.DefaultBatchLimit
	}

	ti := textinput.New()
	ti.Placeholder = "type to search..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		State:      StateBrowsing,
		ctrl:       opts.Controller,
		opener:     opts.Opener,
		notifier:   opts.Notifier,
		batchLimit: opts.BatchLimit,
		logger:     opts.Logger,
		List:       components.NewSongList(),
		Form:       components.NewSongForm(opts.Controller.Suggestions),
		Search:     ti,
		Spinner:    sp,
		Help:       help.New(),
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{StartCmd(m.ctrl), m.Spinner.Tick}
	if m.notifier != nil {
		cmds = append(cmds, m.notifier.Wait())
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.List.SetSize(msg.Width, max(msg.Height-ChromeHeight, 1))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if m.Ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case StartedMsg:
		m.Ready = true
		if msg.Err != nil {
			m.logger.Error("song list load interrupted", "error", msg.Err)
		}
		m.refresh()
		return m, nil

	case EntryAddedMsg:
		m.refresh()
		if !m.List.SelectID(msg.Entry.ID) {
			m.List.Top()
		}
		return m, m.setStatus("Added: "+msg.Entry.Song, false)

	case EntryRemovedMsg:
		m.refresh()
		return m, m.setStatus("Removed: "+msg.Entry.Song, false)

	case ChordsOpenedMsg:
		if msg.Song != "" {
			return m, m.setStatus("Opened chords: "+msg.Song, false)
		}
		return m, m.setStatus(fmt.Sprintf("Opened chords for %d songs", msg.Count), false)

	case NoticeMsg:
		cmd := m.setStatus(msg.Notice.Message, msg.Notice.Level == library.NoticeError)
		if m.notifier != nil {
			cmd = tea.Batch(cmd, m.notifier.Wait())
		}
		return m, cmd

	case ErrMsg:
		if m.notifier != nil && announced(msg.Err) {
			return m, nil
		}
		return m, m.setStatus(msg.Error(), true)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// refresh reloads the visible list from the controller
func (m *Model) refresh() {
	m.List.SetEntries(m.ctrl.View())
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	if isErr {
		return ClearStatusCmd(errorStatusDuration)
	}
	return ClearStatusCmd(statusDuration)
}

// announced reports store errors the controller already raised as notices
func announced(err error) bool {
	return errors.Is(err, domain.ErrStorage) || errors.Is(err, domain.ErrDuplicateKey)
}

// header renders the title line
func (m Model) header() string {
	title := styles.TitleStyle.Render("chordpick")

	var badges []string
	badges = append(badges, styles.DimBadgeStyle.Render(fmt.Sprintf("%d songs", m.ctrl.Total())))
	badges = append(badges, styles.DimBadgeStyle.Render("sort: "+m.ctrl.Sort().String()))
	if m.Ready && !m.ctrl.Persistent() {
		badges = append(badges, styles.BadgeStyle.Render("not saved"))
	}
	return title + " " + strings.Join(badges, " ")
}
