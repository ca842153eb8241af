package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/mmcdole/chordpick/internal/config"
	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/legacy"
	"github.com/mmcdole/chordpick/internal/library"
	"github.com/mmcdole/chordpick/internal/logging"
	"github.com/mmcdole/chordpick/internal/tui"
	"github.com/mmcdole/chordpick/internal/tui/styles"
)

// shortIDLen is how much of an id list output shows
const (
	shortIDLen = 8
	exportFile = "export.json"
)

// Default runs the TUI on a terminal and prints the list otherwise
func (r *Runner) Default(ctx context.Context, cmd *cli.Command) error {
	if !r.isTerminal() {
		return r.List(ctx, cmd)
	}
	return r.TUI(ctx, cmd)
}

// TUI runs the interactive list
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// stderr logging would draw over the UI
	if r.config.Logging.File == "" {
		r.useLogger(logging.NullLogger())
	}

	notifier := tui.NewChannelNotifier(16)
	ctrl := r.newController(notifier.Notify)
	defer ctrl.Close()

	model := tui.NewModel(tui.Options{
		Controller: ctrl,
		Opener:     r.opener,
		Notifier:   notifier,
		BatchLimit: r.config.Search.BatchLimit,
		Logger:     r.logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	r.logger.Info("starting TUI")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		r.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	r.logger.Info("shutting down")
	return nil
}

// Add saves a new song
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	song := strings.Join(cmd.Args().Slice(), " ")

	ctrl, err := r.startController(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	e, err := ctrl.AddEntry(ctx, song, cmd.String("band"))
	if err != nil {
		return fmt.Errorf("failed to add song: %w", err)
	}
	return r.writePlain("Added %s (%s) %s\n", e.Song, e.GetDescription(), shortID(e.ID))
}

// List prints the visible list for the given sort and query
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.startController(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if s := cmd.String("sort"); s != "" {
		key, err := domain.ParseSortKey(s)
		if err != nil {
			return err
		}
		ctrl.SetSort(key)
	}
	ctrl.SetQuery(cmd.String("query"))

	entries := ctrl.View()
	if cmd.Bool("json") {
		if entries == nil {
			entries = []domain.Entry{}
		}
		return r.writeJSON(entries)
	}

	if len(entries) == 0 {
		if ctrl.Query() != "" {
			return r.writePlain("No matches\n")
		}
		return r.writePlain("No songs yet. Add one with: chordpick add SONG --band BAND\n")
	}
	return r.writePlain("%s\n", renderTable(entries))
}

func renderTable(entries []domain.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{shortID(e.ID), e.Song, e.GetDescription(), e.CreatedAt().Format("2006-01-02")}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.AccentStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "SONG", "BAND", "ADDED").
		Rows(rows...).
		String()
}

// Remove deletes a song by id or unique id prefix
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.startController(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	e, err := resolveEntry(ctrl, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := ctrl.RemoveEntry(ctx, e.ID); err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}
	return r.writePlain("Removed %s (%s)\n", e.Song, e.GetDescription())
}

// Chord opens chord searches for one song or for a filtered list
func (r *Runner) Chord(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.startController(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if id := cmd.StringArg("id"); id != "" {
		e, err := resolveEntry(ctrl, id)
		if err != nil {
			return err
		}
		if err := r.opener.Open(e); err != nil {
			return err
		}
		return r.writePlain("Opened chords for %s\n", e.Song)
	}

	ctrl.SetQuery(cmd.String("query"))
	entries := ctrl.View()
	if len(entries) == 0 {
		return r.writePlain("No songs to open\n")
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.Search.BatchLimit
	}
	if limit <= 0 {
		limit = len(entries)
	}
	if len(entries) > limit && !cmd.Bool("yes") {
		q := fmt.Sprintf("%d songs match. Open chords for the first %d?", len(entries), limit)
		if !r.confirm(q) {
			return r.writePlain("Cancelled\n")
		}
	}

	n, err := r.opener.OpenBatch(entries, limit)
	if err != nil {
		return err
	}
	return r.writePlain("Opened chords for %d songs\n", n)
}

// Random prints a random song
func (r *Runner) Random(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.startController(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	e, ok := ctrl.Random()
	if !ok {
		return r.writePlain("No songs yet\n")
	}
	if err := r.writePlain("%s (%s)\n", e.Song, e.GetDescription()); err != nil {
		return err
	}
	if cmd.Bool("open") {
		return r.opener.Open(e)
	}
	return nil
}

// Export writes the most recent songs in the legacy list format
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("out")
	if path == "" && r.config.Storage.Dir != "" {
		path = filepath.Join(r.config.Storage.Dir, exportFile)
	}
	if path == "" {
		return fmt.Errorf("%w: no output path; pass --out", domain.ErrValidation)
	}
	// Writing the migration source would re-import removed songs
	if samePath(path, r.config.LegacyPath()) {
		return fmt.Errorf("%w: %s is the legacy import file; choose another --out", domain.ErrValidation, path)
	}

	ctrl, err := r.startController(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	limit := r.config.Legacy.Cap
	if limit <= 0 {
		limit = legacy.DefaultCap
	}
	entries, err := ctrl.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read songs: %w", err)
	}

	n, err := legacy.NewFile(path, limit).Write(entries)
	if err != nil {
		return err
	}
	return r.writePlain("Wrote %d songs to %s\n", n, path)
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// ConfigInit writes the default configuration file
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = filepath.Join(config.DefaultConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	written, err := config.SaveConfig(config.DefaultConfig(), path)
	if err != nil {
		return err
	}
	return r.writePlain("Wrote %s\n", written)
}

// resolveEntry finds an entry by exact id or unique id prefix
func resolveEntry(ctrl *library.Controller, id string) (domain.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Entry{}, fmt.Errorf("%w: an id is required", domain.ErrValidation)
	}
	if e, ok := ctrl.Find(id); ok {
		return e, nil
	}

	var match []domain.Entry
	for _, e := range ctrl.Entries() {
		if strings.HasPrefix(e.ID, id) {
			match = append(match, e)
		}
	}
	switch len(match) {
	case 0:
		return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	case 1:
		return match[0], nil
	default:
		return domain.Entry{}, fmt.Errorf("%w: id prefix %q matches %d songs", domain.ErrValidation, id, len(match))
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
