package chord

import (
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mmcdole/chordpick/internal/domain"
)

// DefaultSearchURL is the web search used for chord lookups.
const DefaultSearchURL = "https://www.google.com/search"

// DefaultBatchLimit caps how many searches OpenBatch opens at once.
const DefaultBatchLimit = 10

// URL builds the chord search URL for a song: <base>?q=<song> chord
func URL(base, song string) string {
	if base == "" {
		base = DefaultSearchURL
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "q=" + url.QueryEscape(song+" chord")
}

// Launcher opens chord searches in a browser. Opening is fire and forget:
// the browser process is started and never waited on.
type Launcher struct {
	command   string   // configured browser command, empty for system default
	args      []string // additional arguments for the browser
	searchURL string
	logger    *slog.Logger

	// start launches a process without waiting for it
	start func(name string, args ...string) error
}

// NewLauncher creates a Launcher. An empty command uses the system default
// handler (open, xdg-open, start).
func NewLauncher(command string, args []string, searchURL string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Launcher{
		command:   command,
		args:      args,
		searchURL: searchURL,
		logger:    logger,
		start:     startProcess,
	}
}

func startProcess(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// SearchURL returns the chord search URL for e.
func (l *Launcher) SearchURL(e domain.Entry) string {
	return URL(l.searchURL, e.Song)
}

// Open opens the chord search for one entry.
func (l *Launcher) Open(e domain.Entry) error {
	return l.OpenURL(l.SearchURL(e))
}

// OpenBatch opens chord searches for the first limit entries and returns
// how many were opened. limit <= 0 uses DefaultBatchLimit. Callers confirm
// with the user when len(entries) > limit.
func (l *Launcher) OpenBatch(entries []domain.Entry, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	n := min(len(entries), limit)
	for i := range n {
		if err := l.Open(entries[i]); err != nil {
			return i, err
		}
	}
	return n, nil
}

// OpenURL opens target in the configured browser or the system default.
// It returns once the process has started.
func (l *Launcher) OpenURL(target string) error {
	if l.command != "" {
		args := append(append([]string{}, l.args...), target)

		// On macOS, GUI browsers are usually app bundles rather than PATH entries
		if runtime.GOOS == "darwin" {
			if _, err := exec.LookPath(l.command); err != nil {
				l.logger.Info("using macOS 'open -a' for browser", "app", l.command)
				openArgs := []string{"-a", l.command}
				if len(l.args) > 0 {
					openArgs = append(openArgs, "--args")
					openArgs = append(openArgs, l.args...)
				}
				return l.run("open", append(openArgs, target)...)
			}
		}

		l.logger.Info("launching browser", "command", l.command, "url", target)
		return l.run(l.command, args...)
	}

	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", target)
	switch runtime.GOOS {
	case "darwin":
		return l.run("open", target)
	case "windows":
		return l.run("cmd", "/c", "start", "", target)
	default:
		return l.run("xdg-open", target)
	}
}

func (l *Launcher) run(name string, args ...string) error {
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
