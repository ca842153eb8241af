package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/mmcdole/chordpick/internal/chord"
	"github.com/mmcdole/chordpick/internal/config"
	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/legacy"
	"github.com/mmcdole/chordpick/internal/library"
	"github.com/mmcdole/chordpick/internal/logging"
	"github.com/mmcdole/chordpick/internal/store"
)

// ChordOpener opens chord searches for entries
type ChordOpener interface {
	Open(e domain.Entry) error
	OpenBatch(entries []domain.Entry, limit int) (int, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	opener     ChordOpener
	ownOpener  bool
	output     io.Writer
	errOutput  io.Writer
	input      io.Reader
	isTerminal func() bool
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
// Nil fields are filled from the config file and the environment in Setup.
type RunnerOpts struct {
	Config     *config.Config
	Logger     *slog.Logger
	Opener     ChordOpener
	Output     io.Writer
	ErrOutput  io.Writer
	Input      io.Reader
	IsTerminal func() bool
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided options
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		opener:     opts.Opener,
		output:     opts.Output,
		errOutput:  opts.ErrOutput,
		input:      opts.Input,
		isTerminal: opts.IsTerminal,
		now:        opts.Now,
	}
}

// Setup loads configuration and wires the logger and chord launcher.
// It runs before every command.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		cfg, err := config.LoadConfig(cmd.String("config"))
		if err != nil {
			return ctx, fmt.Errorf("failed to load config: %w", err)
		}
		r.config = cfg
	}

	if r.logger == nil {
		logger, closer, err := logging.SetupLogger(&r.config.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger = logging.NullLogger()
		} else {
			r.logCloser = closer
		}
		r.logger = logger
	}
	slog.SetDefault(r.logger)

	if r.opener == nil {
		r.opener = r.newLauncher()
		r.ownOpener = true
	}

	r.logger.Debug("starting chordpick", "version", Version, "driver", r.config.Storage.Driver)
	return ctx, nil
}

func (r *Runner) newLauncher() *chord.Launcher {
	return chord.NewLauncher(r.config.Browser.Command, r.config.Browser.Args, r.config.Search.BaseURL, r.logger)
}

// useLogger replaces the runner and process default loggers. A launcher
// built in Setup is rebuilt so it logs through the new logger too.
func (r *Runner) useLogger(logger *slog.Logger) {
	r.logger = logger
	slog.SetDefault(logger)
	if r.ownOpener {
		r.opener = r.newLauncher()
	}
}

// Close releases the log file
func (r *Runner) Close() error {
	if r.logCloser != nil {
		return r.logCloser.Close()
	}
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		addCommand, listCommand, removeCommand, chordCommand, randomCommand, exportCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newController builds a controller over the configured store and legacy
// list. notify receives user-facing notices.
func (r *Runner) newController(notify func(library.Notice)) *library.Controller {
	cfg := library.Config{
		Open:      store.Opener(r.config.Storage.Driver, r.config.Storage.Dir, r.logger),
		Threshold: r.config.Search.Threshold,
		Sort:      r.config.SortKey(),
		Notify:    notify,
		Now:       r.now,
	}
	if path := r.config.LegacyPath(); path != "" {
		cfg.Legacy = legacy.NewFile(path, r.config.Legacy.Cap)
	}
	return library.New(cfg, r.logger)
}

// startController opens a loaded controller for a one-shot command.
// The caller closes it.
func (r *Runner) startController(ctx context.Context) (*library.Controller, error) {
	ctrl := r.newController(r.printNotice)
	if err := ctrl.Start(ctx); err != nil {
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

func (r *Runner) printNotice(n library.Notice) {
	prefix := ""
	switch n.Level {
	case library.NoticeWarn:
		prefix = "warning: "
	case library.NoticeError:
		prefix = "error: "
	}
	fmt.Fprintln(r.errOutput, prefix+n.Message)
}

// confirm asks a yes/no question on the input stream
func (r *Runner) confirm(question string) bool {
	fmt.Fprintf(r.output, "%s [y/N] ", question)
	answer, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (r *Runner) writeJSON(data any) error {
	enc := json.NewEncoder(r.output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
