package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{})
	defer runner.Close()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "chordpick",
		Usage:   "Keep a list of songs to learn and look up their chords",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Sources: cli.EnvVars("CHORDPICK_CONFIG"),
			},
		},
		Before:   r.Setup,
		Action:   r.Default,
		Commands: r.register(),
	}
}
