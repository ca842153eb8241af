package main

import "github.com/urfave/cli/v3"

// addCommand saves a song
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a song to the list",
		ArgsUsage: "SONG",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "band",
				Aliases: []string{"b"},
				Usage:   "Band or artist",
			},
		},
		Action: r.Add,
	}
}

// listCommand prints the list
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List saved songs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   "Sort by latest, song or band",
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Fuzzy search over song and band",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.List,
	}
}

// removeCommand deletes a song
func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "rm",
		Aliases: []string{"remove"},
		Usage:   "Remove a song by id (a unique prefix is enough)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Remove,
	}
}

// chordCommand opens chord searches in the browser
func chordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chord",
		Usage: "Open the chord search for a song, or for every song matching a query",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Open chords for songs matching this search",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of searches to open (default from config)",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Do not ask before opening more than the limit",
			},
		},
		Action: r.Chord,
	}
}

// randomCommand picks a random song
func randomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Pick a random song",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open its chord search",
			},
		},
		Action: r.Random,
	}
}

// exportCommand writes the legacy flat list
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the most recent songs to a legacy list file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: export.json in storage.dir)",
			},
		},
		Action: r.Export,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the file",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}
