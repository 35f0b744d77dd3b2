// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.IntSliceFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Candidate port, repeatable; tried in order",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Ignore configured ports and ask the OS for a free one",
		},
		&cli.StringFlag{
			Name:  "response",
			Usage: "Path to an HTML file served to the browser after the redirect",
		},
	}
}

// serveCommand runs a capture session until interrupted
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Listen for OAuth redirects and print captured URLs",
		Flags: append(sessionFlags(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output captured redirects as JSON",
			},
		),
		Action: r.Serve,
	}
}

// authorizeCommand runs the full browser authorization flow
func authorizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "authorize",
		Aliases: []string{"auth"},
		Usage:   "Open the browser and capture the authorization code",
		Flags: append(sessionFlags(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the redirect",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Record the capture in the history database",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the result as JSON",
			},
		),
		Action: r.Authorize,
	}
}

// historyCommand manages the capture history database
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded captures",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded captures, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of captures to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "prune",
				Usage: "Delete captures older than a cutoff",
				Flags: []cli.Flag{
					configFlag(),
					&cli.DurationFlag{
						Name:     "older-than",
						Usage:    "Delete captures older than this duration",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows deleted per batch",
						Value: 100,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Delete batches per second",
						Value: 4,
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize configuration and the history database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for interactive capture monitoring.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for watching captures",
		Flags:   sessionFlags(),
		Action:  r.TUI,
	}
}
