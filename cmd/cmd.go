// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// withOutput appends the --json and --pretty flags to flags.
func withOutput(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	)
}

func itemsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "items",
			Aliases: []string{"i"},
			Usage:   "JSON array of items, e.g. '[\"a\", {\"url\": \"b\"}]'",
		},
		&cli.StringFlag{
			Name:  "items-file",
			Usage: "Path to a file containing a JSON array of items",
		},
	}
}

func sessionAndNameArgs() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "session"}, &cli.StringArg{Name: "name"}}
}

func nameArgs() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "name"}}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playlist HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand creates the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write a default config file if missing, then initialize the database",
		Action: r.Setup,
	}
}

// migrateCommand manages schema versions.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database schema migrations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Action: r.MigrateUp,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrateRollback,
			},
			{
				Name:   "status",
				Usage:  "Print the current schema version",
				Action: r.MigrateStatus,
			},
		},
	}
}

// sessionCommand gets or creates a session.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Get or create a session (a new identifier is generated when omitted)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Flags:  withOutput(),
		Action: r.Session,
	}
}

// playlistsCommand handles per-session playlist operations.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Session playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a session's playlists",
				Arguments: []cli.Argument{&cli.StringArg{Name: "session"}},
				Flags:     withOutput(),
				Action:    r.PlaylistsList,
			},
			{
				Name:      "get",
				Usage:     "Show one playlist",
				Arguments: sessionAndNameArgs(),
				Flags:     withOutput(),
				Action:    r.PlaylistsGet,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: sessionAndNameArgs(),
				Flags:     withOutput(itemsFlags()...),
				Action:    r.PlaylistsCreate,
			},
			{
				Name:      "update",
				Usage:     "Replace a playlist's items",
				Arguments: sessionAndNameArgs(),
				Flags:     withOutput(itemsFlags()...),
				Action:    r.PlaylistsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist (the default playlist cannot be deleted)",
				Arguments: sessionAndNameArgs(),
				Action:    r.PlaylistsDelete,
			},
			{
				Name:      "current",
				Usage:     "Set the session's current playlist",
				Arguments: sessionAndNameArgs(),
				Action:    r.PlaylistsCurrent,
			},
		},
	}
}

// globalCommand handles the shared global session.
func globalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "global",
		Usage: "Global session playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "session",
				Usage:  "Get or create the global session",
				Flags:  withOutput(),
				Action: r.GlobalSession,
			},
			{
				Name:   "list",
				Usage:  "List global playlists",
				Flags:  withOutput(),
				Action: r.GlobalList,
			},
			{
				Name:      "get",
				Usage:     "Show one global playlist",
				Arguments: nameArgs(),
				Flags:     withOutput(),
				Action:    r.GlobalGet,
			},
			{
				Name:      "put",
				Usage:     "Create or replace a global playlist",
				Arguments: nameArgs(),
				Flags:     withOutput(itemsFlags()...),
				Action:    r.GlobalPut,
			},
			{
				Name:      "delete",
				Usage:     "Delete a global playlist",
				Arguments: nameArgs(),
				Action:    r.GlobalDelete,
			},
			{
				Name:      "current",
				Usage:     "Set the global current playlist",
				Arguments: nameArgs(),
				Action:    r.GlobalCurrent,
			},
		},
	}
}

// feedCommand handles RSS/Atom normalization.
func feedCommand(r *Runner) *cli.Command {
	formatFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: json, csv, markdown, txt",
			Value:   "json",
		}
	}

	return &cli.Command{
		Name:  "feed",
		Usage: "RSS/Atom feed operations",
		Commands: []*cli.Command{
			{
				Name:  "parse",
				Usage: "Fetch and normalize one feed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.FeedParse,
			},
			{
				Name:      "bulk",
				Usage:     "Fetch and normalize many feeds concurrently (URLs as arguments, --url or --file)",
				ArgsUsage: "[url...]",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringSliceFlag{
						Name:    "url",
						Aliases: []string{"u"},
						Usage:   "Feed URL (repeatable)",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "File with one feed URL per line",
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: feeds_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Feeds dispatched per second",
						Value: 5,
					},
				},
				Action: r.FeedBulk,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing a session.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse a session's playlists interactively",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "global",
				Usage: "Browse the global session",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs here while the TUI runs",
				Value: "./tmp/playq-tui.log",
			},
		},
		Action: r.TUI,
	}
}
