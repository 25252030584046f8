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

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User ID or email address",
		Required: true,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, database and browser headers",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing, then initialize the database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Roll back the most recent migration instead of applying pending ones",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "headers",
				Usage: "Save a browser \"Copy as cURL\" export used as the extraction header profile",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from the browser's network tab",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File containing the cURL command",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to save the export (default: ~/.ytstream/headers.sh)",
					},
				},
				Action: r.SetupHeaders,
			},
		},
	}
}

// searchCommand queries the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for videos",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "max",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results (1-50)",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "page",
				Usage: "Page token from a previous search",
			},
		}, outputFlags()...),
		Action: r.Search,
	}
}

// videoCommand resolves streams for a video
func videoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "video",
		Usage: "Resolve playable streams for a video",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  append([]cli.Flag{configFlag()}, outputFlags()...),
		Action: r.Video,
	}
}

// suggestCommand lists query completions
func suggestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "List search suggestions for a partial query",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags:  append([]cli.Flag{configFlag()}, outputFlags()...),
		Action: r.Suggest,
	}
}

// historyCommand manages a user's watch history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Watch history operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a user's watch history, most recent first",
				Flags:  append([]cli.Flag{configFlag(), userFlag()}, outputFlags()...),
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Clear a user's watch history",
				Flags:  []cli.Flag{configFlag(), userFlag()},
				Action: r.HistoryClear,
			},
			{
				Name:  "export",
				Usage: "Export a user's watch history to a file",
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv or md)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: history.<format>)",
					},
				},
				Action: r.HistoryExport,
			},
		},
	}
}

// authCommand handles Google sign-in and session tokens
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Google sign-in and session tokens",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google in the browser and print a session token",
				Flags: append([]cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "id-token",
						Usage: "Sign in with an existing Google ID token instead of the browser flow",
					},
				}, outputFlags()...),
				Action: r.AuthLogin,
			},
			{
				Name:  "whoami",
				Usage: "Show the user a session token belongs to",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "token",
					},
				},
				Flags:  append([]cli.Flag{configFlag()}, outputFlags()...),
				Action: r.AuthWhoami,
			},
		},
	}
}
