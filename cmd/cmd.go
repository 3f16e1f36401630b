// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the state database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// connectCommand validates and stores Maintainerr credentials.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect to a Maintainerr server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Maintainerr server URL (default from config or $SWIPEARR_URL)",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Aliases: []string{"k"},
				Usage:   "Maintainerr API key (default from config or $SWIPEARR_API_KEY)",
			},
			&cli.StringFlag{
				Name:  "curl",
				Usage: "cURL command copied from the Maintainerr web UI (Copy as cURL)",
			},
			&cli.StringFlag{
				Name:  "curl-file",
				Usage: "Path to a file containing a copied cURL command",
			},
		},
		Action: r.Connect,
	}
}

func disconnectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "disconnect",
		Usage:  "Forget the server, selections and history",
		Action: r.Disconnect,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show connection, selection and progress",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

// librariesCommand handles Plex library selection
func librariesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "libraries",
		Aliases: []string{"lib", "libs"},
		Usage:   "List Plex libraries",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Libraries,
		Commands: []*cli.Command{
			{
				Name:  "select",
				Usage: "Select a library and load its media",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.LibrariesSelect,
			},
			{
				Name:   "back",
				Usage:  "Deselect the current library",
				Action: r.LibrariesBack,
			},
		},
	}
}

// collectionsCommand handles the target collection
func collectionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collections",
		Aliases: []string{"col"},
		Usage:   "List collections compatible with the selected library",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include collections from other libraries",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Collections,
		Commands: []*cli.Command{
			{
				Name:  "select",
				Usage: "Add right swipes to this collection and start swiping",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.CollectionsSelect,
			},
			{
				Name:   "none",
				Usage:  "Browse only: right swipes add nothing",
				Action: r.CollectionsNone,
			},
		},
	}
}

func filtersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "filters",
		Usage: "Show or change the media type filter and sort order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Media type: all, movie or tv",
			},
			&cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   "Sort: oldest, lastWatched or uncollected",
			},
		},
		Action: r.Filters,
	}
}

func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Show the current item and what is left to review",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of items to list",
				Value:   10,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or json",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the session snapshot as JSON",
			},
		},
		Action: r.Queue,
	}
}

// swipeCommand applies a decision to the current item
func swipeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "swipe",
		Usage: "Decide on the current item: left (skip), right (add) or down (exclude)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "direction"},
		},
		Action: r.Swipe,
	}
}

func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Manage review progress",
		Commands: []*cli.Command{
			{
				Name:   "reset",
				Usage:  "Start over from the first item and clear history",
				Action: r.ProgressReset,
			},
		},
	}
}

func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Refetch media and collections for the selected library",
		Action: r.Refresh,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Export recent swipe decisions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, md or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
		},
		Action: r.History,
	}
}

func posterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "poster",
		Usage: "Print, open or download the current item's poster",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the poster in the browser",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Download the poster to this path",
			},
		},
		Action: r.Poster,
	}
}

// apiCommand handles direct Maintainerr API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the Maintainerr API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive curation.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive swipe interface",
		Action:  r.TUI,
	}
}
