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

// setupCommand initializes configuration and the local library index
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the local library index",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "scan",
				Usage: "Scan the configured music directory after setup",
			},
		},
		Action: r.Setup,
	}
}

// serveCommand starts the HTTP API server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the aggregation HTTP server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// searchCommand runs an aggregated search from the terminal
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search every source for a song",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
		},
		Action: r.Search,
	}
}

// resolveCommand resolves one song to a playable URL
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a song to a playable URL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Song ID within its source",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Source the song came from (NETEASE, BILIBILI, YOUTUBE, LOCAL, PLUGIN)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "quality",
				Usage: "Playback tier: standard, exhigh or lossless",
				Value: "exhigh",
			},
			&cli.StringFlag{
				Name:  "plugin",
				Usage: "Plugin id for PLUGIN-source songs",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Resolve,
	}
}

// pluginCommand manages installed source plugins
func pluginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plugin",
		Usage: "Manage source plugins",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Install a plugin from a manifest file or URL",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "location",
					},
				},
				Action: r.PluginInstall,
			},
			{
				Name:  "list",
				Usage: "List installed plugins",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PluginList,
			},
		},
	}
}

// diagCommand probes upstream reachability
func diagCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diag",
		Usage: "Probe upstream sources and report reachability",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Diag,
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Action: r.TUI,
	}
}
