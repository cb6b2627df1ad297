// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/rsx/internal/tasks"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func addrFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "addr",
		Aliases: []string{"a"},
		Usage:   "Lookup server address (default: server.host:server.port from config)",
	}
}

func timeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Deadline for each lookup",
		Value: 0,
	}
}

// serveCommand runs the lookup server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Accept lookup requests until interrupted",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (overrides server.port)",
			},
			&cli.IntFlag{
				Name:  "max-conns",
				Usage: "Maximum connections handled at once (overrides server.max_conns)",
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Run database migrations before serving",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config if missing and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "seed",
				Usage: "Load artists, shops, records and copies from a TOML fixture",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the TOML fixture",
						Required: true,
					},
				},
				Action: r.SetupSeed,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
		},
	}
}

// lookupCommand sends one request to a running server
func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Find records by an artist available in a city",
		ArgsUsage: "<artist-last-name> <city>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "artist"},
			&cli.StringArg{Name: "city"},
		},
		Flags: []cli.Flag{
			configFlag(),
			addrFlag(),
			timeoutFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the response as JSON",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output rows as CSV",
			},
			&cli.BoolFlag{
				Name:  "text",
				Usage: "Output a plain text summary",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to a file instead of stdout",
			},
		},
		Action: r.Lookup,
	}
}

// batchCommand runs many lookups from a CSV file
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Run lookups for every artist,city line of a CSV file",
		Flags: []cli.Flag{
			configFlag(),
			addrFlag(),
			timeoutFlag(),
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "CSV file of artist,city lines",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent lookups (max 32)",
				Value:   tasks.DefaultWorkers,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Lookups per second across all workers (0 for unlimited)",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output every result as JSON",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output every result row as CSV",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to a file instead of stdout",
			},
		},
		Action: r.Batch,
	}
}
