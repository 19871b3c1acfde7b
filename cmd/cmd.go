// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// syncCommand runs the polling loop until interrupted.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run the sync loop until interrupted",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Seconds between cycles (overrides config)",
			},
		},
		Action: r.Sync,
	}
}

// onceCommand runs a single cycle, useful under cron or for smoke checks.
func onceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "once",
		Usage: "Run a single sync cycle and exit",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the cycle result as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Once,
	}
}

// usersCommand lists enabled users from the store.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "List users with Spotify connected",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Users,
	}
}

// watchCommand runs the sync loop with a live terminal view.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the sync loop with a live status view",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Seconds between cycles (overrides config)",
			},
		},
		Action: r.Watch,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the local database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}
