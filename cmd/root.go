package cmd

import (
	"github.com/urfave/cli/v3"
)

var version = "dev"

func App() *cli.Command {
	return &cli.Command{
		Name:    "lp-generator",
		Version: version,
		Usage:   "Landing-page generation service. Turns a short brief into HTML, CSS, JS and a hero image via a five-stage AI pipeline.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file",
				Sources: cli.EnvVars("LP_GENERATOR_CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LP_GENERATOR_LOGGING_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			serverCmd(),
		},
	}
}
