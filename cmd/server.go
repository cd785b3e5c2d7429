package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/takerupon/lp-generator/internal/config"
	"github.com/takerupon/lp-generator/internal/server"
	"github.com/urfave/cli/v3"
)

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run the generation job API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory for job working areas and archives",
				Sources: cli.EnvVars("LP_DATA_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// Best-effort .env for local development; real deployments set env vars.
			_ = godotenv.Load()

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if v := cmd.String("data-dir"); v != "" {
				cfg.Data.Dir = v
			}
			if v := cmd.String("log-level"); v != "" {
				cfg.Logging.Level = v
			}

			return server.Run(ctx, cfg)
		},
	}
}
