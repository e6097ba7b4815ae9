package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dmehra2102/streetfood-connect/migrations"
	"github.com/dmehra2102/streetfood-connect/pkg/logging"
	"github.com/dmehra2102/streetfood-connect/pkg/migrate"
	"github.com/dmehra2102/streetfood-connect/pkg/shutdown"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	app := &cli.App{
		Name:           "grouporder-service",
		Usage:          "pool vendor demand into supplier group orders",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the outbox relay",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply pending migrations", Action: migrateAction(migrate.Up)},
					{Name: "down", Usage: "revert all migrations", Action: migrateAction(migrate.Down)},
				},
			},
		},
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateAction(run func(log *slog.Logger, fsys fs.FS, pgURL string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		return run(logging.New(cfg.LogLevel), migrations.FS, cfg.PGURL)
	}
}
