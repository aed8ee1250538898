package main

import (
	"github.com/andresuchdata/decision-intel/backend-go/internal/repository/postgres"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the dataset tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db-url",
				Usage:    "Database connection string",
				Required: true,
				EnvVars:  []string{"DATABASE_URL"},
			},
		},
		Action: func(c *cli.Context) error {
			db, err := postgres.Connect("pgx", c.String("db-url"))
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.EnsureSchema(c.Context, db); err != nil {
				return err
			}
			log.Info().Msg("Dataset schema is up to date")
			return nil
		},
	}
}
