package main

import (
	"os"

	"github.com/andresuchdata/decision-intel/backend-go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load(".env")

	// Keep stdout for command output
	logger.Use(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("decide failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "decide",
		Usage: "Turn sales transaction files into inventory decisions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			fetchCommand(),
			driveCommand(),
			migrateCommand(),
		},
	}
}
