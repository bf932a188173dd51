package main

import (
	"os"

	"github.com/crewcal/crewcal/internal/app"
	"github.com/crewcal/crewcal/internal/config"
	"github.com/crewcal/crewcal/internal/database"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func init() {
	// .env is optional, mostly for local development
	_ = godotenv.Load()

	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	cliApp := &cli.App{
		Name:  "crewcal",
		Usage: "synchronizes Google Calendar events for a team into a shared store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "./config/application.yaml",
				Usage: "path to the application configuration file",
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run database migrations and start the HTTP server",
				Action: func(c *cli.Context) error {
					application, err := app.NewApplication(c.String("config"))
					if err != nil {
						log.Fatalf("failed to initialize application: %v", err)
					}
					return application.Run()
				},
			},
			{
				Name:  "migrate",
				Usage: "run database migrations and exit",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}
					return database.Migrate(cfg.Database)
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
