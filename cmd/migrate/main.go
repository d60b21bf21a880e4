// Command migrate applies or rolls back the database schema.
//
// Usage:
//
//	migrate up       apply all pending migrations
//	migrate down     roll back the last migration
//	migrate version  print the current version
package main

import (
	"fmt"
	"os"

	"github.com/unnme/school-schedule/internal/config"
	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/logging"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down|version")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logging.Component(logging.New(cfg.LogLevel), "migrate")
	m := database.NewMigrator(cfg.MigrationsPath, cfg.DatabaseURL, log)

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration version")
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Migration failed")
	}
}
