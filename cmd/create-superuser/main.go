// Command create-superuser creates the first administrator account from
// FIRST_SUPERUSER_EMAIL and FIRST_SUPERUSER_PASSWORD. Running it again is a no-op.
package main

import (
	"context"
	"time"

	"github.com/unnme/school-schedule/internal/config"
	"github.com/unnme/school-schedule/internal/database"
	"github.com/unnme/school-schedule/internal/logging"
	"github.com/unnme/school-schedule/internal/repository"
	"github.com/unnme/school-schedule/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logging.Component(logging.New(cfg.LogLevel), "create-superuser")

	if cfg.FirstSuperuserEmail == "" || cfg.FirstSuperuserPassword == "" {
		log.Fatal().Msg("FIRST_SUPERUSER_EMAIL and FIRST_SUPERUSER_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbCfg := database.DefaultConfig(cfg.DatabaseURL)
	dbCfg.MaxConns, dbCfg.MinConns = 2, 0
	dbCfg.ConnectAttempts = cfg.DBConnectAttempts
	dbCfg.ConnectWait = cfg.DBConnectWait

	pool, err := database.Connect(ctx, dbCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer pool.Close()

	auth := services.NewAuthService(pool, repository.NewUserRepository(), log)

	created, err := auth.EnsureSuperuser(ctx, cfg.FirstSuperuserEmail, cfg.FirstSuperuserPassword)
	if err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("Failed to create superuser")
	}
	if !created {
		log.Info().Str("email", cfg.FirstSuperuserEmail).Msg("Superuser already exists")
	}
}
