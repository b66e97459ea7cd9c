package main

import (
	"errors"
	"flag"
	"os"

	"memebattle/internal/config"
	"memebattle/internal/db"
	"memebattle/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)
	lg := logger.Component("migrate")

	steps := flag.Int("steps", 0, "apply only this many migrations (negative rolls back)")
	flag.Parse()
	direction := flag.Arg(0)
	if direction == "" {
		direction = "up"
	}

	if cfg.DatabaseURL == "" {
		lg.Fatal().Msg("DATABASE_URL is not set")
	}
	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("migration setup failed")
	}
	defer m.Close()

	switch {
	case *steps != 0:
		err = m.Steps(*steps)
	case direction == "up":
		err = m.Up()
	case direction == "down":
		err = m.Down()
	case direction == "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			lg.Fatal().Err(verr).Msg("reading version")
		}
		lg.Info().Uint("version", version).Bool("dirty", dirty).Msg("current schema version")
		return
	default:
		lg.Error().Str("command", direction).Msg("usage: migrate [-steps n] [up|down|version]")
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		lg.Fatal().Err(err).Msg("database migration failed")
	}
	lg.Info().Str("command", direction).Msg("database migrations applied")
}
