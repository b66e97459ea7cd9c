package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memebattle/internal/analytics"
	"memebattle/internal/artifacts"
	"memebattle/internal/auth"
	"memebattle/internal/broadcast"
	"memebattle/internal/config"
	"memebattle/internal/db"
	"memebattle/internal/engine"
	"memebattle/internal/events"
	"memebattle/internal/logger"
	"memebattle/internal/memes"
	"memebattle/internal/rooms"
	"memebattle/internal/timers"
	"memebattle/internal/wshub"

	"github.com/rs/zerolog/log"
)

const sweepInterval = time.Minute

type Server struct {
	Engine  *engine.Engine
	Hub     *wshub.Hub
	Lobby   *broadcast.Broadcaster
	Catalog *memes.Catalog
	Auth    *auth.Verifier
	DB      *db.DB             // nil if no database configured
	Stats   *analytics.Queries // nil if no database configured
	Cfg     config.Config
}

func Run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("reading .env")
	}
	appCfg := config.Load()
	logger.Setup(appCfg.LogLevel, appCfg.LogPretty)

	srv := &Server{
		Hub:     wshub.NewHub(),
		Catalog: memes.NewCatalog(memes.Defaults),
		Auth:    auth.NewVerifier(appCfg.JWTSecret),
		Cfg:     appCfg,
	}
	if srv.Auth.DevMode() {
		log.Warn().Str("component", "auth").Msg("JWT_SECRET not set, trusting userId query parameters")
	}

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Error().Str("component", "db").Err(err).Msg("failed to connect, running without database")
		} else {
			if err := database.Migrate(); err != nil {
				log.Error().Str("component", "db").Err(err).Msg("migration failed")
			}
			srv.DB = database
			srv.Stats = analytics.NewQueries(database)
			log.Info().Str("component", "db").Msg("database connected and migrations applied")
		}
	} else {
		log.Info().Str("component", "db").Msg("DATABASE_URL not set, running without database")
	}

	scheduler := timers.NewScheduler()
	registry := rooms.NewRegistry(scheduler, srv.Hub, artifacts.NewPurger(appCfg.GeneratedDir))
	bus := events.NewBus()

	deps := engine.Deps{
		Rooms:     registry,
		Timers:    scheduler,
		Out:       srv.Hub,
		Generator: artifacts.NewRenderer(appCfg.PublicDir, appCfg.GeneratedDir),
		Catalog:   srv.Catalog,
		Bus:       bus,
	}
	if srv.DB != nil {
		deps.Stats = srv.DB
		deps.States = srv.DB
		deps.Stars = srv.DB
	}
	engCfg := engine.DefaultConfig()
	engCfg.DisconnectGrace = appCfg.DisconnectGrace
	engCfg.ResultsDisplay = appCfg.ResultsDisplay
	srv.Engine = engine.New(deps, engCfg)
	srv.Lobby = broadcast.NewBroadcaster(bus, srv.Engine, srv.Hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go registry.RunSweeper(ctx, sweepInterval, appCfg.RoomStaleTTL)

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + appCfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", appCfg.Port).Msgf("server listening on http://localhost:%s", appCfg.Port)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Let in-flight stats and state writes land before the pool goes away.
	srv.Engine.Wait()
	if srv.DB != nil {
		srv.DB.Close()
	}
	log.Info().Msg("server stopped")
	return nil
}
