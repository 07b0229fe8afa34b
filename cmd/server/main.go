package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"pvp-arena/internal/config"
	"pvp-arena/internal/constants"
	fxmodules "pvp-arena/internal/fx"
	"pvp-arena/internal/middleware"
	"pvp-arena/internal/queue"
	"pvp-arena/internal/server"
	"pvp-arena/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	arenaServer *server.ArenaServer,
	arena *service.ArenaService,
	matchQueue *queue.Queue,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)
	arenaServer.Routes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: r,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go matchQueue.Run(workerCtx)
			go arena.Run(workerCtx)
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			cancelWorkers()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
