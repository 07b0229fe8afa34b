package fx

import (
	"database/sql"

	"pvp-arena/internal/api"
	"pvp-arena/internal/config"
	"pvp-arena/internal/database"
	"pvp-arena/internal/db"
	"pvp-arena/internal/logger"
	"pvp-arena/internal/queue"
	"pvp-arena/internal/repository"
	"pvp-arena/internal/server"
	"pvp-arena/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideQueue(logger zerolog.Logger) *queue.Queue {
	return queue.New(queue.DefaultConfig(), logger)
}

func ProvideStatsProvider(client *api.CharacterClient) service.StatsProvider {
	return client
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewSeasonRepository),
	fx.Provide(repository.NewPlayerRatingRepository),
	fx.Provide(repository.NewMatchRepository),
	// collaborator clients
	fx.Provide(api.NewCharacterClient),
	fx.Provide(ProvideStatsProvider),
	// queue + svc
	fx.Provide(ProvideQueue),
	fx.Provide(service.NewSeasonService),
	fx.Provide(service.NewArenaService),
	// server
	fx.Provide(server.NewArenaServer),
)
