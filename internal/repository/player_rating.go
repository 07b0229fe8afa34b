package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pvp-arena/internal/constants"
	"pvp-arena/internal/db"
	"pvp-arena/internal/domain"
	"pvp-arena/internal/rank"

	"github.com/rs/zerolog"
)

type PlayerRatingRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRatingRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRatingRepository {
	return &PlayerRatingRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *PlayerRatingRepository) Get(ctx context.Context, discordID, seasonID string) (*domain.PlayerRating, error) {
	row, err := r.queries.GetPlayerRating(ctx, db.GetPlayerRatingParams{
		DiscordID: discordID,
		SeasonID:  seasonID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	rec := toDomainPlayerRating(row)
	return &rec, nil
}

// GetOrCreate returns the player's record for the season, initializing a
// fresh one at the starting rating if absent.
func (r *PlayerRatingRepository) GetOrCreate(ctx context.Context, discordID, seasonID, displayName string) (*domain.PlayerRating, error) {
	rec, err := r.Get(ctx, discordID, seasonID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		return nil, err
	}

	now := time.Now()
	fresh := &domain.PlayerRating{
		DiscordID:   discordID,
		SeasonID:    seasonID,
		DisplayName: displayName,
		Rating:      constants.InitialRating,
		RankTier:    rank.For(constants.InitialRating).ID,
		PeakRating:  constants.InitialRating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.logger.Info().
		Str("discord_id", discordID).
		Str("season_id", seasonID).
		Int("rating", fresh.Rating).
		Msg("creating player rating record")

	if err := r.queries.InsertPlayerRating(ctx, insertParams(fresh)); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (r *PlayerRatingRepository) Leaderboard(ctx context.Context, seasonID string, limit int) ([]domain.PlayerRating, error) {
	rows, err := r.queries.ListLeaderboard(ctx, db.ListLeaderboardParams{
		SeasonID: seasonID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.PlayerRating, len(rows))
	for i, row := range rows {
		items[i] = toDomainPlayerRating(row)
	}
	return items, nil
}

// Position is 1 plus the count of strictly higher-rated players, so equal
// ratings share a position.
func (r *PlayerRatingRepository) Position(ctx context.Context, seasonID string, ratingValue int) (int, error) {
	n, err := r.queries.CountHigherRated(ctx, db.CountHigherRatedParams{
		SeasonID: seasonID,
		Rating:   int64(ratingValue),
	})
	if err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}

func insertParams(rec *domain.PlayerRating) db.InsertPlayerRatingParams {
	return db.InsertPlayerRatingParams{
		DiscordID:        rec.DiscordID,
		SeasonID:         rec.SeasonID,
		DisplayName:      rec.DisplayName,
		Rating:           int64(rec.Rating),
		RankTier:         rec.RankTier,
		Wins:             int64(rec.Wins),
		Losses:           int64(rec.Losses),
		WinStreak:        int64(rec.WinStreak),
		BestWinStreak:    int64(rec.BestWinStreak),
		MatchesPlayed:    int64(rec.MatchesPlayed),
		PeakRating:       int64(rec.PeakRating),
		LastMatchAt:      toNullTime(rec.LastMatchAt),
		RewardsClaimable: rec.RewardsClaimable,
		RewardsClaimed:   rec.RewardsClaimed,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

func updateParams(rec *domain.PlayerRating) db.UpdatePlayerRatingParams {
	return db.UpdatePlayerRatingParams{
		DisplayName:      rec.DisplayName,
		Rating:           int64(rec.Rating),
		RankTier:         rec.RankTier,
		Wins:             int64(rec.Wins),
		Losses:           int64(rec.Losses),
		WinStreak:        int64(rec.WinStreak),
		BestWinStreak:    int64(rec.BestWinStreak),
		MatchesPlayed:    int64(rec.MatchesPlayed),
		PeakRating:       int64(rec.PeakRating),
		LastMatchAt:      toNullTime(rec.LastMatchAt),
		RewardsClaimable: rec.RewardsClaimable,
		RewardsClaimed:   rec.RewardsClaimed,
		UpdatedAt:        rec.UpdatedAt,
		DiscordID:        rec.DiscordID,
		SeasonID:         rec.SeasonID,
	}
}

func toDomainPlayerRating(row db.PlayerRating) domain.PlayerRating {
	rec := domain.PlayerRating{
		DiscordID:        row.DiscordID,
		SeasonID:         row.SeasonID,
		DisplayName:      row.DisplayName,
		Rating:           int(row.Rating),
		RankTier:         row.RankTier,
		Wins:             int(row.Wins),
		Losses:           int(row.Losses),
		WinStreak:        int(row.WinStreak),
		BestWinStreak:    int(row.BestWinStreak),
		MatchesPlayed:    int(row.MatchesPlayed),
		PeakRating:       int(row.PeakRating),
		RewardsClaimable: row.RewardsClaimable,
		RewardsClaimed:   row.RewardsClaimed,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.LastMatchAt.Valid {
		rec.LastMatchAt = row.LastMatchAt.Time
	}
	return rec
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
