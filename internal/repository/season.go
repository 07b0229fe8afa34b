package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pvp-arena/internal/db"
	"pvp-arena/internal/domain"

	"github.com/rs/zerolog"
)

type SeasonRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewSeasonRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SeasonRepository {
	return &SeasonRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// GetActive returns the active season, or (nil, nil) when none exists.
func (r *SeasonRepository) GetActive(ctx context.Context) (*domain.Season, error) {
	row, err := r.queries.GetActiveSeason(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainSeason(row)
}

func (r *SeasonRepository) NextNumber(ctx context.Context) (int, error) {
	n, err := r.queries.GetMaxSeasonNumber(ctx)
	if err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}

func (r *SeasonRepository) Create(ctx context.Context, season *domain.Season) error {
	tiers, err := json.Marshal(season.RewardTiers)
	if err != nil {
		return fmt.Errorf("failed to marshal reward tiers: %w", err)
	}

	return r.queries.InsertSeason(ctx, db.InsertSeasonParams{
		ID:          season.ID,
		Number:      int64(season.Number),
		Name:        season.Name,
		StartDate:   season.StartDate,
		EndDate:     season.EndDate,
		IsActive:    season.IsActive,
		RewardTiers: string(tiers),
		CreatedAt:   season.CreatedAt,
		UpdatedAt:   season.UpdatedAt,
	})
}

func toDomainSeason(row db.Season) (*domain.Season, error) {
	var tiers []domain.RewardTier
	if err := json.Unmarshal([]byte(row.RewardTiers), &tiers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reward tiers: %w", err)
	}

	return &domain.Season{
		ID:          row.ID,
		Number:      int(row.Number),
		Name:        row.Name,
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		IsActive:    row.IsActive,
		RewardTiers: tiers,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
