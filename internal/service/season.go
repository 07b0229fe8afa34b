package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pvp-arena/internal/constants"
	"pvp-arena/internal/domain"
	"pvp-arena/internal/rank"
	"pvp-arena/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// SeasonService owns the single active season record. Callers always get
// a season back unless persistence itself is down: if none is active, one
// is created on first access with a sequential number, a 30-day window,
// and the reward table copied from the rank tiers.
type SeasonService struct {
	repo   *repository.SeasonRepository
	logger zerolog.Logger

	mu sync.Mutex
}

func NewSeasonService(repo *repository.SeasonRepository, logger zerolog.Logger) *SeasonService {
	return &SeasonService{repo: repo, logger: logger}
}

func (s *SeasonService) GetOrCreateActive(ctx context.Context) (*domain.Season, error) {
	// Serialized so two first-access callers cannot both create a season;
	// the partial unique index on is_active backs this up in storage.
	s.mu.Lock()
	defer s.mu.Unlock()

	season, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active season: %w", err)
	}
	if season != nil {
		return season, nil
	}

	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to determine season number: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate season id: %w", err)
	}

	now := time.Now()
	season = &domain.Season{
		ID:          id,
		Number:      number,
		Name:        fmt.Sprintf("Season %d", number),
		StartDate:   now,
		EndDate:     now.Add(constants.SeasonDuration),
		IsActive:    true,
		RewardTiers: rank.RewardTiers(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, season); err != nil {
		return nil, fmt.Errorf("failed to create season: %w", err)
	}

	s.logger.Info().
		Str("season_id", season.ID).
		Int("number", season.Number).
		Time("end_date", season.EndDate).
		Msg("created new active season")
	return season, nil
}
