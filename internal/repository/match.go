package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"pvp-arena/internal/db"
	"pvp-arena/internal/domain"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// CommitResolved applies one resolved match as a unit: both updated rating
// records plus the immutable match record. If any statement fails, nothing
// is committed and the match counts as unresolved.
func (r *MatchRepository) CommitResolved(ctx context.Context, winner, loser *domain.PlayerRating, match *domain.MatchRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	if err := qtx.UpdatePlayerRating(ctx, updateParams(winner)); err != nil {
		return fmt.Errorf("failed to update winner rating: %w", err)
	}
	if err := qtx.UpdatePlayerRating(ctx, updateParams(loser)); err != nil {
		return fmt.Errorf("failed to update loser rating: %w", err)
	}

	params, err := insertMatchParams(match)
	if err != nil {
		return err
	}
	if err := qtx.InsertMatch(ctx, params); err != nil {
		return fmt.Errorf("failed to insert match record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match: %w", err)
	}

	r.logger.Info().
		Str("match_id", match.MatchID).
		Str("winner_id", match.Winner.DiscordID).
		Str("loser_id", match.Loser.DiscordID).
		Int("rating_change", match.RatingChange).
		Msg("match committed")
	return nil
}

// CountForSeason reports how many matches the season has recorded.
func (r *MatchRepository) CountForSeason(ctx context.Context, seasonID string) (int64, error) {
	return r.queries.CountMatches(ctx, seasonID)
}

func (r *MatchRepository) HistoryFor(ctx context.Context, seasonID, discordID string, limit int) ([]domain.MatchRecord, error) {
	rows, err := r.queries.ListPlayerMatches(ctx, db.ListPlayerMatchesParams{
		SeasonID:  seasonID,
		DiscordID: discordID,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.MatchRecord, 0, len(rows))
	for _, row := range rows {
		m, err := toDomainMatch(row)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

func insertMatchParams(match *domain.MatchRecord) (db.InsertMatchParams, error) {
	winner, err := json.Marshal(match.Winner)
	if err != nil {
		return db.InsertMatchParams{}, fmt.Errorf("failed to marshal winner snapshot: %w", err)
	}
	loser, err := json.Marshal(match.Loser)
	if err != nil {
		return db.InsertMatchParams{}, fmt.Errorf("failed to marshal loser snapshot: %w", err)
	}
	rounds, err := json.Marshal(match.Rounds)
	if err != nil {
		return db.InsertMatchParams{}, fmt.Errorf("failed to marshal round log: %w", err)
	}

	return db.InsertMatchParams{
		MatchID:        match.MatchID,
		SeasonID:       match.SeasonID,
		WinnerID:       match.Winner.DiscordID,
		LoserID:        match.Loser.DiscordID,
		WinnerSnapshot: string(winner),
		LoserSnapshot:  string(loser),
		Rounds:         string(rounds),
		TotalRounds:    int64(match.TotalRounds),
		RatingChange:   int64(match.RatingChange),
		DurationMs:     match.DurationMs,
		CreatedAt:      match.CreatedAt,
	}, nil
}

func toDomainMatch(row db.Match) (domain.MatchRecord, error) {
	var m domain.MatchRecord
	if err := json.Unmarshal([]byte(row.WinnerSnapshot), &m.Winner); err != nil {
		return m, fmt.Errorf("failed to unmarshal winner snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(row.LoserSnapshot), &m.Loser); err != nil {
		return m, fmt.Errorf("failed to unmarshal loser snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Rounds), &m.Rounds); err != nil {
		return m, fmt.Errorf("failed to unmarshal round log: %w", err)
	}

	m.MatchID = row.MatchID
	m.SeasonID = row.SeasonID
	m.TotalRounds = int(row.TotalRounds)
	m.RatingChange = int(row.RatingChange)
	m.DurationMs = row.DurationMs
	m.CreatedAt = row.CreatedAt
	return m, nil
}
