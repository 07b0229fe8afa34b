package db

import (
	"context"
	"database/sql"
	"time"
)

const getPlayerRating = `
SELECT discord_id, season_id, display_name, rating, rank_tier, wins, losses,
       win_streak, best_win_streak, matches_played, peak_rating, last_match_at,
       rewards_claimable, rewards_claimed, created_at, updated_at
FROM player_ratings
WHERE discord_id = ? AND season_id = ?
`

type GetPlayerRatingParams struct {
	DiscordID string
	SeasonID  string
}

func (q *Queries) GetPlayerRating(ctx context.Context, arg GetPlayerRatingParams) (PlayerRating, error) {
	row := q.db.QueryRowContext(ctx, getPlayerRating, arg.DiscordID, arg.SeasonID)
	var p PlayerRating
	err := scanPlayerRating(row, &p)
	return p, err
}

const insertPlayerRating = `
INSERT INTO player_ratings (
    discord_id, season_id, display_name, rating, rank_tier, wins, losses,
    win_streak, best_win_streak, matches_played, peak_rating, last_match_at,
    rewards_claimable, rewards_claimed, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertPlayerRatingParams struct {
	DiscordID        string
	SeasonID         string
	DisplayName      string
	Rating           int64
	RankTier         string
	Wins             int64
	Losses           int64
	WinStreak        int64
	BestWinStreak    int64
	MatchesPlayed    int64
	PeakRating       int64
	LastMatchAt      sql.NullTime
	RewardsClaimable bool
	RewardsClaimed   bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (q *Queries) InsertPlayerRating(ctx context.Context, arg InsertPlayerRatingParams) error {
	_, err := q.db.ExecContext(ctx, insertPlayerRating,
		arg.DiscordID,
		arg.SeasonID,
		arg.DisplayName,
		arg.Rating,
		arg.RankTier,
		arg.Wins,
		arg.Losses,
		arg.WinStreak,
		arg.BestWinStreak,
		arg.MatchesPlayed,
		arg.PeakRating,
		arg.LastMatchAt,
		arg.RewardsClaimable,
		arg.RewardsClaimed,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const updatePlayerRating = `
UPDATE player_ratings
SET display_name = ?, rating = ?, rank_tier = ?, wins = ?, losses = ?,
    win_streak = ?, best_win_streak = ?, matches_played = ?, peak_rating = ?,
    last_match_at = ?, rewards_claimable = ?, rewards_claimed = ?, updated_at = ?
WHERE discord_id = ? AND season_id = ?
`

type UpdatePlayerRatingParams struct {
	DisplayName      string
	Rating           int64
	RankTier         string
	Wins             int64
	Losses           int64
	WinStreak        int64
	BestWinStreak    int64
	MatchesPlayed    int64
	PeakRating       int64
	LastMatchAt      sql.NullTime
	RewardsClaimable bool
	RewardsClaimed   bool
	UpdatedAt        time.Time
	DiscordID        string
	SeasonID         string
}

func (q *Queries) UpdatePlayerRating(ctx context.Context, arg UpdatePlayerRatingParams) error {
	_, err := q.db.ExecContext(ctx, updatePlayerRating,
		arg.DisplayName,
		arg.Rating,
		arg.RankTier,
		arg.Wins,
		arg.Losses,
		arg.WinStreak,
		arg.BestWinStreak,
		arg.MatchesPlayed,
		arg.PeakRating,
		arg.LastMatchAt,
		arg.RewardsClaimable,
		arg.RewardsClaimed,
		arg.UpdatedAt,
		arg.DiscordID,
		arg.SeasonID,
	)
	return err
}

const listLeaderboard = `
SELECT discord_id, season_id, display_name, rating, rank_tier, wins, losses,
       win_streak, best_win_streak, matches_played, peak_rating, last_match_at,
       rewards_claimable, rewards_claimed, created_at, updated_at
FROM player_ratings
WHERE season_id = ?
ORDER BY rating DESC, matches_played DESC, discord_id ASC
LIMIT ?
`

type ListLeaderboardParams struct {
	SeasonID string
	Limit    int64
}

func (q *Queries) ListLeaderboard(ctx context.Context, arg ListLeaderboardParams) ([]PlayerRating, error) {
	rows, err := q.db.QueryContext(ctx, listLeaderboard, arg.SeasonID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PlayerRating
	for rows.Next() {
		var p PlayerRating
		if err := scanPlayerRating(rows, &p); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countHigherRated = `
SELECT COUNT(*) FROM player_ratings
WHERE season_id = ? AND rating > ?
`

type CountHigherRatedParams struct {
	SeasonID string
	Rating   int64
}

func (q *Queries) CountHigherRated(ctx context.Context, arg CountHigherRatedParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countHigherRated, arg.SeasonID, arg.Rating)
	var n int64
	err := row.Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayerRating(s scanner, p *PlayerRating) error {
	return s.Scan(
		&p.DiscordID,
		&p.SeasonID,
		&p.DisplayName,
		&p.Rating,
		&p.RankTier,
		&p.Wins,
		&p.Losses,
		&p.WinStreak,
		&p.BestWinStreak,
		&p.MatchesPlayed,
		&p.PeakRating,
		&p.LastMatchAt,
		&p.RewardsClaimable,
		&p.RewardsClaimed,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
