package db

import (
	"context"
	"time"
)

const insertMatch = `
INSERT INTO matches (
    match_id, season_id, winner_id, loser_id, winner_snapshot, loser_snapshot,
    rounds, total_rounds, rating_change, duration_ms, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertMatchParams struct {
	MatchID        string
	SeasonID       string
	WinnerID       string
	LoserID        string
	WinnerSnapshot string
	LoserSnapshot  string
	Rounds         string
	TotalRounds    int64
	RatingChange   int64
	DurationMs     int64
	CreatedAt      time.Time
}

func (q *Queries) InsertMatch(ctx context.Context, arg InsertMatchParams) error {
	_, err := q.db.ExecContext(ctx, insertMatch,
		arg.MatchID,
		arg.SeasonID,
		arg.WinnerID,
		arg.LoserID,
		arg.WinnerSnapshot,
		arg.LoserSnapshot,
		arg.Rounds,
		arg.TotalRounds,
		arg.RatingChange,
		arg.DurationMs,
		arg.CreatedAt,
	)
	return err
}

const listPlayerMatches = `
SELECT match_id, season_id, winner_id, loser_id, winner_snapshot, loser_snapshot,
       rounds, total_rounds, rating_change, duration_ms, created_at
FROM matches
WHERE season_id = ? AND (winner_id = ? OR loser_id = ?)
ORDER BY created_at DESC
LIMIT ?
`

type ListPlayerMatchesParams struct {
	SeasonID  string
	DiscordID string
	Limit     int64
}

func (q *Queries) ListPlayerMatches(ctx context.Context, arg ListPlayerMatchesParams) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listPlayerMatches, arg.SeasonID, arg.DiscordID, arg.DiscordID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(
			&m.MatchID,
			&m.SeasonID,
			&m.WinnerID,
			&m.LoserID,
			&m.WinnerSnapshot,
			&m.LoserSnapshot,
			&m.Rounds,
			&m.TotalRounds,
			&m.RatingChange,
			&m.DurationMs,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const countMatches = `
SELECT COUNT(*) FROM matches WHERE season_id = ?
`

func (q *Queries) CountMatches(ctx context.Context, seasonID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMatches, seasonID)
	var n int64
	err := row.Scan(&n)
	return n, err
}
