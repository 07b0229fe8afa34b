package db

import (
	"context"
	"time"
)

const getActiveSeason = `
SELECT id, number, name, start_date, end_date, is_active, reward_tiers, created_at, updated_at
FROM seasons
WHERE is_active
LIMIT 1
`

func (q *Queries) GetActiveSeason(ctx context.Context) (Season, error) {
	row := q.db.QueryRowContext(ctx, getActiveSeason)
	var s Season
	err := row.Scan(
		&s.ID,
		&s.Number,
		&s.Name,
		&s.StartDate,
		&s.EndDate,
		&s.IsActive,
		&s.RewardTiers,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

const getMaxSeasonNumber = `
SELECT COALESCE(MAX(number), 0) FROM seasons
`

func (q *Queries) GetMaxSeasonNumber(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, getMaxSeasonNumber)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const insertSeason = `
INSERT INTO seasons (id, number, name, start_date, end_date, is_active, reward_tiers, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertSeasonParams struct {
	ID          string
	Number      int64
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	RewardTiers string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) InsertSeason(ctx context.Context, arg InsertSeasonParams) error {
	_, err := q.db.ExecContext(ctx, insertSeason,
		arg.ID,
		arg.Number,
		arg.Name,
		arg.StartDate,
		arg.EndDate,
		arg.IsActive,
		arg.RewardTiers,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
