package db

import (
	"database/sql"
	"time"
)

type Season struct {
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

type PlayerRating struct {
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

type Match struct {
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
