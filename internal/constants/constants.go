package constants

import "time"

// Matchmaking.
const (
	MaxRatingDifference   = 300
	MaxExpandedDifference = 500
	ExpandInterval        = 10 * time.Second
	ExpandAmount          = 50
	QueueTimeout          = 120 * time.Second
	MatchCooldown         = 30 * time.Second
	JanitorInterval       = 1 * time.Second
	OutcomeRetention      = 60 * time.Second
)

// Rating.
const (
	InitialRating       = 1000
	MinRating           = 100
	PlacementMatches    = 10
	PlacementK          = 64
	BaseK               = 32
	MaxK                = 48
	MinK                = 16
	LowRatingThreshold  = 800
	HighRatingThreshold = 2000
	WinStreakBonus      = 5
	MaxWinStreakBonus   = 25
)

// Combat.
const (
	MaxRounds           = 50
	EvasionCap          = 50
	LifestealCap        = 30
	BaseDamageReduction = 0.15
	DefenseScaling      = 0.003
	ReductionCap        = 0.75
	CritMultiplierBase  = 1.5
)

const (
	SeasonDuration = 30 * 24 * time.Hour
)

const (
	StatsAPITimeout = 10 * time.Second
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	DefaultHistoryLimit     = 10
	MaxHistoryLimit         = 50
)
