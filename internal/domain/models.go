package domain

import (
	"time"
)

type Season struct {
	ID          string
	Number      int
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	RewardTiers []RewardTier
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RewardTier records which rank tier is eligible for which season reward.
// Fulfillment (titles, items) happens outside this service.
type RewardTier struct {
	TierID    string `json:"tier_id"`
	TierName  string `json:"tier_name"`
	MinRating int    `json:"min_rating"`
}

type PlayerRating struct {
	DiscordID        string
	SeasonID         string
	DisplayName      string
	Rating           int
	RankTier         string
	Wins             int
	Losses           int
	WinStreak        int
	BestWinStreak    int
	MatchesPlayed    int
	PeakRating       int
	LastMatchAt      time.Time
	RewardsClaimable bool
	RewardsClaimed   bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CombatantStats is the opaque stat block aggregated by the character
// service from base stats plus equipped gear. Trusted as-is.
type CombatantStats struct {
	MaxHP      int     `json:"max_hp"`
	Attack     int     `json:"attack"`
	Defense    int     `json:"defense"`
	CritChance float64 `json:"crit_chance"`
	CritDamage float64 `json:"crit_damage"`
	Evasion    float64 `json:"evasion"`
	Lifesteal  float64 `json:"lifesteal"`
}

// CombatRound is one entry of the ordered round log.
type CombatRound struct {
	Round           int     `json:"round"`
	AttackerID      string  `json:"attacker_id"`
	DefenderID      string  `json:"defender_id"`
	Damage          int     `json:"damage"`
	IsCrit          bool    `json:"is_crit"`
	WasEvaded       bool    `json:"was_evaded"`
	LifestealHealed int     `json:"lifesteal_healed"`
	AttackerHP      int     `json:"attacker_hp"`
	DefenderHP      int     `json:"defender_hp"`
}

type CombatResult struct {
	WinnerID    string
	LoserID     string
	Rounds      []CombatRound
	TotalRounds int
}

// Combatant is the immutable snapshot of one side of a match as persisted
// on the match record.
type Combatant struct {
	DiscordID    string         `json:"discord_id"`
	DisplayName  string         `json:"display_name"`
	RatingBefore int            `json:"rating_before"`
	RatingAfter  int            `json:"rating_after"`
	TierBefore   string         `json:"tier_before"`
	TierAfter    string         `json:"tier_after"`
	Stats        CombatantStats `json:"stats"`
}

type MatchRecord struct {
	MatchID      string        `json:"match_id"`
	SeasonID     string        `json:"season_id"`
	Winner       Combatant     `json:"winner"`
	Loser        Combatant     `json:"loser"`
	Rounds       []CombatRound `json:"rounds"`
	TotalRounds  int           `json:"total_rounds"`
	RatingChange int           `json:"rating_change"`
	DurationMs   int64         `json:"duration_ms"`
	CreatedAt    time.Time     `json:"created_at"`
}

type LeaderboardEntry struct {
	Position    int     `json:"position"`
	DiscordID   string  `json:"discord_id"`
	DisplayName string  `json:"display_name"`
	Rating      int     `json:"rating"`
	RankTier    string  `json:"rank_tier"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
}

type Profile struct {
	DiscordID            string  `json:"discord_id"`
	DisplayName          string  `json:"display_name"`
	Rating               int     `json:"rating"`
	RankTier             string  `json:"rank_tier"`
	Position             int     `json:"position"`
	Wins                 int     `json:"wins"`
	Losses               int     `json:"losses"`
	WinStreak            int     `json:"win_streak"`
	BestWinStreak        int     `json:"best_win_streak"`
	PeakRating           int     `json:"peak_rating"`
	WinRate              float64 `json:"win_rate"`
	IsInPlacement        bool    `json:"is_in_placement"`
	PlacementMatchesLeft int     `json:"placement_matches_left"`
	RewardsClaimable     bool    `json:"rewards_claimable"`
	RewardsClaimed       bool    `json:"rewards_claimed"`
}
