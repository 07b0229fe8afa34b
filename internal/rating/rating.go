// Package rating implements the Elo-style rating engine: K-factor
// selection, expected score, and per-match rating deltas.
package rating

import (
	"math"

	"pvp-arena/internal/constants"
)

// Change holds the rating movement for one resolved match. The loser is
// not penalized by the winner's streak bonus, so WinnerGain can exceed
// LoserLoss.
type Change struct {
	Base        int
	StreakBonus int
	WinnerGain  int
	LoserLoss   int
}

// KFactor returns the multiplier controlling how far one match moves a
// player's rating. Placement players converge fast on an inflated K;
// afterwards K steps down monotonically with rating.
func KFactor(matchesPlayed, rating int) int {
	if matchesPlayed < constants.PlacementMatches {
		return constants.PlacementK
	}
	switch {
	case rating < constants.LowRatingThreshold:
		return constants.MaxK
	case rating >= constants.HighRatingThreshold:
		return constants.MinK
	default:
		return constants.BaseK
	}
}

// ExpectedScore is the standard logistic Elo win probability for the
// player rated ratingA against ratingB.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

// ComputeChange derives the deltas for a finished match. winnerStreak is
// the winner's streak before this win; the bonus starts on the third
// consecutive win and is capped.
func ComputeChange(winnerRating, loserRating, winnerK, winnerStreak int) Change {
	base := int(math.Round(float64(winnerK) * (1 - ExpectedScore(winnerRating, loserRating))))

	bonus := (winnerStreak - 2) * constants.WinStreakBonus
	if bonus < 0 {
		bonus = 0
	}
	if bonus > constants.MaxWinStreakBonus {
		bonus = constants.MaxWinStreakBonus
	}

	return Change{
		Base:        base,
		StreakBonus: bonus,
		WinnerGain:  base + bonus,
		LoserLoss:   base,
	}
}

// ApplyFloor clamps a post-loss rating at the global floor.
func ApplyFloor(rating int) int {
	if rating < constants.MinRating {
		return constants.MinRating
	}
	return rating
}
