// Package rank maps rating values to named tiers. The table is an ordered,
// immutable list loaded once; tiers carry no state of their own.
package rank

import "pvp-arena/internal/domain"

type Tier struct {
	ID        string
	Name      string
	MinRating int
	// MaxRating is inclusive. The top tier is unbounded above.
	MaxRating int
}

// Unbounded marks the top tier's upper band.
const Unbounded = 1<<31 - 1

var tiers = []Tier{
	{ID: "bronze", Name: "Bronze", MinRating: 0, MaxRating: 999},
	{ID: "silver", Name: "Silver", MinRating: 1000, MaxRating: 1199},
	{ID: "gold", Name: "Gold", MinRating: 1200, MaxRating: 1399},
	{ID: "platinum", Name: "Platinum", MinRating: 1400, MaxRating: 1599},
	{ID: "diamond", Name: "Diamond", MinRating: 1600, MaxRating: 1899},
	{ID: "master", Name: "Master", MinRating: 1900, MaxRating: 2199},
	{ID: "legend", Name: "Legend", MinRating: 2200, MaxRating: Unbounded},
}

// For returns the tier whose band contains rating. Ratings below the
// bottom band collapse into the bottom tier.
func For(rating int) Tier {
	for i := len(tiers) - 1; i >= 0; i-- {
		if rating >= tiers[i].MinRating {
			return tiers[i]
		}
	}
	return tiers[0]
}

// Index returns the ordinal of a tier id, lowest first. Unknown ids map
// to -1 so comparisons treat them as below every real tier.
func Index(tierID string) int {
	for i, t := range tiers {
		if t.ID == tierID {
			return i
		}
	}
	return -1
}

// Tiers returns a copy of the full table, lowest band first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// RewardTiers builds the season reward table from the rank table.
func RewardTiers() []domain.RewardTier {
	out := make([]domain.RewardTier, len(tiers))
	for i, t := range tiers {
		out[i] = domain.RewardTier{
			TierID:    t.ID,
			TierName:  t.Name,
			MinRating: t.MinRating,
		}
	}
	return out
}
