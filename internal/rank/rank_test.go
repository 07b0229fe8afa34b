package rank_test

import (
	"testing"

	"pvp-arena/internal/rank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name   string
		rating int
		want   string
	}{
		{name: "floor of bottom band", rating: 0, want: "bronze"},
		{name: "top of bottom band", rating: 999, want: "bronze"},
		{name: "initial rating lands in silver", rating: 1000, want: "silver"},
		{name: "top of silver", rating: 1199, want: "silver"},
		{name: "gold", rating: 1200, want: "gold"},
		{name: "diamond", rating: 1700, want: "diamond"},
		{name: "bottom of legend", rating: 2200, want: "legend"},
		{name: "legend is unbounded above", rating: 99999, want: "legend"},
		{name: "below bottom band collapses into bronze", rating: -50, want: "bronze"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rank.For(tt.rating).ID)
		})
	}
}

func TestForIsMonotonic(t *testing.T) {
	prev := -1
	for r := 0; r <= 3000; r += 7 {
		idx := rank.Index(rank.For(r).ID)
		require.GreaterOrEqual(t, idx, prev, "tier went down at rating %d", r)
		prev = idx
	}
}

func TestForEqualRatingsEqualTiers(t *testing.T) {
	for _, r := range []int{100, 1000, 1350, 2199, 2200} {
		assert.Equal(t, rank.For(r), rank.For(r))
	}
}

func TestTiersCoverAllRatings(t *testing.T) {
	tiers := rank.Tiers()
	require.NotEmpty(t, tiers)
	assert.Equal(t, 0, tiers[0].MinRating)

	for i := 1; i < len(tiers); i++ {
		assert.Equal(t, tiers[i-1].MaxRating+1, tiers[i].MinRating,
			"gap or overlap between %s and %s", tiers[i-1].ID, tiers[i].ID)
	}
	assert.Equal(t, rank.Unbounded, tiers[len(tiers)-1].MaxRating)
}

func TestRewardTiersMirrorRankTable(t *testing.T) {
	rewards := rank.RewardTiers()
	tiers := rank.Tiers()
	require.Len(t, rewards, len(tiers))
	for i, rt := range rewards {
		assert.Equal(t, tiers[i].ID, rt.TierID)
		assert.Equal(t, tiers[i].MinRating, rt.MinRating)
	}
}
