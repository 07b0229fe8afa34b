package service

import (
	"context"

	"pvp-arena/internal/domain"
)

// StatsProvider supplies the opaque combat stat block for a player,
// aggregated elsewhere from character stats plus equipped gear. The block
// is trusted as-is; a player with no eligible character surfaces as
// domain.ErrNotEligible.
type StatsProvider interface {
	CombatStats(ctx context.Context, discordID string) (domain.CombatantStats, error)
}
