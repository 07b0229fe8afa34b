// Package combat simulates a round-capped duel between two opaque stat
// blocks. Resolution is deterministic for a fixed random source; evasion
// and crit rolls are the only randomness, so tests inject seeded sources
// to pin exact outcomes.
package combat

import (
	"math/rand"

	"pvp-arena/internal/constants"
	"pvp-arena/internal/domain"
)

type side struct {
	id    string
	stats domain.CombatantStats
	hp    int
}

func (s *side) hpFraction() float64 {
	if s.stats.MaxHP <= 0 {
		return 0
	}
	return float64(s.hp) / float64(s.stats.MaxHP)
}

// Resolve runs up to MaxRounds rounds, alternating attacker each round
// starting with side A. A is by convention the side that joined the queue
// first, which also gives it the exact-tie win when both sides survive
// the round cap with equal HP fractions.
func Resolve(rng *rand.Rand, idA, idB string, statsA, statsB domain.CombatantStats) domain.CombatResult {
	a := &side{id: idA, stats: statsA, hp: statsA.MaxHP}
	b := &side{id: idB, stats: statsB, hp: statsB.MaxHP}

	rounds := make([]domain.CombatRound, 0, constants.MaxRounds)

	for round := 1; round <= constants.MaxRounds; round++ {
		attacker, defender := a, b
		if round%2 == 0 {
			attacker, defender = b, a
		}

		entry := domain.CombatRound{
			Round:      round,
			AttackerID: attacker.id,
			DefenderID: defender.id,
		}

		if rollPercent(rng, capped(defender.stats.Evasion, constants.EvasionCap)) {
			entry.WasEvaded = true
			entry.AttackerHP = attacker.hp
			entry.DefenderHP = defender.hp
			rounds = append(rounds, entry)
			continue
		}

		damage := rawDamage(attacker.stats.Attack, defender.stats.Defense)

		if rollPercent(rng, attacker.stats.CritChance) {
			entry.IsCrit = true
			damage *= constants.CritMultiplierBase
			damage *= 1 + attacker.stats.CritDamage/100
		}

		dealt := int(damage)
		if dealt < 1 {
			dealt = 1
		}

		healed := int(float64(dealt) * capped(attacker.stats.Lifesteal, constants.LifestealCap) / 100)
		if room := attacker.stats.MaxHP - attacker.hp; healed > room {
			healed = room
		}
		attacker.hp += healed

		defender.hp -= dealt

		entry.Damage = dealt
		entry.LifestealHealed = healed
		entry.AttackerHP = attacker.hp
		entry.DefenderHP = defender.hp
		rounds = append(rounds, entry)

		if defender.hp <= 0 {
			return domain.CombatResult{
				WinnerID:    attacker.id,
				LoserID:     defender.id,
				Rounds:      rounds,
				TotalRounds: len(rounds),
			}
		}
	}

	// Round cap exhausted with both sides alive: higher remaining HP
	// fraction wins, side A on an exact tie.
	winner, loser := a, b
	if b.hpFraction() > a.hpFraction() {
		winner, loser = b, a
	}

	return domain.CombatResult{
		WinnerID:    winner.id,
		LoserID:     loser.id,
		Rounds:      rounds,
		TotalRounds: len(rounds),
	}
}

// rawDamage applies the flat reduction plus linear defense scaling,
// multiplicatively against attack. The summed reduction is capped so
// stacked defense cannot zero out damage entirely.
func rawDamage(attack, defense int) float64 {
	reduction := constants.BaseDamageReduction + float64(defense)*constants.DefenseScaling
	if reduction > constants.ReductionCap {
		reduction = constants.ReductionCap
	}
	return float64(attack) * (1 - reduction)
}

func rollPercent(rng *rand.Rand, chance float64) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	return rng.Float64()*100 < chance
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
