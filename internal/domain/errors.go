package domain

import "errors"

var (
	// ErrAlreadyQueued is returned when a player joins while already holding
	// a queue entry.
	ErrAlreadyQueued = errors.New("player is already in the queue")

	// ErrCooldownActive is returned when a player joins before the
	// post-match cooldown has elapsed.
	ErrCooldownActive = errors.New("match cooldown has not elapsed")

	// ErrNotEligible is returned when the character service reports a
	// missing or under-leveled character for the player.
	ErrNotEligible = errors.New("player has no eligible character")

	// ErrConcurrencyConflict is returned when a second resolution path
	// touches a player whose match is already being resolved. The later
	// operation is a no-op.
	ErrConcurrencyConflict = errors.New("player is already in a match")

	// ErrNotQueued is returned by status/await lookups for players with no
	// live queue entry.
	ErrNotQueued = errors.New("player is not in the queue")

	// ErrPlayerNotFound is returned when no rating record exists for the
	// player in the active season.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrPersistence wraps storage failures during the transactional
	// rating commit. No partial state is applied; callers may retry.
	ErrPersistence = errors.New("persistence unavailable")
)
