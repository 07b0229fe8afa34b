// Package queue holds the ephemeral matchmaking queue. Entries live only
// in process memory; a restart drops all waiting players.
//
// Every mutation — insert, remove-pair-on-match, range expansion, timeout
// sweep — happens under one mutex, so "find a partner and remove both
// entries" is atomic and no entry can ever be matched twice.
package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"pvp-arena/internal/constants"
	"pvp-arena/internal/domain"

	"github.com/rs/zerolog"
)

type Config struct {
	MaxRatingDifference   int
	MaxExpandedDifference int
	ExpandAmount          int
	ExpandInterval        time.Duration
	Timeout               time.Duration
	JanitorInterval       time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRatingDifference:   constants.MaxRatingDifference,
		MaxExpandedDifference: constants.MaxExpandedDifference,
		ExpandAmount:          constants.ExpandAmount,
		ExpandInterval:        constants.ExpandInterval,
		Timeout:               constants.QueueTimeout,
		JanitorInterval:       constants.JanitorInterval,
	}
}

// Entry is one waiting player. Rating is a snapshot taken at join time.
type Entry struct {
	DiscordID     string
	DisplayName   string
	Rating        int
	JoinedAt      time.Time
	ExpandedRange int
}

// Pair is a matched couple. A is always the longer-waiting side.
type Pair struct {
	A Entry
	B Entry
}

type Option func(*Queue)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

type Queue struct {
	mu      sync.Mutex
	entries map[string]*Entry

	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
	matches  chan Pair
	timeouts chan Entry
}

func New(cfg Config, logger zerolog.Logger, opts ...Option) *Queue {
	q := &Queue{
		entries:  make(map[string]*Entry),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		matches:  make(chan Pair, 16),
		timeouts: make(chan Entry, 16),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Matches emits pairs found by the janitor sweep. Pairs found directly by
// Join are returned to the joiner instead.
func (q *Queue) Matches() <-chan Pair {
	return q.matches
}

// Timeouts emits entries dropped after waiting longer than the queue
// timeout. A timeout is a status, not an error.
func (q *Queue) Timeouts() <-chan Entry {
	return q.timeouts
}

// Join inserts the player and immediately looks for an opponent. When one
// qualifies, both entries are removed before Join returns and the pair is
// handed to the caller; otherwise the entry stays queued.
func (q *Queue) Join(discordID, displayName string, rating int) (*Pair, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.entries[discordID]; ok {
		return nil, domain.ErrAlreadyQueued
	}

	entry := &Entry{
		DiscordID:   discordID,
		DisplayName: displayName,
		Rating:      rating,
		JoinedAt:    q.now(),
	}

	if opp := q.findOpponentLocked(entry); opp != nil {
		delete(q.entries, opp.DiscordID)
		q.logger.Info().
			Str("discord_id", discordID).
			Str("opponent_id", opp.DiscordID).
			Int("rating", rating).
			Int("opponent_rating", opp.Rating).
			Msg("matched on join")
		return &Pair{A: *opp, B: *entry}, nil
	}

	q.entries[discordID] = entry
	q.logger.Info().
		Str("discord_id", discordID).
		Int("rating", rating).
		Int("queue_size", len(q.entries)).
		Msg("player queued")
	return nil, nil
}

// Leave removes the player's entry. Idempotent; reports whether an entry
// was present. An entry already handed off as part of a pair cannot be
// left, because removal happened under the same lock that found it.
func (q *Queue) Leave(discordID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.entries[discordID]; !ok {
		return false
	}
	delete(q.entries, discordID)
	q.logger.Info().Str("discord_id", discordID).Msg("player left queue")
	return true
}

// Get returns a snapshot of the player's entry.
func (q *Queue) Get(discordID string) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[discordID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Run drives timeout and expansion sweeps until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Sweep()
		}
	}
}

// Sweep applies queue maintenance once: expired entries are dropped and
// reported on Timeouts, waiting entries have their search range widened
// per elapsed expand interval, and newly compatible pairs are emitted on
// Matches. Run calls this on every janitor tick.
func (q *Queue) Sweep() {
	now := q.now()

	q.mu.Lock()

	var timedOut []Entry
	for id, e := range q.entries {
		if now.Sub(e.JoinedAt) >= q.cfg.Timeout {
			delete(q.entries, id)
			timedOut = append(timedOut, *e)
			continue
		}
		q.expandLocked(e, now)
	}

	var pairs []Pair
	for _, e := range q.byWaitLocked() {
		if _, ok := q.entries[e.DiscordID]; !ok {
			continue // already paired this sweep
		}
		if opp := q.findOpponentLocked(e); opp != nil {
			delete(q.entries, e.DiscordID)
			delete(q.entries, opp.DiscordID)
			first, second := e, opp
			if opp.JoinedAt.Before(e.JoinedAt) {
				first, second = opp, e
			}
			pairs = append(pairs, Pair{A: *first, B: *second})
		}
	}

	q.mu.Unlock()

	for _, e := range timedOut {
		q.logger.Info().
			Str("discord_id", e.DiscordID).
			Dur("waited", now.Sub(e.JoinedAt)).
			Msg("queue entry timed out")
		q.timeouts <- e
	}
	for _, p := range pairs {
		q.logger.Info().
			Str("discord_id", p.A.DiscordID).
			Str("opponent_id", p.B.DiscordID).
			Msg("matched on sweep")
		q.matches <- p
	}
}

// expandLocked widens the entry's acceptable rating gap by ExpandAmount
// per elapsed interval, capped so the effective gap never exceeds
// MaxExpandedDifference.
func (q *Queue) expandLocked(e *Entry, now time.Time) {
	ticks := int(now.Sub(e.JoinedAt) / q.cfg.ExpandInterval)
	target := ticks * q.cfg.ExpandAmount
	limit := q.cfg.MaxExpandedDifference - q.cfg.MaxRatingDifference
	if target > limit {
		target = limit
	}
	if target > e.ExpandedRange {
		e.ExpandedRange = target
		q.logger.Debug().
			Str("discord_id", e.DiscordID).
			Int("expanded_range", e.ExpandedRange).
			Msg("search range expanded")
	}
}

// findOpponentLocked picks the entry minimizing the rating gap, within
// the base difference widened by the larger of the two expanded ranges.
// Ties go to the longest-waiting candidate.
func (q *Queue) findOpponentLocked(e *Entry) *Entry {
	var best *Entry
	var bestDiff int

	for _, other := range q.entries {
		if other.DiscordID == e.DiscordID {
			continue
		}

		diff := e.Rating - other.Rating
		if diff < 0 {
			diff = -diff
		}

		allowed := q.cfg.MaxRatingDifference
		if e.ExpandedRange > other.ExpandedRange {
			allowed += e.ExpandedRange
		} else {
			allowed += other.ExpandedRange
		}
		if diff > allowed {
			continue
		}

		if best == nil || diff < bestDiff ||
			(diff == bestDiff && other.JoinedAt.Before(best.JoinedAt)) {
			best = other
			bestDiff = diff
		}
	}
	return best
}

// byWaitLocked returns current entries ordered longest-waiting first, so
// sweeps favor the players who have been in line the longest.
func (q *Queue) byWaitLocked() []*Entry {
	out := make([]*Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}
