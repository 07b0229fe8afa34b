package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pvp-arena/internal/combat"
	"pvp-arena/internal/constants"
	"pvp-arena/internal/domain"
	"pvp-arena/internal/queue"
	"pvp-arena/internal/rank"
	"pvp-arena/internal/rating"
	"pvp-arena/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type QueueStatus string

const (
	StatusQueued   QueueStatus = "queued"
	StatusMatched  QueueStatus = "matched"
	StatusTimeout  QueueStatus = "timeout"
	StatusCooldown QueueStatus = "cooldown"
)

// JoinResult is returned from JoinQueue. Match is set only when the join
// found an opponent immediately.
type JoinResult struct {
	Status            QueueStatus
	Opponent          string
	Match             *domain.MatchRecord
	CooldownRemaining time.Duration
}

// QueueOutcome is delivered to AwaitMatch when a queued player's wait
// ends, by match or by timeout.
type QueueOutcome struct {
	Status QueueStatus
	Match  *domain.MatchRecord
	Err    error
}

// WaitInfo describes a live queue entry.
type WaitInfo struct {
	Waiting       bool
	Elapsed       time.Duration
	ExpandedRange int
}

// ArenaService ties the queue, combat resolver, rating engine, and stores
// together. It is the component behind every core-exposed operation.
type ArenaService struct {
	queue   *queue.Queue
	seasons *SeasonService
	players *repository.PlayerRatingRepository
	matches *repository.MatchRepository
	stats   StatsProvider
	logger  zerolog.Logger

	waitersMu sync.Mutex
	waiters   map[string]chan QueueOutcome
	retention time.Duration

	// inFlight guards against two resolution paths racing on the same
	// player; the later one is a no-op.
	inFlightMu sync.Mutex
	inFlight   map[string]struct{}

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*ArenaService)

// WithOutcomeRetention overrides how long an unclaimed queue outcome stays
// retrievable, for deterministic tests.
func WithOutcomeRetention(d time.Duration) Option {
	return func(s *ArenaService) {
		s.retention = d
	}
}

func NewArenaService(
	q *queue.Queue,
	seasons *SeasonService,
	players *repository.PlayerRatingRepository,
	matches *repository.MatchRepository,
	stats StatsProvider,
	logger zerolog.Logger,
	opts ...Option,
) *ArenaService {
	s := &ArenaService{
		queue:     q,
		seasons:   seasons,
		players:   players,
		matches:   matches,
		stats:     stats,
		logger:    logger,
		waiters:   make(map[string]chan QueueOutcome),
		retention: constants.OutcomeRetention,
		inFlight:  make(map[string]struct{}),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes sweep-found pairs and timeouts from the queue until ctx is
// cancelled. Started alongside queue.Run via the fx lifecycle.
func (s *ArenaService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pair := <-s.queue.Matches():
			s.resolvePair(ctx, pair)
		case entry := <-s.queue.Timeouts():
			s.notify(entry.DiscordID, QueueOutcome{Status: StatusTimeout})
		}
	}
}

// JoinQueue checks cooldown and character eligibility, inserts the player
// into the queue, and resolves immediately when an opponent is already
// waiting within range.
func (s *ArenaService) JoinQueue(ctx context.Context, discordID, displayName string) (*JoinResult, error) {
	season, err := s.seasons.GetOrCreateActive(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.players.GetOrCreate(ctx, discordID, season.ID, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating record: %w", err)
	}

	if !rec.LastMatchAt.IsZero() {
		elapsed := time.Since(rec.LastMatchAt)
		if elapsed < constants.MatchCooldown {
			remaining := constants.MatchCooldown - elapsed
			s.logger.Debug().
				Str("discord_id", discordID).
				Dur("remaining", remaining).
				Msg("join rejected, cooldown active")
			return &JoinResult{Status: StatusCooldown, CooldownRemaining: remaining}, domain.ErrCooldownActive
		}
	}

	// Eligibility ping before any queue state exists.
	if _, err := s.stats.CombatStats(ctx, discordID); err != nil {
		return nil, err
	}

	prev, hadPrev := s.register(discordID)

	pair, err := s.queue.Join(discordID, displayName, rec.Rating)
	if err != nil {
		// A rejected duplicate join must leave the original waiter intact.
		s.restore(discordID, prev, hadPrev)
		return nil, err
	}

	if pair == nil {
		return &JoinResult{Status: StatusQueued}, nil
	}

	// Immediate match: this player is side B, the waiting opponent side A.
	s.unregister(discordID)
	match, err := s.ResolveMatch(ctx, pair.A.DiscordID, pair.B.DiscordID)
	if err != nil {
		s.notify(pair.A.DiscordID, QueueOutcome{Err: err})
		return nil, err
	}
	s.notify(pair.A.DiscordID, QueueOutcome{Status: StatusMatched, Match: match})

	return &JoinResult{
		Status:   StatusMatched,
		Opponent: pair.A.DisplayName,
		Match:    match,
	}, nil
}

// LeaveQueue removes the player's entry; reports whether one existed.
func (s *ArenaService) LeaveQueue(discordID string) bool {
	left := s.queue.Leave(discordID)
	if left {
		s.unregister(discordID)
	}
	return left
}

// AwaitMatch blocks until the queued player's wait ends. Callers that
// joined and got StatusQueued use this to learn the outcome.
func (s *ArenaService) AwaitMatch(ctx context.Context, discordID string) (QueueOutcome, error) {
	s.waitersMu.Lock()
	ch, ok := s.waiters[discordID]
	s.waitersMu.Unlock()
	if !ok {
		return QueueOutcome{}, domain.ErrNotQueued
	}

	select {
	case <-ctx.Done():
		return QueueOutcome{}, ctx.Err()
	case out := <-ch:
		s.unregister(discordID)
		if out.Err != nil {
			return QueueOutcome{}, out.Err
		}
		return out, nil
	}
}

// QueueInfo reports the player's waiting state.
func (s *ArenaService) QueueInfo(discordID string) WaitInfo {
	entry, ok := s.queue.Get(discordID)
	if !ok {
		return WaitInfo{}
	}
	return WaitInfo{
		Waiting:       true,
		Elapsed:       time.Since(entry.JoinedAt),
		ExpandedRange: entry.ExpandedRange,
	}
}

// ResolveMatch runs the full pipeline for two players: stats fetch, combat
// simulation, rating deltas, and the transactional commit of both rating
// records plus the match record. Nothing is persisted on any failure, so
// a retry reproduces a consistent state.
func (s *ArenaService) ResolveMatch(ctx context.Context, playerAID, playerBID string) (*domain.MatchRecord, error) {
	if !s.acquire(playerAID, playerBID) {
		return nil, domain.ErrConcurrencyConflict
	}
	defer s.release(playerAID, playerBID)

	season, err := s.seasons.GetOrCreateActive(ctx)
	if err != nil {
		return nil, err
	}

	recA, err := s.players.GetOrCreate(ctx, playerAID, season.ID, playerAID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating record: %w", err)
	}
	recB, err := s.players.GetOrCreate(ctx, playerBID, season.ID, playerBID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating record: %w", err)
	}

	statsA, statsB, err := s.fetchStats(ctx, playerAID, playerBID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := combat.Resolve(s.newRoll(), playerAID, playerBID, statsA, statsB)
	durationMs := time.Since(start).Milliseconds()

	winner, loser := recA, recB
	winnerStats, loserStats := statsA, statsB
	if result.WinnerID == playerBID {
		winner, loser = recB, recA
		winnerStats, loserStats = statsB, statsA
	}

	k := rating.KFactor(winner.MatchesPlayed, winner.Rating)
	change := rating.ComputeChange(winner.Rating, loser.Rating, k, winner.WinStreak)

	match, err := s.buildMatch(season.ID, winner, loser, winnerStats, loserStats, result, change, durationMs)
	if err != nil {
		return nil, err
	}

	s.applyWin(winner, change.WinnerGain)
	s.applyLoss(loser, change.LoserLoss)

	if err := s.matches.CommitResolved(ctx, winner, loser, match); err != nil {
		s.logger.Error().
			Err(err).
			Str("winner_id", winner.DiscordID).
			Str("loser_id", loser.DiscordID).
			Msg("match commit failed, no rating change applied")
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.logger.Info().
		Str("match_id", match.MatchID).
		Str("winner_id", winner.DiscordID).
		Str("loser_id", loser.DiscordID).
		Int("winner_gain", change.WinnerGain).
		Int("loser_loss", change.LoserLoss).
		Int("total_rounds", match.TotalRounds).
		Msg("match resolved")
	return match, nil
}

// Profile reports a player's standing in the active season.
func (s *ArenaService) Profile(ctx context.Context, discordID string) (*domain.Profile, error) {
	season, err := s.seasons.GetOrCreateActive(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.players.Get(ctx, discordID, season.ID)
	if err != nil {
		return nil, err
	}

	position, err := s.players.Position(ctx, season.ID, rec.Rating)
	if err != nil {
		return nil, fmt.Errorf("failed to compute position: %w", err)
	}

	placementLeft := constants.PlacementMatches - rec.MatchesPlayed
	if placementLeft < 0 {
		placementLeft = 0
	}

	return &domain.Profile{
		DiscordID:            rec.DiscordID,
		DisplayName:          rec.DisplayName,
		Rating:               rec.Rating,
		RankTier:             rec.RankTier,
		Position:             position,
		Wins:                 rec.Wins,
		Losses:               rec.Losses,
		WinStreak:            rec.WinStreak,
		BestWinStreak:        rec.BestWinStreak,
		PeakRating:           rec.PeakRating,
		WinRate:              winRate(rec.Wins, rec.Losses),
		IsInPlacement:        placementLeft > 0,
		PlacementMatchesLeft: placementLeft,
		RewardsClaimable:     rec.RewardsClaimable,
		RewardsClaimed:       rec.RewardsClaimed,
	}, nil
}

// Leaderboard returns the top players of the active season. Equal ratings
// share a position.
func (s *ArenaService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	season, err := s.seasons.GetOrCreateActive(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.players.Leaderboard(ctx, season.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(records))
	position, prevRating := 0, 0
	for i, rec := range records {
		if i == 0 || rec.Rating != prevRating {
			position = i + 1
		}
		prevRating = rec.Rating
		entries[i] = domain.LeaderboardEntry{
			Position:    position,
			DiscordID:   rec.DiscordID,
			DisplayName: rec.DisplayName,
			Rating:      rec.Rating,
			RankTier:    rec.RankTier,
			Wins:        rec.Wins,
			Losses:      rec.Losses,
			WinRate:     winRate(rec.Wins, rec.Losses),
		}
	}
	return entries, nil
}

// SeasonOverview returns the active season plus its match volume.
func (s *ArenaService) SeasonOverview(ctx context.Context) (*domain.Season, int64, error) {
	season, err := s.seasons.GetOrCreateActive(ctx)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.matches.CountForSeason(ctx, season.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count season matches: %w", err)
	}
	return season, total, nil
}

// History returns the player's most recent matches, newest first.
func (s *ArenaService) History(ctx context.Context, discordID string, limit int) ([]domain.MatchRecord, error) {
	season, err := s.seasons.GetOrCreateActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.matches.HistoryFor(ctx, season.ID, discordID, limit)
}

func (s *ArenaService) resolvePair(ctx context.Context, pair queue.Pair) {
	match, err := s.ResolveMatch(ctx, pair.A.DiscordID, pair.B.DiscordID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("player_a", pair.A.DiscordID).
			Str("player_b", pair.B.DiscordID).
			Msg("failed to resolve matched pair")
		s.notify(pair.A.DiscordID, QueueOutcome{Err: err})
		s.notify(pair.B.DiscordID, QueueOutcome{Err: err})
		return
	}
	s.notify(pair.A.DiscordID, QueueOutcome{Status: StatusMatched, Match: match})
	s.notify(pair.B.DiscordID, QueueOutcome{Status: StatusMatched, Match: match})
}

func (s *ArenaService) fetchStats(ctx context.Context, playerAID, playerBID string) (domain.CombatantStats, domain.CombatantStats, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, constants.StatsAPITimeout)
	defer cancel()

	var statsA, statsB domain.CombatantStats
	g, gCtx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		statsA, err = s.stats.CombatStats(gCtx, playerAID)
		return err
	})
	g.Go(func() error {
		var err error
		statsB, err = s.stats.CombatStats(gCtx, playerBID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotEligible) {
			return statsA, statsB, err
		}
		return statsA, statsB, fmt.Errorf("failed to fetch combat stats: %w", err)
	}
	return statsA, statsB, nil
}

func (s *ArenaService) buildMatch(
	seasonID string,
	winner, loser *domain.PlayerRating,
	winnerStats, loserStats domain.CombatantStats,
	result domain.CombatResult,
	change rating.Change,
	durationMs int64,
) (*domain.MatchRecord, error) {
	matchID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate match id: %w", err)
	}

	winnerAfter := winner.Rating + change.WinnerGain
	loserAfter := rating.ApplyFloor(loser.Rating - change.LoserLoss)

	return &domain.MatchRecord{
		MatchID:  matchID,
		SeasonID: seasonID,
		Winner: domain.Combatant{
			DiscordID:    winner.DiscordID,
			DisplayName:  winner.DisplayName,
			RatingBefore: winner.Rating,
			RatingAfter:  winnerAfter,
			TierBefore:   rank.For(winner.Rating).ID,
			TierAfter:    rank.For(winnerAfter).ID,
			Stats:        winnerStats,
		},
		Loser: domain.Combatant{
			DiscordID:    loser.DiscordID,
			DisplayName:  loser.DisplayName,
			RatingBefore: loser.Rating,
			RatingAfter:  loserAfter,
			TierBefore:   rank.For(loser.Rating).ID,
			TierAfter:    rank.For(loserAfter).ID,
			Stats:        loserStats,
		},
		Rounds:       result.Rounds,
		TotalRounds:  result.TotalRounds,
		RatingChange: change.Base,
		DurationMs:   durationMs,
		CreatedAt:    time.Now(),
	}, nil
}

func (s *ArenaService) applyWin(rec *domain.PlayerRating, gain int) {
	now := time.Now()
	rec.Rating += gain
	rec.RankTier = rank.For(rec.Rating).ID
	rec.Wins++
	rec.WinStreak++
	if rec.WinStreak > rec.BestWinStreak {
		rec.BestWinStreak = rec.WinStreak
	}
	if rec.Rating > rec.PeakRating {
		rec.PeakRating = rec.Rating
	}
	rec.MatchesPlayed++
	rec.LastMatchAt = now
	rec.UpdatedAt = now
}

func (s *ArenaService) applyLoss(rec *domain.PlayerRating, loss int) {
	now := time.Now()
	rec.Rating = rating.ApplyFloor(rec.Rating - loss)
	rec.RankTier = rank.For(rec.Rating).ID
	rec.Losses++
	rec.WinStreak = 0
	rec.MatchesPlayed++
	rec.LastMatchAt = now
	rec.UpdatedAt = now
}

// acquire marks both players as in a resolving match, or neither.
func (s *ArenaService) acquire(a, b string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if _, busy := s.inFlight[a]; busy {
		return false
	}
	if _, busy := s.inFlight[b]; busy {
		return false
	}
	s.inFlight[a] = struct{}{}
	s.inFlight[b] = struct{}{}
	return true
}

func (s *ArenaService) release(a, b string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, a)
	delete(s.inFlight, b)
}

// register installs a fresh waiter channel and returns whatever was
// registered before, so a failed join can put it back. Channels are never
// reused across joins; expiry relies on that.
func (s *ArenaService) register(discordID string) (chan QueueOutcome, bool) {
	s.waitersMu.Lock()
	defer s.waitersMu.Unlock()
	prev, ok := s.waiters[discordID]
	s.waiters[discordID] = make(chan QueueOutcome, 1)
	return prev, ok
}

// restore undoes a register call: the previous channel is reinstated, or
// the registration is removed if there was none.
func (s *ArenaService) restore(discordID string, prev chan QueueOutcome, hadPrev bool) {
	s.waitersMu.Lock()
	defer s.waitersMu.Unlock()
	if hadPrev {
		s.waiters[discordID] = prev
	} else {
		delete(s.waiters, discordID)
	}
}

func (s *ArenaService) unregister(discordID string) {
	s.waitersMu.Lock()
	defer s.waitersMu.Unlock()
	delete(s.waiters, discordID)
}

// notify parks the outcome on the player's waiter channel, if one is
// registered. The channel is buffered so the outcome survives until the
// player awaits it; the registration is retired on receipt, or aged out
// if the outcome is never claimed.
func (s *ArenaService) notify(discordID string, out QueueOutcome) {
	s.waitersMu.Lock()
	ch, ok := s.waiters[discordID]
	s.waitersMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- out:
	default:
	}
	s.expireLater(discordID, ch)
}

// expireLater drops the waiter after the retention window if the parked
// outcome was never claimed. A rejoin registers a fresh channel, so the
// identity check leaves live registrations alone.
func (s *ArenaService) expireLater(discordID string, ch chan QueueOutcome) {
	time.AfterFunc(s.retention, func() {
		s.waitersMu.Lock()
		defer s.waitersMu.Unlock()
		if cur, ok := s.waiters[discordID]; ok && cur == ch {
			delete(s.waiters, discordID)
		}
	})
}

func (s *ArenaService) newRoll() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

func winRate(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}
