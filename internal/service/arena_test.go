package service_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"pvp-arena/internal/config"
	"pvp-arena/internal/constants"
	"pvp-arena/internal/database"
	"pvp-arena/internal/db"
	"pvp-arena/internal/domain"
	"pvp-arena/internal/queue"
	"pvp-arena/internal/repository"
	"pvp-arena/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStats hands out fixed stat blocks. Zero crit and evasion keep
// combat fully deterministic; "strong" always beats "weak".
type stubStats struct {
	blocks map[string]domain.CombatantStats
}

func (s stubStats) CombatStats(_ context.Context, discordID string) (domain.CombatantStats, error) {
	block, ok := s.blocks[discordID]
	if !ok {
		return domain.CombatantStats{}, domain.ErrNotEligible
	}
	return block, nil
}

var (
	strongBlock = domain.CombatantStats{MaxHP: 1000, Attack: 100, Defense: 50}
	weakBlock   = domain.CombatantStats{MaxHP: 100, Attack: 10, Defense: 0}
)

type fixture struct {
	arena   *service.ArenaService
	seasons *service.SeasonService
	queries *db.Queries
	sqlDB   *sql.DB
}

func newFixture(t *testing.T, blocks map[string]domain.CombatantStats, opts ...service.Option) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "arena_test.db")}

	sqlDB, err := database.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	queries := db.New(sqlDB)
	seasonRepo := repository.NewSeasonRepository(sqlDB, queries, logger)
	playerRepo := repository.NewPlayerRatingRepository(sqlDB, queries, logger)
	matchRepo := repository.NewMatchRepository(sqlDB, queries, logger)
	seasons := service.NewSeasonService(seasonRepo, logger)
	q := queue.New(queue.DefaultConfig(), logger)

	arena := service.NewArenaService(q, seasons, playerRepo, matchRepo, stubStats{blocks: blocks}, logger, opts...)
	return &fixture{arena: arena, seasons: seasons, queries: queries, sqlDB: sqlDB}
}

func defaultBlocks() map[string]domain.CombatantStats {
	return map[string]domain.CombatantStats{
		"alice": strongBlock,
		"bob":   weakBlock,
	}
}

func TestSeasonCreatedLazily(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	season, err := f.seasons.GetOrCreateActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, season.Number)
	assert.True(t, season.IsActive)
	assert.NotEmpty(t, season.RewardTiers)
	assert.WithinDuration(t, season.StartDate.Add(constants.SeasonDuration), season.EndDate, time.Second)

	// Second access returns the same season, not a new one.
	again, err := f.seasons.GetOrCreateActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, season.ID, again.ID)
}

func TestResolveMatchFullPipeline(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	match, err := f.arena.ResolveMatch(ctx, "alice", "bob")
	require.NoError(t, err)

	// Both placement players at 1000: K=64, expected 0.5 -> 32 each way.
	assert.Equal(t, "alice", match.Winner.DiscordID)
	assert.Equal(t, "bob", match.Loser.DiscordID)
	assert.Equal(t, 1000, match.Winner.RatingBefore)
	assert.Equal(t, 1032, match.Winner.RatingAfter)
	assert.Equal(t, 968, match.Loser.RatingAfter)
	assert.Equal(t, 32, match.RatingChange)
	assert.Equal(t, "silver", match.Winner.TierAfter)
	assert.Equal(t, "bronze", match.Loser.TierAfter)
	assert.NotEmpty(t, match.MatchID)
	assert.NotEmpty(t, match.Rounds)

	// Stored state reflects exactly one match per participant.
	aliceProfile, err := f.arena.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1032, aliceProfile.Rating)
	assert.Equal(t, 1, aliceProfile.Wins)
	assert.Equal(t, 0, aliceProfile.Losses)
	assert.Equal(t, 1, aliceProfile.WinStreak)
	assert.Equal(t, 1032, aliceProfile.PeakRating)
	assert.True(t, aliceProfile.IsInPlacement)
	assert.Equal(t, constants.PlacementMatches-1, aliceProfile.PlacementMatchesLeft)

	bobProfile, err := f.arena.Profile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 968, bobProfile.Rating)
	assert.Equal(t, 1, bobProfile.Losses)
	assert.Equal(t, 0, bobProfile.WinStreak)
	assert.Equal(t, 1000, bobProfile.PeakRating)
}

func TestResolveMatchHistoryAndLeaderboard(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	_, err := f.arena.ResolveMatch(ctx, "alice", "bob")
	require.NoError(t, err)

	history, err := f.arena.History(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].Winner.DiscordID)
	assert.Equal(t, strongBlock, history[0].Winner.Stats)

	entries, err := f.arena.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, "alice", entries[0].DiscordID)
	assert.Equal(t, 2, entries[1].Position)
	assert.Equal(t, "bob", entries[1].DiscordID)
	assert.InDelta(t, 1.0, entries[0].WinRate, 1e-9)
}

func TestResolveMatchRatingFloor(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	season, err := f.seasons.GetOrCreateActive(ctx)
	require.NoError(t, err)

	// Seed both just above the floor so the loss outruns the remaining
	// headroom; the loser must clamp, not go under.
	now := time.Now()
	for _, id := range []string{"alice", "bob"} {
		require.NoError(t, f.queries.InsertPlayerRating(ctx, db.InsertPlayerRatingParams{
			DiscordID:   id,
			SeasonID:    season.ID,
			DisplayName: id,
			Rating:      110,
			RankTier:    "bronze",
			PeakRating:  1000,
			CreatedAt:   now,
			UpdatedAt:   now,
		}))
	}

	// Equal ratings in placement: 32 each way, 110-32 clamps at the floor.
	match, err := f.arena.ResolveMatch(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 142, match.Winner.RatingAfter)
	assert.Equal(t, constants.MinRating, match.Loser.RatingAfter)

	profile, err := f.arena.Profile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, constants.MinRating, profile.Rating)
}

func TestResolveMatchIneligiblePlayer(t *testing.T) {
	f := newFixture(t, map[string]domain.CombatantStats{"alice": strongBlock})
	ctx := context.Background()

	_, err := f.arena.ResolveMatch(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	// Nothing was committed for either side.
	profile, err := f.arena.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Wins+profile.Losses)
}

func TestJoinQueueImmediateMatch(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	first, err := f.arena.JoinQueue(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, service.StatusQueued, first.Status)

	second, err := f.arena.JoinQueue(ctx, "bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, service.StatusMatched, second.Status)
	assert.Equal(t, "Alice", second.Opponent)
	require.NotNil(t, second.Match)
	assert.Equal(t, "alice", second.Match.Winner.DiscordID)

	// The waiting side can still pick up its outcome.
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	outcome, err := f.arena.AwaitMatch(waitCtx, "alice")
	require.NoError(t, err)
	assert.Equal(t, service.StatusMatched, outcome.Status)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, second.Match.MatchID, outcome.Match.MatchID)
}

func TestJoinQueueRejectsDuplicate(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	_, err := f.arena.JoinQueue(ctx, "alice", "Alice")
	require.NoError(t, err)

	_, err = f.arena.JoinQueue(ctx, "alice", "Alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyQueued)
}

func TestDuplicateJoinKeepsPendingWait(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	first, err := f.arena.JoinQueue(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, service.StatusQueued, first.Status)

	// The rejected duplicate must not disturb the live wait.
	_, err = f.arena.JoinQueue(ctx, "alice", "Alice")
	require.ErrorIs(t, err, domain.ErrAlreadyQueued)

	second, err := f.arena.JoinQueue(ctx, "bob", "Bob")
	require.NoError(t, err)
	require.Equal(t, service.StatusMatched, second.Status)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	outcome, err := f.arena.AwaitMatch(waitCtx, "alice")
	require.NoError(t, err)
	assert.Equal(t, service.StatusMatched, outcome.Status)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, second.Match.MatchID, outcome.Match.MatchID)
}

func TestUnclaimedOutcomeExpires(t *testing.T) {
	f := newFixture(t, defaultBlocks(), service.WithOutcomeRetention(20*time.Millisecond))
	ctx := context.Background()

	_, err := f.arena.JoinQueue(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = f.arena.JoinQueue(ctx, "bob", "Bob")
	require.NoError(t, err)

	// Alice never awaits her parked outcome; the registration is dropped
	// once the retention window passes, so a late await finds nothing.
	time.Sleep(150 * time.Millisecond)
	_, err = f.arena.AwaitMatch(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotQueued)
}

func TestJoinQueueCooldownAfterMatch(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	_, err := f.arena.ResolveMatch(ctx, "alice", "bob")
	require.NoError(t, err)

	result, err := f.arena.JoinQueue(ctx, "alice", "Alice")
	assert.ErrorIs(t, err, domain.ErrCooldownActive)
	require.NotNil(t, result)
	assert.Equal(t, service.StatusCooldown, result.Status)
	assert.Greater(t, result.CooldownRemaining, time.Duration(0))
	assert.LessOrEqual(t, result.CooldownRemaining, constants.MatchCooldown)
}

func TestJoinQueueIneligiblePlayerNotQueued(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	_, err := f.arena.JoinQueue(ctx, "ghost", "Ghost")
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	assert.False(t, f.arena.LeaveQueue("ghost"))
}

func TestLeaveQueue(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	_, err := f.arena.JoinQueue(ctx, "alice", "Alice")
	require.NoError(t, err)

	assert.True(t, f.arena.LeaveQueue("alice"))
	assert.False(t, f.arena.LeaveQueue("alice"))

	info := f.arena.QueueInfo("alice")
	assert.False(t, info.Waiting)
}

func TestWinStreakAccumulates(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.arena.ResolveMatch(ctx, "alice", "bob")
		require.NoError(t, err)
	}

	profile, err := f.arena.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, profile.WinStreak)
	assert.Equal(t, 4, profile.BestWinStreak)
	assert.Equal(t, 4, profile.Wins)

	bob, err := f.arena.Profile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 4, bob.Losses)
	assert.Equal(t, 0, bob.WinStreak)

	// One MatchRecord per resolved match.
	history, err := f.arena.History(ctx, "bob", 50)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestSeasonOverviewCountsMatches(t *testing.T) {
	f := newFixture(t, defaultBlocks())
	ctx := context.Background()

	season, total, err := f.arena.SeasonOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, season.Number)
	assert.Zero(t, total)

	_, err = f.arena.ResolveMatch(ctx, "alice", "bob")
	require.NoError(t, err)

	_, total, err = f.arena.SeasonOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestProfileUnknownPlayer(t *testing.T) {
	f := newFixture(t, defaultBlocks())

	_, err := f.arena.Profile(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}
