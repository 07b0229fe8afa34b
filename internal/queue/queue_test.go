package queue_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pvp-arena/internal/domain"
	"pvp-arena/internal/queue"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newQueue(clock *fakeClock) *queue.Queue {
	return queue.New(queue.DefaultConfig(), zerolog.Nop(), queue.WithClock(clock.Now))
}

func TestJoinRejectsDuplicate(t *testing.T) {
	q := newQueue(newFakeClock())

	pair, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)
	assert.Nil(t, pair)

	_, err = q.Join("p1", "Player One", 1000)
	assert.ErrorIs(t, err, domain.ErrAlreadyQueued)
	assert.Equal(t, 1, q.Len())
}

func TestJoinMatchesWithinRange(t *testing.T) {
	q := newQueue(newFakeClock())

	_, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)

	pair, err := q.Join("p2", "Player Two", 1250)
	require.NoError(t, err)
	require.NotNil(t, pair)

	// Longest-waiting side is A.
	assert.Equal(t, "p1", pair.A.DiscordID)
	assert.Equal(t, "p2", pair.B.DiscordID)

	// Both entries removed before the pair is handed out.
	assert.Equal(t, 0, q.Len())
}

func TestJoinNoMatchOutsideRange(t *testing.T) {
	q := newQueue(newFakeClock())

	_, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)

	pair, err := q.Join("p2", "Player Two", 1301)
	require.NoError(t, err)
	assert.Nil(t, pair)
	assert.Equal(t, 2, q.Len())
}

func TestJoinPicksClosestOpponent(t *testing.T) {
	q := newQueue(newFakeClock())

	for i, rating := range []int{900, 1040, 1210} {
		_, err := q.Join(fmt.Sprintf("p%d", i), "p", rating)
		require.NoError(t, err)
	}

	pair, err := q.Join("joiner", "Joiner", 1050)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "p1", pair.A.DiscordID) // 1040 is the closest
	assert.Equal(t, 2, q.Len())
}

func TestJoinTieBreaksByLongestWait(t *testing.T) {
	clock := newFakeClock()
	q := newQueue(clock)

	_, err := q.Join("early", "Early", 950)
	require.NoError(t, err)
	clock.Advance(5 * time.Second)
	_, err = q.Join("late", "Late", 1050)
	require.NoError(t, err)

	// Equidistant from both: the earlier join wins.
	pair, err := q.Join("joiner", "Joiner", 1000)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "early", pair.A.DiscordID)
}

func TestLeaveIsIdempotent(t *testing.T) {
	q := newQueue(newFakeClock())

	_, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)

	assert.True(t, q.Leave("p1"))
	assert.False(t, q.Leave("p1"))
	assert.False(t, q.Leave("never-joined"))
	assert.Equal(t, 0, q.Len())
}

func TestSweepExpandsRange(t *testing.T) {
	clock := newFakeClock()
	q := newQueue(clock)

	_, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	q.Sweep()

	entry, ok := q.Get("p1")
	require.True(t, ok)
	assert.Equal(t, 50, entry.ExpandedRange)
}

func TestSweepExpansionIsCapped(t *testing.T) {
	clock := newFakeClock()
	q := newQueue(clock)

	_, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)

	// Far past enough intervals to overrun the cap, short of the timeout.
	clock.Advance(110 * time.Second)
	q.Sweep()

	entry, ok := q.Get("p1")
	require.True(t, ok)
	assert.Equal(t, 200, entry.ExpandedRange)
}

func TestExpansionAllowsWiderMatch(t *testing.T) {
	clock := newFakeClock()
	q := newQueue(clock)

	_, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)
	clock.Advance(time.Second)

	// +320 is out of base range.
	pair, err := q.Join("p2", "Player Two", 1320)
	require.NoError(t, err)
	require.Nil(t, pair)

	// p1 reaches its first expansion tick; the widened gap admits p2.
	clock.Advance(9 * time.Second)
	q.Sweep()

	select {
	case pair := <-q.Matches():
		assert.Equal(t, "p1", pair.A.DiscordID)
		assert.Equal(t, "p2", pair.B.DiscordID)
	default:
		t.Fatal("expected a pair after expansion")
	}
	assert.Equal(t, 0, q.Len())
}

func TestSweepTimesOutStaleEntries(t *testing.T) {
	clock := newFakeClock()
	q := newQueue(clock)

	_, err := q.Join("p1", "Player One", 1000)
	require.NoError(t, err)

	clock.Advance(120 * time.Second)
	q.Sweep()

	select {
	case entry := <-q.Timeouts():
		assert.Equal(t, "p1", entry.DiscordID)
	default:
		t.Fatal("expected a timeout")
	}
	assert.Equal(t, 0, q.Len())

	// The player can rejoin afterwards.
	_, err = q.Join("p1", "Player One", 1000)
	assert.NoError(t, err)
}

func TestSweepMatchesExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	q := newQueue(clock)

	// Three mutually compatible entries: one pair and one leftover.
	for i := 0; i < 3; i++ {
		_, err := q.Join(fmt.Sprintf("p%d", i), "p", 1000+i*10)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	q.Sweep()

	select {
	case <-q.Matches():
	default:
		t.Fatal("expected one pair")
	}
	select {
	case pair := <-q.Matches():
		t.Fatalf("unexpected second pair: %v vs %v", pair.A.DiscordID, pair.B.DiscordID)
	default:
	}
	assert.Equal(t, 1, q.Len())
}

func TestConcurrentJoinsNeverDoubleMatch(t *testing.T) {
	q := queue.New(queue.DefaultConfig(), zerolog.Nop())

	const players = 100
	var wg sync.WaitGroup
	matched := make(chan queue.Pair, players)
	var dupErrs int
	var mu sync.Mutex

	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := q.Join(fmt.Sprintf("p%d", i), "p", 1000)
			if err != nil {
				if errors.Is(err, domain.ErrAlreadyQueued) {
					mu.Lock()
					dupErrs++
					mu.Unlock()
				}
				return
			}
			if pair != nil {
				matched <- *pair
			}
		}(i)
	}
	wg.Wait()
	close(matched)

	assert.Zero(t, dupErrs)

	// Every player appears in at most one pair, and pairs plus waiting
	// entries account for everyone.
	seen := make(map[string]bool)
	pairs := 0
	for pair := range matched {
		pairs++
		for _, id := range []string{pair.A.DiscordID, pair.B.DiscordID} {
			assert.False(t, seen[id], "player %s matched twice", id)
			seen[id] = true
		}
	}
	assert.Equal(t, players, pairs*2+q.Len())
}

func TestConcurrentJoinLeaveRace(t *testing.T) {
	q := queue.New(queue.DefaultConfig(), zerolog.Nop())

	const players = 50
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			if _, err := q.Join(id, "p", 1000+i); err != nil {
				return
			}
			q.Leave(id)
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, nobody is left queued twice and the
	// map holds only entries that were matched away or left behind.
	assert.GreaterOrEqual(t, q.Len(), 0)
	assert.LessOrEqual(t, q.Len(), players)
}
