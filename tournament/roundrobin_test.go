package tournament

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptmate"
)

type callerFunc func(ctx context.Context, agentID, prompt string) (string, error)

func (f callerFunc) Call(ctx context.Context, agentID, prompt string) (string, error) {
	return f(ctx, agentID, prompt)
}

// instantResign makes white resign on its first move, so black wins every
// match and the schedule finishes immediately.
func instantResign() promptmate.Caller {
	return callerFunc(func(context.Context, string, string) (string, error) {
		return "resign", nil
	})
}

func TestRoundRobinDoubleSchedule(t *testing.T) {
	roster := []*promptmate.Agent{
		promptmate.NewAgent("a", "Alpha", instantResign()),
		promptmate.NewAgent("b", "Beta", instantResign()),
		promptmate.NewAgent("c", "Gamma", instantResign()),
	}
	tour := New(roster, promptmate.MatchConfig{}, nil)
	tour.Parallel = 2

	type pairing struct{ white, black string }
	var mu sync.Mutex
	var seen []pairing
	tour.OnResult = func(id string, conf promptmate.MatchConfig, res *promptmate.MatchResult) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, pairing{conf.White, conf.Black})
		assert.NotEmpty(t, id)
		assert.Equal(t, promptmate.ReasonResignation, res.Reason)
	}

	standings, err := tour.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 6)

	count := map[pairing]int{}
	for _, p := range seen {
		count[p]++
	}
	for _, p := range []pairing{
		{"a", "b"}, {"b", "a"},
		{"a", "c"}, {"c", "a"},
		{"b", "c"}, {"c", "b"},
	} {
		assert.Equal(t, 1, count[p], "pairing %v should play exactly once", p)
	}

	require.Len(t, standings, 3)
	var ratingSum float32
	for _, s := range standings {
		assert.Equal(t, float32(2), s.Wins, "%s wins as black twice", s.ID)
		assert.Equal(t, float32(2), s.Loss, "%s loses as white twice", s.ID)
		assert.Equal(t, float32(0), s.Draw, s.ID)
		ratingSum += s.Rating
	}
	assert.InDelta(t, 3*DefaultRating, ratingSum, 0.5, "rating points only move between agents")
}

func TestRoundRobinNeedsTwoAgents(t *testing.T) {
	tour := New([]*promptmate.Agent{promptmate.NewAgent("solo", "", instantResign())},
		promptmate.MatchConfig{}, nil)
	_, err := tour.Run(context.Background())
	assert.Error(t, err)
}

func TestRoundRobinCancelledContext(t *testing.T) {
	roster := []*promptmate.Agent{
		promptmate.NewAgent("a", "", instantResign()),
		promptmate.NewAgent("b", "", instantResign()),
	}
	tour := New(roster, promptmate.MatchConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	standings, err := tour.Run(ctx)
	assert.Error(t, err)
	assert.Len(t, standings, 2, "standings are still reported for what was played")
}

func TestStandingsOrder(t *testing.T) {
	low := promptmate.NewAgent("low", "Low", nil)
	low.Rating = 1480
	high := promptmate.NewAgent("high", "High", nil)
	high.Rating = 1520
	tied := promptmate.NewAgent("tied", "Aaa", nil)
	tied.Rating = 1480
	tied.Wins = 1

	tour := New([]*promptmate.Agent{low, high, tied}, promptmate.MatchConfig{}, nil)
	s := tour.Standings()
	require.Len(t, s, 3)
	assert.Equal(t, "high", s[0].ID)
	assert.Equal(t, "tied", s[1].ID, "wins break the rating tie")
	assert.Equal(t, "low", s[2].ID)
}
