package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	performances map[[2]int]*Performance
	calls        int
}

func (m *memorySource) GetPerformance(_ context.Context, _ uuid.UUID, team, run int) (*Performance, error) {
	m.calls++
	p, ok := m.performances[[2]int{team, run}]
	if !ok {
		return nil, fmt.Errorf("%w: team %d", ErrPerformanceMissing, team)
	}
	return p, nil
}

func newTestEngine(t *testing.T, perfs ...*Performance) (*Engine, *memorySource) {
	t.Helper()
	c, err := ParseChallenge([]byte(robotGame))
	require.NoError(t, err)

	src := &memorySource{performances: make(map[[2]int]*Performance)}
	for _, p := range perfs {
		src.performances[[2]int{p.TeamNumber, p.RunNumber}] = p
	}
	return NewEngine(c, src, uuid.New()), src
}

func TestEngineScores(t *testing.T) {
	engine, src := newTestEngine(t,
		&Performance{TeamNumber: 1, RunNumber: 4, Verified: true, Goals: map[string]float64{"flags": 2, "ramp": 1}},
		&Performance{TeamNumber: 2, RunNumber: 4, Verified: false, Goals: map[string]float64{"flags": 4}},
		&Performance{TeamNumber: 3, RunNumber: 4, Verified: true, NoShow: true, Goals: map[string]float64{"flags": 4}},
	)
	ctx := context.Background()

	exists, err := engine.ScoreExists(ctx, 1, 4)
	require.NoError(t, err)
	assert.True(t, exists)

	// unverified scores are hidden
	exists, err = engine.ScoreExists(ctx, 2, 4)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = engine.ScoreExists(ctx, 9, 4)
	require.NoError(t, err)
	assert.False(t, exists)

	total, err := engine.TotalScore(ctx, 1, 4)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, total, 1e-9)

	noShow, err := engine.IsNoShow(ctx, 3, 4)
	require.NoError(t, err)
	assert.True(t, noShow)
	total, err = engine.TotalScore(ctx, 3, 4)
	require.NoError(t, err)
	assert.Zero(t, total)

	v, err := engine.EvaluateTiebreakTest(ctx, "flags_first", 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = engine.TotalScore(ctx, 9, 4)
	assert.ErrorIs(t, err, ErrPerformanceMissing)

	// 1, 2, 3 and 9 each fetched once
	assert.Equal(t, 4, src.calls)
}

func TestEngineDrivesResolver(t *testing.T) {
	engine, _ := newTestEngine(t,
		&Performance{TeamNumber: 10, RunNumber: 1, Verified: true, Goals: map[string]float64{"flags": 2, "ramp": 5, "seconds_left": 12}},
		&Performance{TeamNumber: 20, RunNumber: 1, Verified: true, Goals: map[string]float64{"flags": 2, "ramp": 5, "seconds_left": 30}},
	)

	outcome, err := bracket.NewResolver(bracket.HighWins).Resolve(context.Background(), engine, bracket.Team(10), bracket.Team(20), 1)
	require.NoError(t, err)

	// equal totals and flags, team 20 finished faster
	assert.Equal(t, bracket.Decided, outcome.Status)
	assert.Equal(t, bracket.Team(20), outcome.Winner)
}
