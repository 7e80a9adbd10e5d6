package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const robotGame = `
title: Robot Game
require_verified: true
goals:
  - name: flags
    multiplier: 25
    min: 0
    max: 4
  - name: ramp
    multiplier: 10
  - name: seconds_left
    multiplier: 0
tiebreakers:
  - id: flags_first
    winner: high
    terms:
      - goal: flags
        coefficient: 1
  - id: fastest
    winner: low
    constant: 150
    terms:
      - goal: seconds_left
        coefficient: -1
  - id: ramp_squared
    winner: high
    terms:
      - goal: ramp
        coefficient: 2
        exponent: 2
`

func TestParseChallenge(t *testing.T) {
	c, err := ParseChallenge([]byte(robotGame))
	require.NoError(t, err)

	assert.Equal(t, "Robot Game", c.Title)
	assert.Equal(t, bracket.HighWins, c.WinnerCriteria)
	assert.True(t, c.RequireVerified)
	require.Len(t, c.Goals, 3)
	assert.Equal(t, []bracket.TiebreakTest{
		{ID: "flags_first", Winner: bracket.HighWins},
		{ID: "fastest", Winner: bracket.LowWins},
		{ID: "ramp_squared", Winner: bracket.HighWins},
	}, c.TiebreakTests())
}

func TestChallengeArithmetic(t *testing.T) {
	c, err := ParseChallenge([]byte(robotGame))
	require.NoError(t, err)

	values := map[string]float64{"flags": 6, "ramp": 3, "seconds_left": 40}

	// flags clamp to 4
	assert.InDelta(t, 130.0, c.Total(values), 1e-9)

	fastest, err := c.Tiebreaker("fastest")
	require.NoError(t, err)
	assert.InDelta(t, 110.0, fastest.Evaluate(values), 1e-9)

	ramp, err := c.Tiebreaker("ramp_squared")
	require.NoError(t, err)
	assert.InDelta(t, 18.0, ramp.Evaluate(values), 1e-9)

	_, err = c.Tiebreaker("coin_flip")
	assert.ErrorIs(t, err, ErrUnknownTiebreaker)
}

func TestParseChallengeErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{name: "bad yaml", yaml: "goals: [name: x"},
		{name: "bad winner criteria", yaml: "winner_criteria: sideways"},
		{name: "duplicate goal", yaml: "goals: [{name: a}, {name: a}]"},
		{name: "unnamed goal", yaml: "goals: [{multiplier: 2}]"},
		{name: "inverted range", yaml: "goals: [{name: a, min: 5, max: 1}]"},
		{name: "unknown goal in tie breaker", yaml: "goals: [{name: a}]\ntiebreakers: [{id: t, winner: high, terms: [{goal: b}]}]"},
		{name: "tie breaker without polarity", yaml: "tiebreakers: [{id: t}]"},
		{name: "repeated tie breaker", yaml: "tiebreakers: [{id: t, winner: high}, {id: t, winner: low}]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseChallenge([]byte(tc.yaml))
			assert.ErrorIs(t, err, ErrInvalidChallenge)
		})
	}
}

func TestLoadChallenge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "challenge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("winner_criteria: low\n"), 0o600))

	c, err := LoadChallenge(path)
	require.NoError(t, err)
	assert.Equal(t, bracket.LowWins, c.WinnerCriteria)

	_, err = LoadChallenge(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
