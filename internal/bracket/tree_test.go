package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, tree *Tree, round, line int) Occupant {
	t.Helper()
	s, err := tree.Slot(round, line)
	require.NoError(t, err)
	return s.Occupant
}

func TestNewTreeShape(t *testing.T) {
	testCases := []struct {
		name       string
		size       int
		thirdPlace bool
		slots      []int
	}{
		{name: "two", size: 2, slots: []int{2, 1}},
		{name: "two ignores third place", size: 2, thirdPlace: true, slots: []int{2, 1}},
		{name: "eight", size: 8, slots: []int{8, 4, 2, 1}},
		{name: "four with third place", size: 4, thirdPlace: true, slots: []int{4, 4, 2}},
		{name: "sixteen with third place", size: 16, thirdPlace: true, slots: []int{16, 8, 4, 4, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := NewTree(tc.size, tc.thirdPlace)
			require.NoError(t, err)

			assert.Equal(t, len(tc.slots)-1, tree.FinalsRound())
			assert.Equal(t, len(tc.slots), tree.ChampionRound())
			for i, n := range tc.slots {
				assert.Equal(t, n, tree.SlotsInRound(i+1), "round %d", i+1)
			}
			assert.Zero(t, tree.SlotsInRound(len(tc.slots)+1))
		})
	}

	_, err := NewTree(6, false)
	assert.ErrorIs(t, err, ErrUnsupportedBracketSize)
}

func TestByeCascadeCarriesLoneTeamToChampion(t *testing.T) {
	order := []Occupant{Team(42), Bye, Bye, Bye, Bye, Bye, Bye, Bye}

	tree, err := BuildFromOrder(order, false)
	require.NoError(t, err)

	assert.Equal(t, Team(42), mustSlot(t, tree, 2, 1))
	assert.Equal(t, Bye, mustSlot(t, tree, 2, 2))
	assert.Equal(t, Team(42), mustSlot(t, tree, 3, 1))
	assert.Equal(t, Team(42), tree.Champion())
	assert.True(t, tree.IsFinished())
	assert.Empty(t, tree.PendingMatches())

	// a second pass finds nothing left to do
	assert.Empty(t, tree.AdvanceByes())
}

func TestByeCascadeWaitsForPlayedMatches(t *testing.T) {
	tree, err := Build([]int{1, 2, 3, 4, 5}, false)
	require.NoError(t, err)

	// 1 and 2 get byes, 3 meets 6's bye, 4 plays 5
	assert.Equal(t, Team(1), mustSlot(t, tree, 2, 1))
	assert.Equal(t, Empty, mustSlot(t, tree, 2, 2))
	assert.Equal(t, Team(3), mustSlot(t, tree, 2, 3))
	assert.Equal(t, Team(2), mustSlot(t, tree, 2, 4))
	assert.Equal(t, []MatchRef{{Round: 1, Match: 2}, {Round: 2, Match: 2}}, tree.PendingMatches())

	changed, err := tree.RecordWinner(1, 2, Team(4))
	require.NoError(t, err)
	assert.Equal(t, []Slot{{Round: 2, Line: 2, Occupant: Team(4)}}, changed)
	assert.Equal(t, []MatchRef{{Round: 2, Match: 1}, {Round: 2, Match: 2}}, tree.PendingMatches())
}

func TestRecordWinnerThroughFinal(t *testing.T) {
	tree, err := Build([]int{1, 2, 3, 4}, false)
	require.NoError(t, err)

	_, err = tree.RecordWinner(1, 1, Team(1))
	require.NoError(t, err)
	_, err = tree.RecordWinner(1, 2, Team(3))
	require.NoError(t, err)
	assert.False(t, tree.IsFinished())

	changed, err := tree.RecordWinner(2, 1, Team(3))
	require.NoError(t, err)
	assert.Equal(t, []Slot{{Round: 3, Line: 1, Occupant: Team(3)}}, changed)
	assert.Equal(t, Team(3), tree.Champion())
	assert.True(t, tree.IsFinished())
}

func TestRecordWinnerErrors(t *testing.T) {
	tree, err := Build([]int{1, 2, 3, 4}, false)
	require.NoError(t, err)

	_, err = tree.RecordWinner(1, 1, Team(1))
	require.NoError(t, err)

	_, err = tree.RecordWinner(1, 1, Team(4))
	assert.ErrorIs(t, err, ErrSlotAlreadyOccupied)

	_, err = tree.RecordWinner(1, 2, Team(1))
	assert.ErrorIs(t, err, ErrNotInMatch)

	_, err = tree.RecordWinner(2, 1, Team(1))
	assert.ErrorIs(t, err, ErrMatchNotReady)

	_, err = tree.RecordWinner(3, 1, Team(1))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = tree.RecordWinner(1, 3, Team(1))
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestThirdPlaceBracket(t *testing.T) {
	tree, err := Build([]int{1, 2, 3, 4}, true)
	require.NoError(t, err)

	_, err = tree.RecordWinner(1, 1, Team(1))
	require.NoError(t, err)
	changed, err := tree.RecordWinner(1, 2, Team(2))
	require.NoError(t, err)
	assert.Equal(t, []Slot{
		{Round: 2, Line: 2, Occupant: Team(2)},
		{Round: 2, Line: 4, Occupant: Team(3)},
	}, changed)

	assert.Equal(t, Team(4), mustSlot(t, tree, 2, 3))
	assert.Equal(t, []MatchRef{{Round: 2, Match: 1}, {Round: 2, Match: 2}}, tree.PendingMatches())

	_, err = tree.RecordWinner(2, 1, Team(2))
	require.NoError(t, err)
	assert.False(t, tree.IsFinished())

	_, err = tree.RecordWinner(2, 2, Team(4))
	require.NoError(t, err)
	assert.Equal(t, Team(2), tree.Champion())
	assert.Equal(t, Team(4), tree.ThirdPlaceWinner())
	assert.True(t, tree.IsFinished())
}

func TestThreeTeamsWithThirdPlace(t *testing.T) {
	tree, err := Build([]int{1, 2, 3}, true)
	require.NoError(t, err)

	// seed 1's bye is also the opponent for third place
	assert.Equal(t, Team(1), mustSlot(t, tree, 2, 1))
	assert.Equal(t, Bye, mustSlot(t, tree, 2, 3))

	changed, err := tree.RecordWinner(1, 2, Team(2))
	require.NoError(t, err)
	assert.Equal(t, []Slot{
		{Round: 2, Line: 2, Occupant: Team(2)},
		{Round: 2, Line: 4, Occupant: Team(3)},
		{Round: 3, Line: 2, Occupant: Team(3)},
	}, changed)

	assert.Equal(t, Team(3), tree.ThirdPlaceWinner())
	assert.Equal(t, []MatchRef{{Round: 2, Match: 1}}, tree.PendingMatches())
}

func TestThreeTeamsTiedSemifinal(t *testing.T) {
	tree, err := Build([]int{1, 2, 3}, true)
	require.NoError(t, err)

	changed, err := tree.RecordWinner(1, 2, Tie)
	require.NoError(t, err)
	assert.Equal(t, []Slot{
		{Round: 2, Line: 2, Occupant: Tie},
		{Round: 2, Line: 4, Occupant: Tie},
	}, changed)

	// the tie waits against the bye for third place
	assert.Equal(t, Empty, mustSlot(t, tree, 3, 2))
	assert.True(t, tree.HasTie())

	changed, err = tree.ReplaceTie(1, 2, Team(2))
	require.NoError(t, err)
	assert.Equal(t, []Slot{
		{Round: 2, Line: 2, Occupant: Team(2)},
		{Round: 2, Line: 4, Occupant: Team(3)},
		{Round: 3, Line: 2, Occupant: Team(3)},
	}, changed)

	assert.Equal(t, Team(3), tree.ThirdPlaceWinner())
	assert.False(t, tree.HasTie())
	assert.Equal(t, []MatchRef{{Round: 2, Match: 1}}, tree.PendingMatches())
}

func TestTieAndReplaceTie(t *testing.T) {
	tree, err := Build([]int{1, 2, 3, 4}, true)
	require.NoError(t, err)

	_, err = tree.ReplaceTie(1, 1, Team(1))
	assert.ErrorIs(t, err, ErrSlotAlreadyOccupied)

	_, err = tree.RecordWinner(1, 1, Tie)
	require.NoError(t, err)
	assert.Equal(t, Tie, mustSlot(t, tree, 2, 1))
	assert.Equal(t, Tie, mustSlot(t, tree, 2, 3))
	assert.True(t, tree.HasTie())
	assert.Contains(t, tree.PendingMatches(), MatchRef{Round: 1, Match: 1})

	_, err = tree.RecordWinner(1, 2, Team(2))
	require.NoError(t, err)
	assert.Equal(t, []MatchRef{{Round: 1, Match: 1}}, tree.PendingMatches())

	_, err = tree.RecordWinner(1, 1, Team(4))
	assert.ErrorIs(t, err, ErrSlotAlreadyOccupied)

	_, err = tree.ReplaceTie(1, 1, Tie)
	assert.ErrorIs(t, err, ErrNotInMatch)

	changed, err := tree.ReplaceTie(1, 1, Team(4))
	require.NoError(t, err)
	assert.Equal(t, []Slot{
		{Round: 2, Line: 1, Occupant: Team(4)},
		{Round: 2, Line: 3, Occupant: Team(1)},
	}, changed)
	assert.False(t, tree.HasTie())
}

func TestPopulateRound1(t *testing.T) {
	tree, err := NewTree(4, false)
	require.NoError(t, err)

	err = tree.PopulateRound1([]Occupant{Team(1), Team(2)})
	assert.ErrorIs(t, err, ErrInvalidRound1Order)

	err = tree.PopulateRound1([]Occupant{Team(1), Tie, Team(3), Team(4)})
	assert.ErrorIs(t, err, ErrInvalidRound1Order)

	require.NoError(t, tree.PopulateRound1([]Occupant{Team(1), Team(4), Team(3), Team(2)}))
	assert.True(t, tree.Round1Populated())

	err = tree.PopulateRound1([]Occupant{Team(1), Team(4), Team(3), Team(2)})
	assert.ErrorIs(t, err, ErrRound1Populated)
}

func TestBuildIsIdempotent(t *testing.T) {
	ranked := []int{12, 7, 31, 4, 19, 25, 8, 2, 16, 10, 3}
	for _, thirdPlace := range []bool{false, true} {
		first, err := Build(ranked, thirdPlace)
		require.NoError(t, err)
		second, err := Build(ranked, thirdPlace)
		require.NoError(t, err)
		assert.Equal(t, first.Slots(), second.Slots())
	}
}

func TestLoadTreeRoundTrip(t *testing.T) {
	tree, err := Build([]int{1, 2, 3, 4, 5, 6}, true)
	require.NoError(t, err)
	_, err = tree.RecordWinner(1, 2, Team(4))
	require.NoError(t, err)
	require.NoError(t, tree.SetTable(1, 3, "Table 1"))

	loaded, err := LoadTree(tree.Size(), tree.ThirdPlace(), tree.Slots())
	require.NoError(t, err)
	assert.Equal(t, tree.Slots(), loaded.Slots())
	assert.True(t, loaded.Round1Populated())
	assert.Equal(t, tree.PendingMatches(), loaded.PendingMatches())
}

func TestLoadTreeCorruption(t *testing.T) {
	tree, err := Build([]int{1, 2, 3, 4, 5, 6, 7, 8}, false)
	require.NoError(t, err)
	slots := tree.Slots()

	without := func(round, line int) []Slot {
		var out []Slot
		for _, s := range slots {
			if s.Round != round || s.Line != line {
				out = append(out, s)
			}
		}
		return out
	}

	testCases := []struct {
		name  string
		slots []Slot
	}{
		{
			name:  "lines not consecutive",
			slots: without(1, 2),
		},
		{
			name:  "odd slot count in round",
			slots: without(2, 4),
		},
		{
			name:  "duplicate slot",
			slots: append(without(1, 2), Slot{Round: 1, Line: 1, Occupant: Team(1)}),
		},
		{
			name:  "line outside round",
			slots: append(without(1, 8), Slot{Round: 1, Line: 9, Occupant: Team(2)}),
		},
		{
			name:  "missing champion slot",
			slots: without(4, 1),
		},
		{
			name:  "team advanced from the wrong match",
			slots: append(without(2, 1), Slot{Round: 2, Line: 1, Occupant: Team(2)}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadTree(8, false, tc.slots)
			assert.ErrorIs(t, err, ErrBracketCorruption)
		})
	}
}

func TestLineHelpers(t *testing.T) {
	assert.Equal(t, 1, MatchNumber(1))
	assert.Equal(t, 1, MatchNumber(2))
	assert.Equal(t, 3, MatchNumber(5))
	assert.Equal(t, 2, SiblingLine(1))
	assert.Equal(t, 5, SiblingLine(6))
	assert.Equal(t, 3, NextLine(6))
	assert.Equal(t, 3, ThirdPlaceLine(1))
	assert.Equal(t, 3, ThirdPlaceLine(2))
	assert.Equal(t, 4, ThirdPlaceLine(3))
	assert.Equal(t, 4, ThirdPlaceLine(4))
	assert.Equal(t, 1, SemifinalLine(3))
	assert.Equal(t, 3, SemifinalLine(4))
}
