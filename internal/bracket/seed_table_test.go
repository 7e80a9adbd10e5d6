package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedTablesArePermutations(t *testing.T) {
	for _, size := range SupportedSizes {
		table, err := SeedOrder(size)
		require.NoError(t, err)
		require.Len(t, table, size)

		seen := make(map[int]bool, size)
		for _, rank := range table {
			assert.True(t, rank >= 1 && rank <= size, "size %d: rank %d out of range", size, rank)
			assert.False(t, seen[rank], "size %d: rank %d repeated", size, rank)
			seen[rank] = true
		}
	}
}

// Higher seeds always win, so the top two seeds can only meet in the last round.
func TestTopSeedsMeetOnlyInFinal(t *testing.T) {
	for _, size := range SupportedSizes {
		field, err := SeedOrder(size)
		require.NoError(t, err)

		round := 1
		for len(field) > 1 {
			next := make([]int, 0, len(field)/2)
			for i := 0; i < len(field); i += 2 {
				a, b := field[i], field[i+1]
				if (a == 1 && b == 2) || (a == 2 && b == 1) {
					assert.Equal(t, 2, len(field), "size %d: seeds 1 and 2 met in round %d", size, round)
				}
				next = append(next, min(a, b))
			}
			field = next
			round++
		}
		assert.Equal(t, []int{1}, field)
	}
}

func TestSeedTablesFollowInterleave(t *testing.T) {
	for i := 1; i < len(SupportedSizes); i++ {
		prev, _ := SeedOrder(SupportedSizes[i-1])
		table, _ := SeedOrder(SupportedSizes[i])
		n := SupportedSizes[i]

		var expected []int
		for j, s := range prev {
			if j%2 == 0 {
				expected = append(expected, s, n+1-s)
			} else {
				expected = append(expected, n+1-s, s)
			}
		}
		assert.Equal(t, expected, table, "size %d", n)
	}
}

func TestBracketSizeFor(t *testing.T) {
	testCases := []struct {
		name     string
		count    int
		expected int
		err      error
	}{
		{name: "single competitor", count: 1, expected: 2},
		{name: "exact power", count: 8, expected: 8},
		{name: "rounds up", count: 5, expected: 8},
		{name: "largest", count: 128, expected: 128},
		{name: "too many", count: 129, err: ErrUnsupportedBracketSize},
		{name: "none", count: 0, err: ErrNoCompetitors},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			size, err := BracketSizeFor(tc.count)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, size)
		})
	}
}

func TestSeedOrderReturnsCopy(t *testing.T) {
	table, err := SeedOrder(4)
	require.NoError(t, err)
	table[0] = 99

	again, _ := SeedOrder(4)
	assert.Equal(t, []int{1, 4, 3, 2}, again)

	_, err = SeedOrder(6)
	assert.ErrorIs(t, err, ErrUnsupportedBracketSize)
}
