package views

import (
	"context"
	"strings"
	"testing"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareBracketData(t *testing.T) {
	tree := buildTree(t, []int{1, 2, 3, 4}, true)
	require.NoError(t, tree.SetTable(1, 1, "Red 1"))
	require.NoError(t, tree.SetTable(1, 2, "Red 2"))

	data, err := PrepareBracketData(tree, "Open", Options{FirstRound: 1, RowsPerTeam: 4}, nil)
	require.NoError(t, err)

	assert.Equal(t, 19, data.NumRows)
	assert.Equal(t, MeetBottomOfCell, data.Style)
	require.Len(t, data.Columns, 3)

	first := data.Columns[0]
	require.Len(t, first.Cells, 4)
	assert.Equal(t, Cell{Round: 1, Line: 1, Row: 1, Occupant: bracket.Team(1), Table: "Red 1", TableRow: 2}, first.Cells[0])
	assert.Equal(t, Cell{Round: 1, Line: 2, Row: 5, Occupant: bracket.Team(4), Table: "Red 2", TableRow: 4}, first.Cells[1])
	assert.Equal(t, Bridge{Kind: BridgeTop}, first.Bridges[1])
	assert.Equal(t, Bridge{Kind: BridgeBottom}, first.Bridges[13])
	assert.NotContains(t, first.Bridges, 15)

	finals := data.Columns[1]
	assert.Len(t, finals.Cells, 4)
	assert.Equal(t, Bridge{Kind: BridgeTop}, finals.Bridges[15])
	assert.Equal(t, Bridge{Kind: BridgeBottom}, finals.Bridges[19])

	champion := data.Columns[2]
	assert.Len(t, champion.Cells, 2)
	assert.Empty(t, champion.Bridges)
	assert.Empty(t, champion.Labels)
}

func TestPrepareBracketDataLaterRounds(t *testing.T) {
	tree := buildTree(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, false)

	data, err := PrepareBracketData(tree, "Open", Options{FirstRound: 2, LastRound: 3, RowsPerTeam: 2}, nil)
	require.NoError(t, err)

	require.Len(t, data.Columns, 2)
	assert.Equal(t, 7, data.NumRows)
	assert.Equal(t, 1, data.Columns[0].Cells[0].Row)
	assert.Equal(t, 2, data.Columns[1].Cells[0].Row)

	// last displayed column draws no connectors
	assert.Empty(t, data.Columns[1].Bridges)
}

func TestPrepareBracketDataInvalidOptions(t *testing.T) {
	tree := buildTree(t, []int{1, 2}, false)
	_, err := PrepareBracketData(tree, "Open", Options{FirstRound: 1, RowsPerTeam: 1}, nil)
	assert.ErrorIs(t, err, ErrInvalidLayoutParameter)
}

func scoreTable(byRound map[int]map[int]RoundScore) ScoreFunc {
	return func(round, team int) (RoundScore, bool) {
		s, ok := byRound[round][team]
		return s, ok
	}
}

func TestPrepareBracketDataScores(t *testing.T) {
	tree := buildTree(t, []int{1, 2, 3}, false)
	_, err := tree.RecordWinner(1, 2, bracket.Team(3))
	require.NoError(t, err)

	scores := scoreTable(map[int]map[int]RoundScore{
		1: {1: {Total: 40}, 2: {NoShow: true}, 3: {Total: 12.5}},
		2: {1: {Total: 70}},
	})

	testCases := []struct {
		name        string
		finals      bool
		round, line int
		expected    *RoundScore
	}{
		{name: "team drawn against a bye", round: 1, line: 1},
		{name: "bye", round: 1, line: 2},
		{name: "scored team", round: 1, line: 3, expected: &RoundScore{Total: 12.5}},
		{name: "no-show", round: 1, line: 4, expected: &RoundScore{NoShow: true}},
		{name: "finals hidden by default", round: 2, line: 1},
		{name: "finals shown when asked", finals: true, round: 2, line: 1, expected: &RoundScore{Total: 70}},
		{name: "finals without a score", finals: true, round: 2, line: 2},
		{name: "champion never scored", finals: true, round: 3, line: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := Options{FirstRound: 1, RowsPerTeam: 2, ShowFinalScores: tc.finals}
			data, err := PrepareBracketData(tree, "Open", opts, scores)
			require.NoError(t, err)

			cell := data.Columns[tc.round-1].Cells[tc.line-1]
			require.Equal(t, tc.line, cell.Line)
			assert.Equal(t, tc.expected, cell.Score)
		})
	}
}

func TestScoreText(t *testing.T) {
	assert.Equal(t, "No Show", ScoreText(RoundScore{NoShow: true, Total: 9}))
	assert.Equal(t, "12.5", ScoreText(RoundScore{Total: 12.5}))
	assert.Equal(t, "40", ScoreText(RoundScore{Total: 40}))
}

func TestBracketTable(t *testing.T) {
	tree := buildTree(t, []int{1, 2, 3}, false)
	data, err := PrepareBracketData(tree, "Juniors & Co", Options{FirstRound: 1, RowsPerTeam: 4, Style: MeetTopOfCell}, nil)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, BracketTable(data).Render(context.Background(), &out))

	html := out.String()
	assert.Contains(t, html, `data-division="Juniors &amp; Co"`)
	assert.Contains(t, html, "<td class=\"team\">Team 1</td>")
	assert.Contains(t, html, "<td class=\"team\">BYE</td>")
	assert.Contains(t, html, `rowspan="5"`)
	assert.Contains(t, html, "Juniors &amp; Co Round 1 Match 2")
	assert.Equal(t, data.NumRows+1, strings.Count(html, "<tr>"))
}

func TestBracketTableScores(t *testing.T) {
	tree := buildTree(t, []int{1, 2, 3}, false)
	scores := scoreTable(map[int]map[int]RoundScore{
		1: {1: {Total: 40}, 2: {NoShow: true}, 3: {Total: 12.5}},
	})
	data, err := PrepareBracketData(tree, "Open", Options{FirstRound: 1, RowsPerTeam: 4}, scores)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, BracketTable(data).Render(context.Background(), &out))

	html := out.String()
	assert.Contains(t, html, `<td class="team">Team 3<span class="score">12.5</span></td>`)
	assert.Contains(t, html, `<td class="team">Team 2<span class="score">No Show</span></td>`)
	assert.Contains(t, html, `<td class="team">Team 1</td>`)
}
