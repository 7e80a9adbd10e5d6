package views

import (
	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
)

// Cell is one slot positioned on the grid
type Cell struct {
	Round    int              `json:"round"`
	Line     int              `json:"line"`
	Row      int              `json:"row"`
	Occupant bracket.Occupant `json:"occupant"`
	Table    string           `json:"table,omitempty"`
	TableRow int              `json:"table_row,omitempty"`
	Score    *RoundScore      `json:"score,omitempty"`
}

// RoundScore is a team's result in the run its round is scored from
type RoundScore struct {
	Total  float64 `json:"total"`
	NoShow bool    `json:"no_show,omitempty"`
}

// ScoreFunc looks up the score a team posted for a round. It reports false
// when nothing usable has been recorded.
type ScoreFunc func(round, team int) (RoundScore, bool)

type Column struct {
	Round   int            `json:"round"`
	Cells   []Cell         `json:"cells"`
	Labels  []Label        `json:"labels"`
	Bridges map[int]Bridge `json:"bridges"`
}

// BracketData is everything a renderer needs to draw a bracket as a table
// of NumRows rows with one team column and one bridge column per round.
type BracketData struct {
	Division    string      `json:"division"`
	RowsPerTeam int         `json:"rows_per_team"`
	Style       CornerStyle `json:"style"`
	NumRows     int         `json:"num_rows"`
	Columns     []Column    `json:"columns"`
}

// PrepareBracketData positions every displayed slot of tree on the grid.
// scores may be nil, in which case no cell carries a score.
func PrepareBracketData(tree *bracket.Tree, division string, opts Options, scores ScoreFunc) (BracketData, error) {
	layout, err := NewLayout(tree, opts)
	if err != nil {
		return BracketData{}, err
	}

	data := BracketData{
		Division:    division,
		RowsPerTeam: layout.RowsPerTeam,
		Style:       layout.Style,
	}

	for round := layout.FirstRound; round <= layout.LastRound; round++ {
		col := Column{Round: round, Bridges: make(map[int]Bridge)}

		for line := 1; line <= tree.SlotsInRound(round); line++ {
			slot, err := tree.Slot(round, line)
			if err != nil {
				return BracketData{}, err
			}
			row, err := layout.Row(round, line)
			if err != nil {
				return BracketData{}, err
			}
			cell := Cell{Round: round, Line: line, Row: row, Occupant: slot.Occupant}
			if cell.Score, err = scoreFor(tree, layout.Options, scores, slot); err != nil {
				return BracketData{}, err
			}
			if slot.Table != "" {
				cell.Table = slot.Table
				if cell.TableRow, err = layout.TableRow(round, line); err != nil {
					return BracketData{}, err
				}
			}
			col.Cells = append(col.Cells, cell)
			data.NumRows = max(data.NumRows, row, cell.TableRow)
		}

		if col.Labels, err = layout.Labels(tree, round, division); err != nil {
			return BracketData{}, err
		}
		data.Columns = append(data.Columns, col)
	}

	for i := range data.Columns {
		col := &data.Columns[i]
		for row := 1; row <= data.NumRows; row++ {
			if b := layout.Bridge(col.Round, row); b.Kind != BridgeNone {
				col.Bridges[row] = b
			}
		}
	}

	return data, nil
}

// scoreFor is the score shown beside a slot. Champion slots, teams drawn
// against a bye and, unless asked for, the finals show none.
func scoreFor(tree *bracket.Tree, opts Options, scores ScoreFunc, slot bracket.Slot) (*RoundScore, error) {
	team, ok := slot.Occupant.TeamNumber()
	if scores == nil || !ok || slot.Round > tree.FinalsRound() {
		return nil, nil
	}
	if slot.Round == tree.FinalsRound() && !opts.ShowFinalScores {
		return nil, nil
	}

	opponent, err := tree.Slot(slot.Round, bracket.SiblingLine(slot.Line))
	if err != nil {
		return nil, err
	}
	if opponent.Occupant.IsBye() {
		return nil, nil
	}
	if score, ok := scores(slot.Round, team); ok {
		return &score, nil
	}
	return nil, nil
}

// CellAt finds the cell drawn at a row of a column
func (c Column) CellAt(row int) (Cell, bool) {
	for _, cell := range c.Cells {
		if cell.Row == row {
			return cell, true
		}
	}
	return Cell{}, false
}

// TableAt finds the cell whose table assignment is shown at a row
func (c Column) TableAt(row int) (Cell, bool) {
	for _, cell := range c.Cells {
		if cell.TableRow == row && cell.Table != "" {
			return cell, true
		}
	}
	return Cell{}, false
}

// LabelAt finds the match label shown at a row
func (c Column) LabelAt(row int) (Label, bool) {
	for _, l := range c.Labels {
		if l.Row == row {
			return l, true
		}
	}
	return Label{}, false
}
