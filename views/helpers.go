package views

import (
	"fmt"
	"strconv"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
)

// OccupantName is the text shown for a slot occupant
func OccupantName(o bracket.Occupant) string {
	if n, ok := o.TeamNumber(); ok {
		return fmt.Sprintf("Team %d", n)
	}
	switch {
	case o.IsBye():
		return "BYE"
	case o.IsTie():
		return "TIE"
	}
	return ""
}

// ScoreText is the text shown for a round score
func ScoreText(s RoundScore) string {
	if s.NoShow {
		return "No Show"
	}
	return strconv.FormatFloat(s.Total, 'f', -1, 64)
}

type entryKind int

const (
	entryBlank entryKind = iota
	entryTeam
	entryScoredTeam
	entryTable
	entryLabel
)

// entry is what the team column of a round shows at one row
type entry struct {
	kind  entryKind
	text  string
	score string
}

func entryAt(col Column, row int) entry {
	if cell, ok := col.CellAt(row); ok {
		if cell.Score != nil {
			return entry{kind: entryScoredTeam, text: OccupantName(cell.Occupant), score: ScoreText(*cell.Score)}
		}
		return entry{kind: entryTeam, text: OccupantName(cell.Occupant)}
	}
	if cell, ok := col.TableAt(row); ok {
		return entry{kind: entryTable, text: cell.Table}
	}
	if label, ok := col.LabelAt(row); ok {
		return entry{kind: entryLabel, text: label.Text}
	}
	return entry{kind: entryBlank}
}
