package bracket

import (
	"time"

	"github.com/google/uuid"
)

// ID names one playoff bracket. A tournament can run a bracket per division.
type ID struct {
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Division     string    `db:"division" json:"division"`
}

type Bracket struct {
	ID
	Size       int  `db:"bracket_size" json:"bracket_size"`
	ThirdPlace bool `db:"third_place" json:"third_place"`

	// FirstRun is the performance run number scored in round 1; round r
	// plays run FirstRun+r-1
	FirstRun  int       `db:"first_run" json:"first_run"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RunForRound is the performance run a round's matches are scored from
func (b Bracket) RunForRound(round int) int {
	return b.FirstRun + round - 1
}

// Slot is one cell of the bracket: round r, line l (both 1-based).
type Slot struct {
	Round    int      `json:"round"`
	Line     int      `json:"line"`
	Occupant Occupant `json:"occupant"`

	// Table is the playing table assigned for the match this slot takes part in
	Table string `json:"table,omitempty"`
}

// MatchRef identifies a match by the round it's played in and its 1-based
// position within that round.
type MatchRef struct {
	Round int `json:"round"`
	Match int `json:"match"`
}

// Lines returns the two slot lines that meet in the match
func (m MatchRef) Lines() (int, int) {
	return 2*m.Match - 1, 2 * m.Match
}

// MatchNumber is the match a round line plays in
func MatchNumber(line int) int {
	return (line + 1) / 2
}

// SiblingLine is the line a slot is paired against
func SiblingLine(line int) int {
	if line%2 == 0 {
		return line - 1
	}
	return line + 1
}

// NextLine is the line the winner of a slot's match advances to
func NextLine(line int) int {
	return (line + 1) / 2
}

// ThirdPlaceLine maps a semifinal line to the finals-round line its loser moves to
func ThirdPlaceLine(semifinalLine int) int {
	return (semifinalLine + 5) / 2
}

// SemifinalLine is the inverse of ThirdPlaceLine; it gives the odd line of the pair
func SemifinalLine(thirdPlaceLine int) int {
	return 2*thirdPlaceLine - 5
}
