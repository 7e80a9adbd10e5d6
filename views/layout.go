package views

import (
	"errors"
	"fmt"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
)

var ErrInvalidLayoutParameter = errors.New("invalid layout parameter")

// CornerStyle picks how the connector between a pair of rows is drawn
type CornerStyle string

const (
	// One tall cell spanning from the top row to the bottom row of a pair
	MeetTopOfCell CornerStyle = "top"
	// A top cell, middle cells and a bottom cell
	MeetBottomOfCell CornerStyle = "bottom"
)

type BridgeKind string

const (
	BridgeNone   BridgeKind = ""
	BridgeTop    BridgeKind = "bridge-top"
	BridgeMiddle BridgeKind = "bridge-middle"
	BridgeBottom BridgeKind = "bridge-bottom"
	BridgeSpan   BridgeKind = "bridge"
	// Row already covered by a spanning cell above it
	BridgeCovered BridgeKind = "covered"
)

type Bridge struct {
	Kind    BridgeKind `json:"kind"`
	RowSpan int        `json:"row_span,omitempty"`
}

func validRowsPerTeam(x int) error {
	if x < 2 || x%2 != 0 {
		return fmt.Errorf("%w: rows per team must be an even number of at least 2, got %d", ErrInvalidLayoutParameter, x)
	}
	return nil
}

// RowFor gets the display row of (round, line) when firstRound is the
// leftmost column and round 1 entries sit rowsPerTeam rows apart. Every
// later entry lands halfway between the two rows feeding it.
//
//	row = line·x·2^r − (x·2^(r−1) + x/2 − 1),  r = round − firstRound
func RowFor(round, line, firstRound, rowsPerTeam int) (int, error) {
	if err := validRowsPerTeam(rowsPerTeam); err != nil {
		return 0, err
	}
	if firstRound < 1 || round < firstRound || line < 1 {
		return 0, fmt.Errorf("%w: round %d line %d from round %d", ErrInvalidLayoutParameter, round, line, firstRound)
	}

	x := rowsPerTeam
	span := x << (round - firstRound)
	return line*span - (span/2 + x/2 - 1), nil
}

// BridgeResidue places a row relative to the pair brackets of a column at
// depth r: 0 is a pair's top row, x·2^r its bottom row, values in between
// are inside the bracket and anything larger is outside every bracket.
func BridgeResidue(row, depth, rowsPerTeam int) int {
	x := rowsPerTeam
	span := x << depth
	period := span * 2
	return (row + period - span/2 + x/2 - 1) % period
}

// Options for laying out a bracket
type Options struct {
	FirstRound  int         `json:"first_round"`
	LastRound   int         `json:"last_round"`
	RowsPerTeam int         `json:"rows_per_team"`
	Style       CornerStyle `json:"style"`

	// Scores in the finals round are only shown when set
	ShowFinalScores bool `json:"show_final_scores"`
}

// Layout maps bracket coordinates of one tree onto grid rows
type Layout struct {
	Options

	finalsRound   int
	championRound int
	thirdPlace    bool

	// main bracket slots in the first displayed round
	leaves int
}

func NewLayout(tree *bracket.Tree, opts Options) (*Layout, error) {
	if err := validRowsPerTeam(opts.RowsPerTeam); err != nil {
		return nil, err
	}
	if opts.Style == "" {
		opts.Style = MeetBottomOfCell
	}
	if opts.Style != MeetTopOfCell && opts.Style != MeetBottomOfCell {
		return nil, fmt.Errorf("%w: unknown corner style %q", ErrInvalidLayoutParameter, opts.Style)
	}
	if opts.LastRound == 0 {
		opts.LastRound = tree.ChampionRound()
	}
	if opts.FirstRound < bracket.FirstRound || opts.LastRound < opts.FirstRound || opts.LastRound > tree.ChampionRound() {
		return nil, fmt.Errorf("%w: rounds %d to %d of a bracket with %d rounds",
			ErrInvalidLayoutParameter, opts.FirstRound, opts.LastRound, tree.ChampionRound())
	}

	return &Layout{
		Options:       opts,
		finalsRound:   tree.FinalsRound(),
		championRound: tree.ChampionRound(),
		thirdPlace:    tree.ThirdPlace(),
		leaves:        tree.Size() >> (opts.FirstRound - 1),
	}, nil
}

// consolationTop is the first row of the third place pair, two rows under
// the main bracket
func (l *Layout) consolationTop() int {
	return 3 + (l.leaves-1)*l.RowsPerTeam
}

func (l *Layout) inConsolation(row int) bool {
	return l.thirdPlace && row > 1+(l.leaves-1)*l.RowsPerTeam
}

// Row is RowFor with the third place pair moved below the main bracket
func (l *Layout) Row(round, line int) (int, error) {
	if l.thirdPlace {
		switch {
		case round == l.finalsRound && line > 2:
			return l.consolationTop() + (line-3)*l.RowsPerTeam, nil
		case round == l.championRound && line == 2:
			return l.consolationTop() + l.RowsPerTeam/2, nil
		}
	}
	return RowFor(round, line, l.FirstRound, l.RowsPerTeam)
}

// Bridge describes the connector cell to the right of a round's column
func (l *Layout) Bridge(round, row int) Bridge {
	if round < l.FirstRound || round > l.finalsRound || round >= l.LastRound || row < 1 {
		return Bridge{}
	}
	x := l.RowsPerTeam

	if l.inConsolation(row) {
		if round != l.finalsRound {
			return Bridge{}
		}
		top := l.consolationTop()
		if row < top || row > top+x {
			return Bridge{}
		}
		return l.styled(row-top, x)
	}

	depth := round - l.FirstRound
	span := x << depth
	residue := BridgeResidue(row, depth, x)
	if residue > span {
		return Bridge{}
	}
	return l.styled(residue, span)
}

func (l *Layout) styled(offset, span int) Bridge {
	if l.Style == MeetTopOfCell {
		if offset == 0 {
			return Bridge{Kind: BridgeSpan, RowSpan: span + 1}
		}
		return Bridge{Kind: BridgeCovered}
	}
	switch offset {
	case 0:
		return Bridge{Kind: BridgeTop}
	case span:
		return Bridge{Kind: BridgeBottom}
	}
	return Bridge{Kind: BridgeMiddle}
}

// IsBridgeTop reports whether the row starts a connector
func (l *Layout) IsBridgeTop(round, row int) bool {
	k := l.Bridge(round, row).Kind
	return k == BridgeTop || k == BridgeSpan
}

// IsBridgeBottom reports whether the row ends a connector drawn in pieces
func (l *Layout) IsBridgeBottom(round, row int) bool {
	return l.Bridge(round, row).Kind == BridgeBottom
}

type Label struct {
	Row  int    `json:"row"`
	Text string `json:"text"`
}

// Labels numbers the matches of a round from 1, placed halfway between the
// two rows of each pair. A finals round with third place gets placing names.
func (l *Layout) Labels(tree *bracket.Tree, round int, division string) ([]Label, error) {
	var labels []Label
	for m := 1; m <= tree.MatchesInRound(round); m++ {
		top, err := l.Row(round, 2*m-1)
		if err != nil {
			return nil, err
		}
		bottom, err := l.Row(round, 2*m)
		if err != nil {
			return nil, err
		}

		text := fmt.Sprintf("%s Round %d Match %d", division, round, m)
		if l.thirdPlace && round == l.finalsRound {
			text = "1st/2nd Place"
			if m == 2 {
				text = "3rd/4th Place"
			}
		}
		labels = append(labels, Label{Row: top + (bottom-top)/2, Text: text})
	}
	return labels, nil
}

// TableRow places a slot's table assignment one row inside its pair, or 0
// when entries are too close together to fit it.
func (l *Layout) TableRow(round, line int) (int, error) {
	if l.RowsPerTeam < 4 {
		return 0, nil
	}
	row, err := l.Row(round, line)
	if err != nil {
		return 0, err
	}
	if line%2 == 1 {
		return row + 1, nil
	}
	return row - 1, nil
}
