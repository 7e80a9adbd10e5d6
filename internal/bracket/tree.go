package bracket

import (
	"fmt"
	"math/bits"
	"sort"
)

const FirstRound = 1

// Tree is the in-memory single-elimination bracket. Slots live in an arena
// indexed by round and line, so pairs are found by arithmetic only.
type Tree struct {
	size        int
	thirdPlace  bool
	finalsRound int
	rounds      [][]Slot
	populated   bool
}

// NewTree allocates empty slots for every round of a bracket of the given
// size. Third place is ignored for a 2-slot bracket since there are no
// semifinal losers.
func NewTree(size int, thirdPlace bool) (*Tree, error) {
	if !isSupportedSize(size) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBracketSize, size)
	}

	finals := bits.TrailingZeros(uint(size))
	t := &Tree{
		size:        size,
		thirdPlace:  thirdPlace && finals >= 2,
		finalsRound: finals,
	}

	for r := FirstRound; r <= t.ChampionRound(); r++ {
		slots := make([]Slot, t.SlotsInRound(r))
		for i := range slots {
			slots[i] = Slot{Round: r, Line: i + 1}
		}
		t.rounds = append(t.rounds, slots)
	}
	return t, nil
}

// Build seeds the ranked teams, fills round 1 and runs the bye cascade
func Build(ranked []int, thirdPlace bool) (*Tree, error) {
	order, err := Seed(ranked)
	if err != nil {
		return nil, err
	}
	return BuildFromOrder(order, thirdPlace)
}

// BuildFromOrder is Build for a round 1 order that is already seeded
func BuildFromOrder(order []Occupant, thirdPlace bool) (*Tree, error) {
	t, err := NewTree(len(order), thirdPlace)
	if err != nil {
		return nil, err
	}
	if err := t.PopulateRound1(order); err != nil {
		return nil, err
	}
	t.AdvanceByes()
	return t, nil
}

// LoadTree rebuilds a tree from stored slots. Anything inconsistent is
// reported as ErrBracketCorruption and never repaired.
func LoadTree(size int, thirdPlace bool, slots []Slot) (*Tree, error) {
	t, err := NewTree(size, thirdPlace)
	if err != nil {
		return nil, err
	}

	seen := make(map[[2]int]struct{}, len(slots))
	for _, s := range slots {
		dst, err := t.slot(s.Round, s.Line)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBracketCorruption, err)
		}
		key := [2]int{s.Round, s.Line}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: round %d line %d stored twice", ErrBracketCorruption, s.Round, s.Line)
		}
		seen[key] = struct{}{}
		dst.Occupant = s.Occupant
		dst.Table = s.Table
	}

	if err := checkPairs(slots, t.finalsRound); err != nil {
		return nil, err
	}

	total := 0
	for _, round := range t.rounds {
		total += len(round)
	}
	if len(seen) != total {
		return nil, fmt.Errorf("%w: %d of %d slots stored", ErrBracketCorruption, len(seen), total)
	}

	if err := t.checkAdvancement(); err != nil {
		return nil, err
	}

	for _, s := range t.rounds[0] {
		if !s.Occupant.IsEmpty() {
			t.populated = true
			break
		}
	}
	return t, nil
}

// checkPairs walks the match rounds in (round, line) order and makes sure
// every consecutive two slots form a pair.
func checkPairs(slots []Slot, finalsRound int) error {
	var match []Slot
	for _, s := range slots {
		if s.Round <= finalsRound {
			match = append(match, s)
		}
	}
	sort.Slice(match, func(i, j int) bool {
		if match[i].Round != match[j].Round {
			return match[i].Round < match[j].Round
		}
		return match[i].Line < match[j].Line
	})

	for i := 0; i < len(match); i += 2 {
		if i+1 >= len(match) {
			return fmt.Errorf("%w: round %d line %d has no partner", ErrBracketCorruption, match[i].Round, match[i].Line)
		}
		first, second := match[i], match[i+1]
		if first.Round != second.Round {
			return fmt.Errorf("%w: pair spans rounds %d and %d", ErrBracketCorruption, first.Round, second.Round)
		}
		if first.Line%2 != 1 || first.Line+1 != second.Line {
			return fmt.Errorf("%w: round %d lines %d and %d are not a pair", ErrBracketCorruption, first.Round, first.Line, second.Line)
		}
	}
	return nil
}

// checkAdvancement verifies that every team past round 1 came out of the
// match feeding its slot.
func (t *Tree) checkAdvancement() error {
	for r := FirstRound + 1; r <= t.ChampionRound(); r++ {
		for _, s := range t.rounds[r-1] {
			team, ok := s.Occupant.TeamNumber()
			if !ok {
				continue
			}
			src := t.sourceMatch(s.Round, s.Line)
			a, b, _ := t.Pair(src.Round, src.Match)
			if a != Team(team) && b != Team(team) {
				return fmt.Errorf("%w: team %d in round %d line %d did not play round %d match %d",
					ErrBracketCorruption, team, s.Round, s.Line, src.Round, src.Match)
			}
		}
	}
	return nil
}

// sourceMatch is the match whose result lands in the slot
func (t *Tree) sourceMatch(round, line int) MatchRef {
	if t.thirdPlace && round == t.finalsRound && line > 2 {
		return MatchRef{Round: t.SemifinalsRound(), Match: MatchNumber(SemifinalLine(line))}
	}
	return MatchRef{Round: round - 1, Match: line}
}

func (t *Tree) Size() int             { return t.size }
func (t *Tree) ThirdPlace() bool      { return t.thirdPlace }
func (t *Tree) FinalsRound() int      { return t.finalsRound }
func (t *Tree) SemifinalsRound() int  { return t.finalsRound - 1 }
func (t *Tree) ChampionRound() int    { return t.finalsRound + 1 }
func (t *Tree) Round1Populated() bool { return t.populated }

// SlotsInRound gets the slot count of a round, 0 outside the bracket. With
// third place on, the finals and champion rounds carry an extra pair/slot.
func (t *Tree) SlotsInRound(round int) int {
	if round < FirstRound || round > t.ChampionRound() {
		return 0
	}
	n := t.size >> (round - 1)
	if t.thirdPlace && round >= t.finalsRound {
		n *= 2
	}
	return n
}

// MatchesInRound is the number of matches played in a round
func (t *Tree) MatchesInRound(round int) int {
	if round > t.finalsRound {
		return 0
	}
	return t.SlotsInRound(round) / 2
}

func (t *Tree) slot(round, line int) (*Slot, error) {
	if line < 1 || line > t.SlotsInRound(round) {
		return nil, fmt.Errorf("%w: round %d line %d", ErrInvalidSlot, round, line)
	}
	return &t.rounds[round-1][line-1], nil
}

// Slot returns a copy of the slot at (round, line)
func (t *Tree) Slot(round, line int) (Slot, error) {
	s, err := t.slot(round, line)
	if err != nil {
		return Slot{}, err
	}
	return *s, nil
}

// Slots lists every slot ordered by round then line
func (t *Tree) Slots() []Slot {
	var out []Slot
	for _, round := range t.rounds {
		out = append(out, round...)
	}
	return out
}

// SetTable records the table assigned to a slot
func (t *Tree) SetTable(round, line int, table string) error {
	s, err := t.slot(round, line)
	if err != nil {
		return err
	}
	s.Table = table
	return nil
}

func (t *Tree) pairSlots(round, match int) (*Slot, *Slot, error) {
	if round < FirstRound || round > t.finalsRound || match < 1 || match > t.MatchesInRound(round) {
		return nil, nil, fmt.Errorf("%w: round %d match %d", ErrInvalidSlot, round, match)
	}
	l1, l2 := MatchRef{Round: round, Match: match}.Lines()
	return &t.rounds[round-1][l1-1], &t.rounds[round-1][l2-1], nil
}

// Pair returns the two occupants meeting in a match
func (t *Tree) Pair(round, match int) (Occupant, Occupant, error) {
	a, b, err := t.pairSlots(round, match)
	if err != nil {
		return Empty, Empty, err
	}
	return a.Occupant, b.Occupant, nil
}

func (t *Tree) destination(round, match int) *Slot {
	return &t.rounds[round][match-1]
}

// Destination is the slot the winner of a match moves into
func (t *Tree) Destination(round, match int) (Slot, error) {
	if _, _, err := t.pairSlots(round, match); err != nil {
		return Slot{}, err
	}
	return *t.destination(round, match), nil
}

// loserSlot is the third place slot for a semifinal, nil for every other match
func (t *Tree) loserSlot(round, match int) *Slot {
	if !t.thirdPlace || round != t.SemifinalsRound() {
		return nil
	}
	return &t.rounds[t.finalsRound-1][ThirdPlaceLine(2*match)-1]
}

// PopulateRound1 fills round 1 from a seeded order. It can only happen once.
func (t *Tree) PopulateRound1(order []Occupant) error {
	if t.populated {
		return ErrRound1Populated
	}
	if len(order) != t.size {
		return fmt.Errorf("%w: got %d entries for a bracket of %d", ErrInvalidRound1Order, len(order), t.size)
	}
	for i, o := range order {
		if o.IsEmpty() || o.IsTie() {
			return fmt.Errorf("%w: line %d holds %s", ErrInvalidRound1Order, i+1, o)
		}
	}

	for i, o := range order {
		t.rounds[0][i].Occupant = o
	}
	t.populated = true
	return nil
}

// AdvanceByes moves every occupant paired against a bye into the next round
// and repeats full scans until one makes no change, so chains of byes carry
// a team through several rounds. A bye against a bye advances a bye. A tie
// facing a bye waits until the tie is ruled on.
// It returns the slots it filled.
func (t *Tree) AdvanceByes() []Slot {
	var changed []Slot
	for {
		progress := false
		for r := FirstRound; r <= t.finalsRound; r++ {
			for m := 1; m <= t.MatchesInRound(r); m++ {
				a, b, _ := t.pairSlots(r, m)
				if a.Occupant.IsEmpty() || b.Occupant.IsEmpty() || a.Occupant.IsTie() || b.Occupant.IsTie() {
					continue
				}
				if !a.Occupant.IsBye() && !b.Occupant.IsBye() {
					continue
				}

				dest := t.destination(r, m)
				if !dest.Occupant.IsEmpty() {
					continue
				}
				winner, loser := b.Occupant, a.Occupant
				if b.Occupant.IsBye() {
					winner, loser = a.Occupant, b.Occupant
				}

				dest.Occupant = winner
				changed = append(changed, *dest)
				// only reachable when a semifinal has a bye, i.e. three teams with third place
				if ls := t.loserSlot(r, m); ls != nil && ls.Occupant.IsEmpty() {
					ls.Occupant = loser
					changed = append(changed, *ls)
				}
				progress = true
			}
		}
		if !progress {
			return changed
		}
	}
}

// RecordWinner writes a match result into the next round. The destination
// (and the third place slot for a semifinal) must still be empty. A Tie
// winner is written as Tie to both. The bye cascade runs afterwards and the
// returned slots include whatever it filled.
func (t *Tree) RecordWinner(round, match int, winner Occupant) ([]Slot, error) {
	a, b, err := t.pairSlots(round, match)
	if err != nil {
		return nil, err
	}
	if a.Occupant.IsEmpty() || b.Occupant.IsEmpty() {
		return nil, fmt.Errorf("%w: round %d match %d", ErrMatchNotReady, round, match)
	}

	loser, err := loserOf(a.Occupant, b.Occupant, winner)
	if err != nil {
		return nil, fmt.Errorf("round %d match %d: %w", round, match, err)
	}

	dest := t.destination(round, match)
	if !dest.Occupant.IsEmpty() {
		return nil, fmt.Errorf("%w: round %d line %d holds %s", ErrSlotAlreadyOccupied, dest.Round, dest.Line, dest.Occupant)
	}
	ls := t.loserSlot(round, match)
	if ls != nil && !ls.Occupant.IsEmpty() {
		return nil, fmt.Errorf("%w: round %d line %d holds %s", ErrSlotAlreadyOccupied, ls.Round, ls.Line, ls.Occupant)
	}

	dest.Occupant = winner
	changed := []Slot{*dest}
	if ls != nil {
		ls.Occupant = loser
		changed = append(changed, *ls)
	}
	return append(changed, t.AdvanceByes()...), nil
}

// ReplaceTie overwrites a Tie result once the match has been decided
func (t *Tree) ReplaceTie(round, match int, winner Occupant) ([]Slot, error) {
	a, b, err := t.pairSlots(round, match)
	if err != nil {
		return nil, err
	}
	if winner.IsTie() {
		return nil, fmt.Errorf("%w: round %d match %d is still tied", ErrNotInMatch, round, match)
	}
	loser, err := loserOf(a.Occupant, b.Occupant, winner)
	if err != nil {
		return nil, fmt.Errorf("round %d match %d: %w", round, match, err)
	}

	dest := t.destination(round, match)
	if !dest.Occupant.IsTie() {
		return nil, fmt.Errorf("%w: round %d line %d holds %s, not a tie", ErrSlotAlreadyOccupied, dest.Round, dest.Line, dest.Occupant)
	}

	dest.Occupant = winner
	changed := []Slot{*dest}
	if ls := t.loserSlot(round, match); ls != nil && ls.Occupant.IsTie() {
		ls.Occupant = loser
		changed = append(changed, *ls)
	}
	return append(changed, t.AdvanceByes()...), nil
}

func loserOf(a, b, winner Occupant) (Occupant, error) {
	switch winner {
	case Tie:
		return Tie, nil
	case a:
		return b, nil
	case b:
		return a, nil
	}
	return Empty, fmt.Errorf("%w: %s", ErrNotInMatch, winner)
}

// Champion is the occupant of the top champion slot, Empty until decided
func (t *Tree) Champion() Occupant {
	return t.rounds[t.finalsRound][0].Occupant
}

// ThirdPlaceWinner is Empty when third place is off or undecided
func (t *Tree) ThirdPlaceWinner() Occupant {
	if !t.thirdPlace {
		return Empty
	}
	return t.rounds[t.finalsRound][1].Occupant
}

// IsFinished reports whether every placing the bracket awards is decided
func (t *Tree) IsFinished() bool {
	for _, s := range t.rounds[t.finalsRound] {
		if s.Occupant.IsEmpty() || s.Occupant.IsTie() {
			return false
		}
	}
	return true
}

// HasTie reports whether any slot holds an unresolved tie
func (t *Tree) HasTie() bool {
	for _, round := range t.rounds {
		for _, s := range round {
			if s.Occupant.IsTie() {
				return true
			}
		}
	}
	return false
}

// PendingMatches lists matches with both sides known and no result yet.
// Matches whose result is a Tie are included since they still need a ruling,
// matches waiting on a tied side are not.
func (t *Tree) PendingMatches() []MatchRef {
	var out []MatchRef
	for r := FirstRound; r <= t.finalsRound; r++ {
		for m := 1; m <= t.MatchesInRound(r); m++ {
			a, b, _ := t.pairSlots(r, m)
			if !a.Occupant.IsTeam() || !b.Occupant.IsTeam() {
				continue
			}
			if dest := t.destination(r, m); dest.Occupant.IsEmpty() || dest.Occupant.IsTie() {
				out = append(out, MatchRef{Round: r, Match: m})
			}
		}
	}
	return out
}
