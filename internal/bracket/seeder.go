package bracket

import "fmt"

// Seed lays out ranked competitors (best first) as the round 1 order of a
// bracket. Slots whose seed rank exceeds the field size become byes.
func Seed(ranked []int) ([]Occupant, error) {
	size, err := BracketSizeFor(len(ranked))
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(ranked))
	for _, team := range ranked {
		if _, dup := seen[team]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateCompetitor, team)
		}
		seen[team] = struct{}{}
	}

	table, err := SeedOrder(size)
	if err != nil {
		return nil, err
	}

	order := make([]Occupant, 0, size)
	for _, rank := range table {
		if rank > len(ranked) {
			order = append(order, Bye)
		} else {
			order = append(order, Team(ranked[rank-1]))
		}
	}
	return order, nil
}
