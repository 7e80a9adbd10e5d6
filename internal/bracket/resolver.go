package bracket

import (
	"context"
	"fmt"
	"math"
)

// ScoreTolerance absorbs floating point noise when comparing totals
const ScoreTolerance = 1e-4

type WinnerType string

const (
	HighWins WinnerType = "high"
	LowWins  WinnerType = "low"
)

// ParseWinnerType accepts "high" or "low", case sensitive
func ParseWinnerType(s string) (WinnerType, error) {
	switch w := WinnerType(s); w {
	case HighWins, LowWins:
		return w, nil
	}
	return "", fmt.Errorf("unknown winner type %q", s)
}

// TiebreakTest is one configured tie breaker, evaluated only on equal totals
type TiebreakTest struct {
	ID     string
	Winner WinnerType
}

// Scorer is what the resolver needs from the scoring engine
type Scorer interface {
	ScoreExists(ctx context.Context, team, run int) (bool, error)
	IsNoShow(ctx context.Context, team, run int) (bool, error)
	TotalScore(ctx context.Context, team, run int) (float64, error)
	EvaluateTiebreakTest(ctx context.Context, testID string, team, run int) (float64, error)
	TiebreakTestOrder(ctx context.Context) ([]TiebreakTest, error)
}

type OutcomeStatus string

const (
	Undetermined OutcomeStatus = "undetermined"
	Decided      OutcomeStatus = "decided"
	Tied         OutcomeStatus = "tied"
)

// Outcome of a match. Winner is Tie when Status is Tied and Empty when
// Undetermined.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Winner Occupant      `json:"winner"`
	Loser  Occupant      `json:"loser"`
}

var undetermined = Outcome{Status: Undetermined}

func decided(winner, loser Occupant) Outcome {
	return Outcome{Status: Decided, Winner: winner, Loser: loser}
}

// Resolver decides matches from scores. It has no state beyond its
// configuration and never writes anything.
type Resolver struct {
	criterion WinnerType
	tolerance float64
}

func NewResolver(criterion WinnerType) *Resolver {
	if criterion == "" {
		criterion = HighWins
	}
	return &Resolver{criterion: criterion, tolerance: ScoreTolerance}
}

// Resolve picks the winner of a meeting a vs b in the given run.
// Rules in order: ties and empties are undetermined, byes lose, both scores
// must exist, a lone no-show loses, totals compare within the tolerance and
// finally the tie breakers run in their configured order.
func (r *Resolver) Resolve(ctx context.Context, scorer Scorer, a, b Occupant, run int) (Outcome, error) {
	switch {
	case a.IsEmpty() || b.IsEmpty() || a.IsTie() || b.IsTie():
		return undetermined, nil
	case a.IsBye():
		return decided(b, a), nil
	case b.IsBye():
		return decided(a, b), nil
	}
	teamA, _ := a.TeamNumber()
	teamB, _ := b.TeamNumber()

	for _, team := range []int{teamA, teamB} {
		exists, err := scorer.ScoreExists(ctx, team, run)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to check score for team %d run %d: %w", team, run, err)
		}
		if !exists {
			return undetermined, nil
		}
	}

	noShowA, err := scorer.IsNoShow(ctx, teamA, run)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to check no-show for team %d: %w", teamA, err)
	}
	noShowB, err := scorer.IsNoShow(ctx, teamB, run)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to check no-show for team %d: %w", teamB, err)
	}
	if noShowA && !noShowB {
		return decided(b, a), nil
	}
	if noShowB && !noShowA {
		return decided(a, b), nil
	}

	totalA, err := scorer.TotalScore(ctx, teamA, run)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get total for team %d: %w", teamA, err)
	}
	totalB, err := scorer.TotalScore(ctx, teamB, run)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get total for team %d: %w", teamB, err)
	}

	if math.Abs(totalA-totalB) > r.tolerance {
		if better(r.criterion, totalA, totalB) {
			return decided(a, b), nil
		}
		return decided(b, a), nil
	}

	return r.breakTie(ctx, scorer, a, b, run)
}

func (r *Resolver) breakTie(ctx context.Context, scorer Scorer, a, b Occupant, run int) (Outcome, error) {
	teamA, _ := a.TeamNumber()
	teamB, _ := b.TeamNumber()

	tests, err := scorer.TiebreakTestOrder(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get tie breakers: %w", err)
	}

	for _, test := range tests {
		valA, err := scorer.EvaluateTiebreakTest(ctx, test.ID, teamA, run)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to evaluate tie breaker %s for team %d: %w", test.ID, teamA, err)
		}
		valB, err := scorer.EvaluateTiebreakTest(ctx, test.ID, teamB, run)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to evaluate tie breaker %s for team %d: %w", test.ID, teamB, err)
		}

		// tie breakers compare exactly
		if valA == valB {
			continue
		}
		if better(test.Winner, valA, valB) {
			return decided(a, b), nil
		}
		return decided(b, a), nil
	}

	return Outcome{Status: Tied, Winner: Tie, Loser: Tie}, nil
}

func better(w WinnerType, x, y float64) bool {
	if w == LowWins {
		return x < y
	}
	return x > y
}
