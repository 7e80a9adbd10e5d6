package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/google/uuid"
)

// PerformanceSource loads a stored performance with its goal values. A
// missing performance is reported as ErrPerformanceMissing.
type PerformanceSource interface {
	GetPerformance(ctx context.Context, tournamentID uuid.UUID, team, run int) (*Performance, error)
}

// Engine answers the bracket resolver's questions for one tournament.
// Lookups are memoized, so create one per resolution.
type Engine struct {
	challenge    *Challenge
	source       PerformanceSource
	tournamentID uuid.UUID

	mu    sync.Mutex
	cache map[[2]int]*Performance
}

var _ bracket.Scorer = (*Engine)(nil)

func NewEngine(challenge *Challenge, source PerformanceSource, tournamentID uuid.UUID) *Engine {
	return &Engine{
		challenge:    challenge,
		source:       source,
		tournamentID: tournamentID,
		cache:        make(map[[2]int]*Performance),
	}
}

// performance returns nil without error when the team has no usable score
func (e *Engine) performance(ctx context.Context, team, run int) (*Performance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := [2]int{team, run}
	if p, ok := e.cache[key]; ok {
		return p, nil
	}

	p, err := e.source.GetPerformance(ctx, e.tournamentID, team, run)
	if errors.Is(err, ErrPerformanceMissing) {
		p, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p != nil && e.challenge.RequireVerified && !p.Verified {
		p = nil
	}
	e.cache[key] = p
	return p, nil
}

func (e *Engine) mustPerformance(ctx context.Context, team, run int) (*Performance, error) {
	p, err := e.performance(ctx, team, run)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: team %d run %d", ErrPerformanceMissing, team, run)
	}
	return p, nil
}

func (e *Engine) ScoreExists(ctx context.Context, team, run int) (bool, error) {
	p, err := e.performance(ctx, team, run)
	return p != nil, err
}

func (e *Engine) IsNoShow(ctx context.Context, team, run int) (bool, error) {
	p, err := e.mustPerformance(ctx, team, run)
	if err != nil {
		return false, err
	}
	return p.NoShow, nil
}

// TotalScore is zero for a no-show
func (e *Engine) TotalScore(ctx context.Context, team, run int) (float64, error) {
	p, err := e.mustPerformance(ctx, team, run)
	if err != nil {
		return 0, err
	}
	if p.NoShow {
		return 0, nil
	}
	return e.challenge.Total(p.Goals), nil
}

func (e *Engine) EvaluateTiebreakTest(ctx context.Context, testID string, team, run int) (float64, error) {
	tb, err := e.challenge.Tiebreaker(testID)
	if err != nil {
		return 0, err
	}
	p, err := e.mustPerformance(ctx, team, run)
	if err != nil {
		return 0, err
	}
	return tb.Evaluate(p.Goals), nil
}

func (e *Engine) TiebreakTestOrder(_ context.Context) ([]bracket.TiebreakTest, error) {
	return e.challenge.TiebreakTests(), nil
}
