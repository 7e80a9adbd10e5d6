package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidChallenge   = errors.New("invalid challenge description")
	ErrUnknownTiebreaker  = errors.New("unknown tie breaker")
	ErrPerformanceMissing = errors.New("performance not found")
)

// Challenge describes how a performance is scored
type Challenge struct {
	Title string `yaml:"title"`

	// WinnerCriteria is "high" (default) or "low"
	WinnerCriteria bracket.WinnerType `yaml:"winner_criteria"`

	// RequireVerified hides scores from the bracket until a judge verifies them
	RequireVerified bool `yaml:"require_verified"`

	Goals       []Goal       `yaml:"goals"`
	Tiebreakers []Tiebreaker `yaml:"tiebreakers"`
}

type Goal struct {
	Name       string  `yaml:"name"`
	Multiplier float64 `yaml:"multiplier"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
}

// Tiebreaker is a polynomial over raw goal values
type Tiebreaker struct {
	ID       string             `yaml:"id"`
	Winner   bracket.WinnerType `yaml:"winner"`
	Constant float64            `yaml:"constant"`
	Terms    []Term             `yaml:"terms"`
}

// Term is coefficient * goal^exponent; a zero exponent means 1
type Term struct {
	Goal        string  `yaml:"goal"`
	Coefficient float64 `yaml:"coefficient"`
	Exponent    float64 `yaml:"exponent"`
}

func LoadChallenge(path string) (*Challenge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge file: %w", err)
	}
	return ParseChallenge(data)
}

func ParseChallenge(data []byte) (*Challenge, error) {
	var c Challenge
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChallenge, err)
	}
	if c.WinnerCriteria == "" {
		c.WinnerCriteria = bracket.HighWins
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Challenge) Validate() error {
	if _, err := bracket.ParseWinnerType(string(c.WinnerCriteria)); err != nil {
		return fmt.Errorf("%w: winner_criteria: %v", ErrInvalidChallenge, err)
	}

	goals := make(map[string]bool, len(c.Goals))
	for _, g := range c.Goals {
		if g.Name == "" {
			return fmt.Errorf("%w: goal without a name", ErrInvalidChallenge)
		}
		if goals[g.Name] {
			return fmt.Errorf("%w: goal %q defined twice", ErrInvalidChallenge, g.Name)
		}
		if g.Max < g.Min {
			return fmt.Errorf("%w: goal %q has max below min", ErrInvalidChallenge, g.Name)
		}
		goals[g.Name] = true
	}

	ids := make(map[string]bool, len(c.Tiebreakers))
	for _, tb := range c.Tiebreakers {
		if tb.ID == "" || ids[tb.ID] {
			return fmt.Errorf("%w: tie breaker id %q is empty or repeated", ErrInvalidChallenge, tb.ID)
		}
		ids[tb.ID] = true
		if _, err := bracket.ParseWinnerType(string(tb.Winner)); err != nil {
			return fmt.Errorf("%w: tie breaker %s: %v", ErrInvalidChallenge, tb.ID, err)
		}
		for _, term := range tb.Terms {
			if !goals[term.Goal] {
				return fmt.Errorf("%w: tie breaker %s uses unknown goal %q", ErrInvalidChallenge, tb.ID, term.Goal)
			}
		}
	}
	return nil
}

// Total is the weighted sum of goal values. Values are clamped to the goal's
// range when one is set.
func (c *Challenge) Total(values map[string]float64) float64 {
	var total float64
	for _, g := range c.Goals {
		v := values[g.Name]
		if g.Max > g.Min {
			v = math.Min(math.Max(v, g.Min), g.Max)
		}
		total += g.Multiplier * v
	}
	return total
}

func (c *Challenge) Tiebreaker(id string) (Tiebreaker, error) {
	for _, tb := range c.Tiebreakers {
		if tb.ID == id {
			return tb, nil
		}
	}
	return Tiebreaker{}, fmt.Errorf("%w: %s", ErrUnknownTiebreaker, id)
}

// TiebreakTests lists the tie breakers in the order they are applied
func (c *Challenge) TiebreakTests() []bracket.TiebreakTest {
	tests := make([]bracket.TiebreakTest, 0, len(c.Tiebreakers))
	for _, tb := range c.Tiebreakers {
		tests = append(tests, bracket.TiebreakTest{ID: tb.ID, Winner: tb.Winner})
	}
	return tests
}

func (t Tiebreaker) Evaluate(values map[string]float64) float64 {
	result := t.Constant
	for _, term := range t.Terms {
		v := values[term.Goal]
		if term.Exponent != 0 && term.Exponent != 1 {
			v = math.Pow(v, term.Exponent)
		}
		result += term.Coefficient * v
	}
	return result
}
