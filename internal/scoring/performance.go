package scoring

import (
	"time"

	"github.com/google/uuid"
)

// Performance is one team's run at a table
type Performance struct {
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	TeamNumber   int       `db:"team_number" json:"team_number"`
	RunNumber    int       `db:"run_number" json:"run_number"`
	NoShow       bool      `db:"no_show" json:"no_show"`
	Verified     bool      `db:"verified" json:"verified"`
	RecordedAt   time.Time `db:"recorded_at" json:"recorded_at"`

	Goals map[string]float64 `db:"-" json:"goals"`
}
