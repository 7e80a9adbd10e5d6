package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/h2h-playoffs/internal/scoring"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ScoreStore struct {
	db *sqlx.DB
}

func NewScoreStore(db *sqlx.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

var _ scoring.PerformanceSource = (*ScoreStore)(nil)

type goalRow struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	TeamNumber   int       `db:"team_number"`
	RunNumber    int       `db:"run_number"`
	Goal         string    `db:"goal"`
	Value        float64   `db:"goal_value"`
}

// SavePerformance inserts or replaces a performance together with its goals
func (s *ScoreStore) SavePerformance(ctx context.Context, tx *sqlx.Tx, p *scoring.Performance) error {
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now().UTC()
	}

	_, err := tx.NamedExecContext(ctx, `INSERT INTO performances (tournament_id, team_number, run_number, no_show, verified, recorded_at)
		VALUES (:tournament_id, :team_number, :run_number, :no_show, :verified, :recorded_at)
		ON CONFLICT (tournament_id, team_number, run_number)
		DO UPDATE SET no_show = excluded.no_show, verified = excluded.verified, recorded_at = excluded.recorded_at`, p)
	if err != nil {
		return fmt.Errorf("failed to save performance: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM performance_goals WHERE tournament_id = ? AND team_number = ? AND run_number = ?`),
		p.TournamentID, p.TeamNumber, p.RunNumber)
	if err != nil {
		return fmt.Errorf("failed to clear goals: %w", err)
	}

	if len(p.Goals) == 0 {
		return nil
	}
	rows := make([]goalRow, 0, len(p.Goals))
	for goal, value := range p.Goals {
		rows = append(rows, goalRow{
			TournamentID: p.TournamentID,
			TeamNumber:   p.TeamNumber,
			RunNumber:    p.RunNumber,
			Goal:         goal,
			Value:        value,
		})
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO performance_goals (tournament_id, team_number, run_number, goal, goal_value)
		VALUES (:tournament_id, :team_number, :run_number, :goal, :goal_value)`, rows)
	if err != nil {
		return fmt.Errorf("failed to save goals: %w", err)
	}
	return nil
}

func (s *ScoreStore) GetPerformance(ctx context.Context, tournamentID uuid.UUID, team, run int) (*scoring.Performance, error) {
	var p scoring.Performance
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT tournament_id, team_number, run_number, no_show, verified, recorded_at
		FROM performances WHERE tournament_id = ? AND team_number = ? AND run_number = ?`), tournamentID, team, run)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: team %d run %d", scoring.ErrPerformanceMissing, team, run)
	}
	if err != nil {
		return nil, err
	}

	var goals []goalRow
	err = s.db.SelectContext(ctx, &goals, s.db.Rebind(`SELECT tournament_id, team_number, run_number, goal, goal_value
		FROM performance_goals WHERE tournament_id = ? AND team_number = ? AND run_number = ?`), tournamentID, team, run)
	if err != nil {
		return nil, err
	}

	p.Goals = make(map[string]float64, len(goals))
	for _, g := range goals {
		p.Goals[g.Goal] = g.Value
	}
	return &p, nil
}

func (s *ScoreStore) DeletePerformance(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, team, run int) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM performance_goals WHERE tournament_id = ? AND team_number = ? AND run_number = ?`),
		tournamentID, team, run); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM performances WHERE tournament_id = ? AND team_number = ? AND run_number = ?`),
		tournamentID, team, run)
	return err
}
