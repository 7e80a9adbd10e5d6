package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/AdamBeresnev/h2h-playoffs/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrBracketNotFound = errors.New("playoff bracket not found")

type PlayoffStore struct {
	db *sqlx.DB
}

func NewPlayoffStore(db *sqlx.DB) *PlayoffStore {
	return &PlayoffStore{db: db}
}

// slotRow is how a slot is kept in playoff_slots
type slotRow struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	Division     string    `db:"division"`
	Round        int       `db:"playoff_round"`
	Line         int       `db:"line_number"`
	Occupant     string    `db:"occupant"`
	TeamNumber   *int      `db:"team_number"`
	Table        *string   `db:"assigned_table"`
}

func toSlotRow(id bracket.ID, s bracket.Slot) slotRow {
	team, isTeam := s.Occupant.TeamNumber()
	return slotRow{
		TournamentID: id.TournamentID,
		Division:     id.Division,
		Round:        s.Round,
		Line:         s.Line,
		Occupant:     s.Occupant.Kind().String(),
		TeamNumber:   utils.IfOK(team, isTeam),
		Table:        utils.TrimmedOrNil(s.Table),
	}
}

func (r slotRow) toSlot() (bracket.Slot, error) {
	kind, ok := bracket.ParseOccupantKind(r.Occupant)
	if !ok {
		return bracket.Slot{}, fmt.Errorf("%w: round %d line %d has occupant %q", bracket.ErrBracketCorruption, r.Round, r.Line, r.Occupant)
	}

	slot := bracket.Slot{Round: r.Round, Line: r.Line, Table: utils.Deref(r.Table, "")}
	switch kind {
	case bracket.KindTeam:
		if r.TeamNumber == nil {
			return bracket.Slot{}, fmt.Errorf("%w: round %d line %d has no team number", bracket.ErrBracketCorruption, r.Round, r.Line)
		}
		slot.Occupant = bracket.Team(*r.TeamNumber)
	case bracket.KindBye:
		slot.Occupant = bracket.Bye
	case bracket.KindTie:
		slot.Occupant = bracket.Tie
	}
	return slot, nil
}

func (s *PlayoffStore) CreateBracket(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO playoff_brackets (tournament_id, division, bracket_size, third_place, first_run, created_at)
        VALUES (:tournament_id, :division, :bracket_size, :third_place, :first_run, :created_at)`, b)
	return err
}

func (s *PlayoffStore) CreateSlots(ctx context.Context, tx *sqlx.Tx, id bracket.ID, slots []bracket.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	rows := make([]slotRow, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, toSlotRow(id, slot))
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO playoff_slots (tournament_id, division, playoff_round, line_number, occupant, team_number, assigned_table)
		VALUES (:tournament_id, :division, :playoff_round, :line_number, :occupant, :team_number, :assigned_table)`, rows)
	return err
}

// GetBracket reads through q, which is the store's DB or an open transaction
func (s *PlayoffStore) GetBracket(ctx context.Context, q sqlx.QueryerContext, id bracket.ID) (*bracket.Bracket, error) {
	if q == nil {
		q = s.db
	}
	var b bracket.Bracket
	err := sqlx.GetContext(ctx, q, &b, s.db.Rebind(`SELECT tournament_id, division, bracket_size, third_place, first_run, created_at
		FROM playoff_brackets WHERE tournament_id = ? AND division = ?`), id.TournamentID, id.Division)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrBracketNotFound, id.TournamentID, id.Division)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PlayoffStore) ListBrackets(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Bracket, error) {
	var brackets []bracket.Bracket
	err := s.db.SelectContext(ctx, &brackets, s.db.Rebind(`SELECT tournament_id, division, bracket_size, third_place, first_run, created_at
		FROM playoff_brackets WHERE tournament_id = ? ORDER BY division ASC`), tournamentID)
	return brackets, err
}

// GetSlots returns all slots of a bracket in round then line order
func (s *PlayoffStore) GetSlots(ctx context.Context, q sqlx.QueryerContext, id bracket.ID) ([]bracket.Slot, error) {
	if q == nil {
		q = s.db
	}
	var rows []slotRow
	err := sqlx.SelectContext(ctx, q, &rows, s.db.Rebind(`SELECT tournament_id, division, playoff_round, line_number, occupant, team_number, assigned_table
		FROM playoff_slots WHERE tournament_id = ? AND division = ?
		ORDER BY playoff_round ASC, line_number ASC`), id.TournamentID, id.Division)
	if err != nil {
		return nil, err
	}

	slots := make([]bracket.Slot, 0, len(rows))
	for _, r := range rows {
		slot, err := r.toSlot()
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// UpdateSlot writes a slot's occupant only if the stored occupant is still
// of kind from. When another writer got there first nothing matches and
// the result is ErrSlotAlreadyOccupied.
func (s *PlayoffStore) UpdateSlot(ctx context.Context, tx *sqlx.Tx, id bracket.ID, slot bracket.Slot, from bracket.OccupantKind) error {
	row := toSlotRow(id, slot)
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE playoff_slots SET occupant = ?, team_number = ?
		WHERE tournament_id = ? AND division = ? AND playoff_round = ? AND line_number = ? AND occupant = ?`),
		row.Occupant, row.TeamNumber, id.TournamentID, id.Division, slot.Round, slot.Line, from.String())
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: round %d line %d is no longer %s", bracket.ErrSlotAlreadyOccupied, slot.Round, slot.Line, from)
	}
	return nil
}

func (s *PlayoffStore) AssignTable(ctx context.Context, tx *sqlx.Tx, id bracket.ID, round, line int, table string) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE playoff_slots SET assigned_table = ?
		WHERE tournament_id = ? AND division = ? AND playoff_round = ? AND line_number = ?`),
		utils.TrimmedOrNil(table), id.TournamentID, id.Division, round, line)
	return err
}

func (s *PlayoffStore) DeleteBracket(ctx context.Context, tx *sqlx.Tx, id bracket.ID) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playoff_slots WHERE tournament_id = ? AND division = ?`),
		id.TournamentID, id.Division); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playoff_brackets WHERE tournament_id = ? AND division = ?`),
		id.TournamentID, id.Division)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrBracketNotFound, id.TournamentID, id.Division)
	}
	return nil
}

// TablePair is two tables played side by side, side A taking the odd line
type TablePair struct {
	TournamentID uuid.UUID `db:"tournament_id" json:"-"`
	SideA        string    `db:"side_a" json:"side_a"`
	SideB        string    `db:"side_b" json:"side_b"`
	SortOrder    int       `db:"sort_order" json:"sort_order"`
}

// SetTables replaces the playoff table pairs of a tournament
func (s *PlayoffStore) SetTables(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, pairs []TablePair) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playoff_tables WHERE tournament_id = ?`), tournamentID); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}

	rows := make([]TablePair, len(pairs))
	for i, p := range pairs {
		p.TournamentID = tournamentID
		p.SortOrder = i
		rows[i] = p
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO playoff_tables (tournament_id, side_a, side_b, sort_order)
		VALUES (:tournament_id, :side_a, :side_b, :sort_order)`, rows)
	return err
}

func (s *PlayoffStore) GetTables(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]TablePair, error) {
	if q == nil {
		q = s.db
	}
	var pairs []TablePair
	err := sqlx.SelectContext(ctx, q, &pairs, s.db.Rebind(`SELECT tournament_id, side_a, side_b, sort_order
		FROM playoff_tables WHERE tournament_id = ? ORDER BY sort_order ASC`), tournamentID)
	return pairs, err
}

// TableUsage counts how many slots of the whole tournament each table is assigned to
func (s *PlayoffStore) TableUsage(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (map[string]int, error) {
	if q == nil {
		q = s.db
	}
	var rows []struct {
		Table string `db:"assigned_table"`
		Count int    `db:"uses"`
	}
	err := sqlx.SelectContext(ctx, q, &rows, s.db.Rebind(`SELECT assigned_table, COUNT(*) AS uses FROM playoff_slots
		WHERE tournament_id = ? AND assigned_table IS NOT NULL GROUP BY assigned_table`), tournamentID)
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int, len(rows))
	for _, r := range rows {
		usage[r.Table] = r.Count
	}
	return usage, nil
}

// LeastUsedPair picks the table pair used least so far, the earlier pair on equal use
func LeastUsedPair(pairs []TablePair, usage map[string]int) (TablePair, bool) {
	if len(pairs) == 0 {
		return TablePair{}, false
	}
	sorted := make([]TablePair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ui := usage[sorted[i].SideA] + usage[sorted[i].SideB]
		uj := usage[sorted[j].SideA] + usage[sorted[j].SideB]
		return ui < uj
	})
	return sorted[0], true
}
