package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/h2h-playoffs/internal/archive"
	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/AdamBeresnev/h2h-playoffs/internal/scoring"
	"github.com/AdamBeresnev/h2h-playoffs/internal/store"
	"github.com/AdamBeresnev/h2h-playoffs/views"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Event types sent to bracket watchers
const (
	EventBracketCreated = "bracket_created"
	EventSlotsUpdated   = "slots_updated"
	EventBracketDeleted = "bracket_deleted"
)

type Publisher interface {
	Publish(id bracket.ID, eventType string, payload any)
}

type Archiver interface {
	Archive(ctx context.Context, snap archive.Snapshot) (string, error)
}

type PlayoffService struct {
	db        *sqlx.DB
	store     *store.PlayoffStore
	scores    *store.ScoreStore
	challenge *scoring.Challenge
	resolver  *bracket.Resolver
	publisher Publisher
	archiver  Archiver
	logger    *logrus.Logger
}

// NewPlayoffService wires the service. publisher and archiver may be nil.
func NewPlayoffService(db *sqlx.DB, playoffs *store.PlayoffStore, scores *store.ScoreStore, challenge *scoring.Challenge,
	publisher Publisher, archiver Archiver, logger *logrus.Logger) *PlayoffService {
	return &PlayoffService{
		db:        db,
		store:     playoffs,
		scores:    scores,
		challenge: challenge,
		resolver:  bracket.NewResolver(challenge.WinnerCriteria),
		publisher: publisher,
		archiver:  archiver,
		logger:    logger,
	}
}

type BuildInput struct {
	TournamentID uuid.UUID `json:"tournament_id"`
	Division     string    `json:"division"`

	// Ranked team numbers, best first
	Ranked     []int `json:"ranked"`
	ThirdPlace bool  `json:"third_place"`
	FirstRun   int   `json:"first_run"`
}

func (in BuildInput) validate() error {
	if in.TournamentID == uuid.Nil {
		return fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Division) == "" {
		return fmt.Errorf("%w: division is required", ErrInvalidInput)
	}
	if in.FirstRun < 0 {
		return fmt.Errorf("%w: first run must be positive", ErrInvalidInput)
	}
	return nil
}

// BuildBracket seeds a division's playoff bracket and stores it with every
// slot, after the bye cascade, in one transaction.
func (s *PlayoffService) BuildBracket(ctx context.Context, in BuildInput) (*bracket.Bracket, *bracket.Tree, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	tree, err := bracket.Build(in.Ranked, in.ThirdPlace)
	if err != nil {
		return nil, nil, err
	}

	firstRun := in.FirstRun
	if firstRun == 0 {
		firstRun = 1
	}
	b := &bracket.Bracket{
		ID:         bracket.ID{TournamentID: in.TournamentID, Division: in.Division},
		Size:       tree.Size(),
		ThirdPlace: tree.ThirdPlace(),
		FirstRun:   firstRun,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	_, err = s.store.GetBracket(ctx, tx, b.ID)
	if err == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrBracketExists, b.Division)
	}
	if !errors.Is(err, store.ErrBracketNotFound) {
		return nil, nil, fmt.Errorf("failed to check for existing bracket: %w", err)
	}

	if err := s.store.CreateBracket(ctx, tx, b); err != nil {
		return nil, nil, fmt.Errorf("failed to create bracket: %w", err)
	}
	if err := s.store.CreateSlots(ctx, tx, b.ID, tree.Slots()); err != nil {
		return nil, nil, fmt.Errorf("failed to create slots: %w", err)
	}
	if _, err := s.assignTables(ctx, tx, b.ID, tree); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tournament":  b.TournamentID,
		"division":    b.Division,
		"size":        b.Size,
		"competitors": len(in.Ranked),
		"third_place": b.ThirdPlace,
	}).Info("Playoff bracket created")
	s.publish(b.ID, EventBracketCreated, tree.Slots())

	return b, tree, nil
}

// loadTree reads a bracket and rebuilds its tree through q
func (s *PlayoffService) loadTree(ctx context.Context, q sqlx.QueryerContext, id bracket.ID) (*bracket.Bracket, *bracket.Tree, error) {
	b, err := s.store.GetBracket(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}
	slots, err := s.store.GetSlots(ctx, q, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get slots: %w", err)
	}
	tree, err := bracket.LoadTree(b.Size, b.ThirdPlace, slots)
	if err != nil {
		return nil, nil, err
	}
	return b, tree, nil
}

func (s *PlayoffService) GetBracket(ctx context.Context, id bracket.ID) (*bracket.Bracket, *bracket.Tree, error) {
	return s.loadTree(ctx, s.db, id)
}

func (s *PlayoffService) ListBrackets(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Bracket, error) {
	return s.store.ListBrackets(ctx, tournamentID)
}

// Layout lays the bracket out on a display grid. It reads outside any
// transaction, so it may trail a write that is in flight.
func (s *PlayoffService) Layout(ctx context.Context, id bracket.ID, opts views.Options) (*views.BracketData, error) {
	var (
		b     *bracket.Bracket
		slots []bracket.Slot
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = s.store.GetBracket(gCtx, s.db, id)
		return err
	})
	g.Go(func() error {
		var err error
		if slots, err = s.store.GetSlots(gCtx, s.db, id); err != nil {
			return fmt.Errorf("failed to get slots: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree, err := bracket.LoadTree(b.Size, b.ThirdPlace, slots)
	if err != nil {
		return nil, err
	}
	if opts.FirstRound == 0 {
		opts.FirstRound = bracket.FirstRound
	}

	scores, err := s.roundScores(ctx, b, tree)
	if err != nil {
		return nil, err
	}
	data, err := views.PrepareBracketData(tree, id.Division, opts, scores.lookup)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

type roundScores map[[2]int]views.RoundScore

func (rs roundScores) lookup(round, team int) (views.RoundScore, bool) {
	score, ok := rs[[2]int{round, team}]
	return score, ok
}

// roundScores reads the score of every team placed in a played round, from
// the run that round is scored from
func (s *PlayoffService) roundScores(ctx context.Context, b *bracket.Bracket, tree *bracket.Tree) (roundScores, error) {
	engine := scoring.NewEngine(s.challenge, s.scores, b.TournamentID)
	scores := make(roundScores)

	for round := bracket.FirstRound; round <= tree.FinalsRound(); round++ {
		run := b.RunForRound(round)
		for line := 1; line <= tree.SlotsInRound(round); line++ {
			slot, err := tree.Slot(round, line)
			if err != nil {
				return nil, err
			}
			team, ok := slot.Occupant.TeamNumber()
			if !ok {
				continue
			}

			exists, err := engine.ScoreExists(ctx, team, run)
			if err != nil {
				return nil, fmt.Errorf("failed to get score: %w", err)
			}
			if !exists {
				continue
			}
			noShow, err := engine.IsNoShow(ctx, team, run)
			if err != nil {
				return nil, err
			}
			total, err := engine.TotalScore(ctx, team, run)
			if err != nil {
				return nil, err
			}
			scores[[2]int{round, team}] = views.RoundScore{Total: total, NoShow: noShow}
		}
	}
	return scores, nil
}

type BracketStatus struct {
	Bracket          bracket.Bracket    `json:"bracket"`
	Finished         bool               `json:"finished"`
	HasTie           bool               `json:"has_tie"`
	Champion         bracket.Occupant   `json:"champion"`
	ThirdPlaceWinner bracket.Occupant   `json:"third_place_winner"`
	Pending          []bracket.MatchRef `json:"pending"`
}

func (s *PlayoffService) Status(ctx context.Context, id bracket.ID) (*BracketStatus, error) {
	b, tree, err := s.loadTree(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &BracketStatus{
		Bracket:          *b,
		Finished:         tree.IsFinished(),
		HasTie:           tree.HasTie(),
		Champion:         tree.Champion(),
		ThirdPlaceWinner: tree.ThirdPlaceWinner(),
		Pending:          tree.PendingMatches(),
	}, nil
}

// DeleteBracket purges a division's playoff data
func (s *PlayoffService) DeleteBracket(ctx context.Context, id bracket.ID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.DeleteBracket(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"tournament": id.TournamentID,
		"division":   id.Division,
	}).Info("Playoff bracket deleted")
	s.publish(id, EventBracketDeleted, nil)
	return nil
}

// SetTables replaces the table pairs used for playoff assignments
func (s *PlayoffService) SetTables(ctx context.Context, tournamentID uuid.UUID, pairs []store.TablePair) error {
	for _, p := range pairs {
		if strings.TrimSpace(p.SideA) == "" || strings.TrimSpace(p.SideB) == "" {
			return fmt.Errorf("%w: table pairs need both sides", ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.SetTables(ctx, tx, tournamentID, pairs); err != nil {
		return fmt.Errorf("failed to save tables: %w", err)
	}
	return tx.Commit()
}

// assignTables gives every match that is ready to play and has no table
// yet the least used table pair. Side A goes to the odd line.
func (s *PlayoffService) assignTables(ctx context.Context, tx *sqlx.Tx, id bracket.ID, tree *bracket.Tree) ([]bracket.Slot, error) {
	pairs, err := s.store.GetTables(ctx, tx, id.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	usage, err := s.store.TableUsage(ctx, tx, id.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get table usage: %w", err)
	}

	var assigned []bracket.Slot
	for _, m := range tree.PendingMatches() {
		l1, l2 := m.Lines()
		top, _ := tree.Slot(m.Round, l1)
		bottom, _ := tree.Slot(m.Round, l2)
		if top.Table != "" || bottom.Table != "" {
			continue
		}

		pair, _ := store.LeastUsedPair(pairs, usage)
		for _, side := range []struct {
			line  int
			table string
		}{{l1, pair.SideA}, {l2, pair.SideB}} {
			if err := s.store.AssignTable(ctx, tx, id, m.Round, side.line, side.table); err != nil {
				return nil, fmt.Errorf("failed to assign table: %w", err)
			}
			if err := tree.SetTable(m.Round, side.line, side.table); err != nil {
				return nil, err
			}
			usage[side.table]++
			slot, _ := tree.Slot(m.Round, side.line)
			assigned = append(assigned, slot)
		}
	}
	return assigned, nil
}

func (s *PlayoffService) publish(id bracket.ID, eventType string, payload any) {
	if s.publisher != nil {
		s.publisher.Publish(id, eventType, payload)
	}
}
