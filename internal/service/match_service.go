package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/h2h-playoffs/internal/archive"
	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/AdamBeresnev/h2h-playoffs/internal/scoring"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// MatchOutcome reports what resolving a match did to the bracket
type MatchOutcome struct {
	Round    int                   `json:"round"`
	Match    int                   `json:"match"`
	Run      int                   `json:"run"`
	Status   bracket.OutcomeStatus `json:"status"`
	Winner   bracket.Occupant      `json:"winner"`
	Loser    bracket.Occupant      `json:"loser"`
	Advanced []bracket.Slot        `json:"advanced"`
}

type slotKey struct{ round, line int }

// ResolveAndAdvance scores a match from the recorded performances and, once
// it is decided or tied, writes the result into the bracket. run 0 means the
// run the bracket plays that round in.
func (s *PlayoffService) ResolveAndAdvance(ctx context.Context, id bracket.ID, round, match, run int) (*MatchOutcome, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, tree, err := s.loadTree(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if run == 0 {
		run = b.RunForRound(round)
	}

	a, c, err := tree.Pair(round, match)
	if err != nil {
		return nil, err
	}
	dest, err := tree.Destination(round, match)
	if err != nil {
		return nil, err
	}
	if dest.Occupant.IsTeam() || dest.Occupant.IsBye() {
		return nil, fmt.Errorf("%w: round %d match %d was already decided", bracket.ErrSlotAlreadyOccupied, round, match)
	}

	engine := scoring.NewEngine(s.challenge, s.scores, id.TournamentID)
	outcome, err := s.resolver.Resolve(ctx, engine, a, c, run)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve round %d match %d: %w", round, match, err)
	}

	result := &MatchOutcome{
		Round:  round,
		Match:  match,
		Run:    run,
		Status: outcome.Status,
		Winner: outcome.Winner,
		Loser:  outcome.Loser,
	}

	switch {
	case outcome.Status == bracket.Undetermined:
		return result, nil
	case dest.Occupant.IsTie() && outcome.Status == bracket.Tied:
		// still tied, nothing to write
		return result, nil
	}

	before := kindsOf(tree)
	var changed []bracket.Slot
	if dest.Occupant.IsTie() {
		changed, err = tree.ReplaceTie(round, match, outcome.Winner)
	} else {
		changed, err = tree.RecordWinner(round, match, outcome.Winner)
	}
	if err != nil {
		return nil, err
	}

	advanced, err := s.commitChanges(ctx, tx, id, tree, before, changed)
	if err != nil {
		return nil, err
	}
	result.Advanced = advanced

	s.logger.WithFields(logrus.Fields{
		"tournament": id.TournamentID,
		"division":   id.Division,
		"round":      round,
		"match":      match,
		"run":        run,
		"status":     outcome.Status,
		"winner":     outcome.Winner.String(),
	}).Info("Playoff match resolved")

	s.afterChange(ctx, b, tree, advanced)
	return result, nil
}

// RecordRuling enters a head judge's decision for a match, either for a
// match that has no result yet or to settle a tie.
func (s *PlayoffService) RecordRuling(ctx context.Context, id bracket.ID, round, match, team int) ([]bracket.Slot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, tree, err := s.loadTree(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	dest, err := tree.Destination(round, match)
	if err != nil {
		return nil, err
	}

	before := kindsOf(tree)
	var changed []bracket.Slot
	if dest.Occupant.IsTie() {
		changed, err = tree.ReplaceTie(round, match, bracket.Team(team))
	} else {
		changed, err = tree.RecordWinner(round, match, bracket.Team(team))
	}
	if err != nil {
		return nil, err
	}

	advanced, err := s.commitChanges(ctx, tx, id, tree, before, changed)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tournament": id.TournamentID,
		"division":   id.Division,
		"round":      round,
		"match":      match,
		"team":       team,
	}).Info("Playoff ruling recorded")

	s.afterChange(ctx, b, tree, advanced)
	return advanced, nil
}

// SubmitPerformance stores a run and resolves every pending playoff match
// of the tournament that the team plays in that run.
func (s *PlayoffService) SubmitPerformance(ctx context.Context, p *scoring.Performance) ([]MatchOutcome, error) {
	if p.TeamNumber <= 0 || p.RunNumber <= 0 {
		return nil, fmt.Errorf("%w: team and run numbers must be positive", ErrInvalidInput)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.scores.SavePerformance(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	brackets, err := s.store.ListBrackets(ctx, p.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets: %w", err)
	}

	var outcomes []MatchOutcome
	for _, b := range brackets {
		_, tree, err := s.loadTree(ctx, s.db, b.ID)
		if err != nil {
			return outcomes, err
		}

		for _, m := range tree.PendingMatches() {
			if b.RunForRound(m.Round) != p.RunNumber {
				continue
			}
			a, c, _ := tree.Pair(m.Round, m.Match)
			if a != bracket.Team(p.TeamNumber) && c != bracket.Team(p.TeamNumber) {
				continue
			}

			outcome, err := s.ResolveAndAdvance(ctx, b.ID, m.Round, m.Match, p.RunNumber)
			if errors.Is(err, bracket.ErrSlotAlreadyOccupied) {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"division": b.Division,
					"round":    m.Round,
					"match":    m.Match,
				}).Warn("Match was resolved concurrently")
				continue
			}
			if err != nil {
				return outcomes, err
			}
			outcomes = append(outcomes, *outcome)
		}
	}
	return outcomes, nil
}

func kindsOf(tree *bracket.Tree) map[slotKey]bracket.OccupantKind {
	kinds := make(map[slotKey]bracket.OccupantKind)
	for _, sl := range tree.Slots() {
		kinds[slotKey{sl.Round, sl.Line}] = sl.Occupant.Kind()
	}
	return kinds
}

// commitChanges persists the changed slots guarded by the kinds they held
// before, assigns tables to matches that became playable and commits.
func (s *PlayoffService) commitChanges(ctx context.Context, tx *sqlx.Tx, id bracket.ID, tree *bracket.Tree,
	before map[slotKey]bracket.OccupantKind, changed []bracket.Slot) ([]bracket.Slot, error) {
	latest := make(map[slotKey]int)
	var ordered []bracket.Slot
	for _, sl := range changed {
		k := slotKey{sl.Round, sl.Line}
		if i, ok := latest[k]; ok {
			ordered[i] = sl
			continue
		}
		latest[k] = len(ordered)
		ordered = append(ordered, sl)
	}

	for _, sl := range ordered {
		if err := s.store.UpdateSlot(ctx, tx, id, sl, before[slotKey{sl.Round, sl.Line}]); err != nil {
			return nil, err
		}
	}
	assigned, err := s.assignTables(ctx, tx, id, tree)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, sl := range assigned {
		if _, ok := latest[slotKey{sl.Round, sl.Line}]; !ok {
			ordered = append(ordered, sl)
		}
	}
	// pick up tables assigned after the slots were collected
	for i, sl := range ordered {
		ordered[i], _ = tree.Slot(sl.Round, sl.Line)
	}
	return ordered, nil
}

// afterChange notifies watchers and archives the bracket once it is finished.
// Failures here are logged, the result is already committed.
func (s *PlayoffService) afterChange(ctx context.Context, b *bracket.Bracket, tree *bracket.Tree, changed []bracket.Slot) {
	s.publish(b.ID, EventSlotsUpdated, changed)

	if s.archiver == nil || !tree.IsFinished() {
		return
	}
	key, err := s.archiver.Archive(ctx, archive.Snapshot{
		Bracket:          *b,
		Slots:            tree.Slots(),
		Champion:         tree.Champion(),
		ThirdPlaceWinner: tree.ThirdPlaceWinner(),
		ArchivedAt:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"tournament": b.TournamentID,
			"division":   b.Division,
		}).Error("Failed to archive finished bracket")
		return
	}
	s.logger.WithField("key", key).Info("Finished bracket archived")
}
