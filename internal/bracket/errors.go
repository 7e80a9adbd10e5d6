package bracket

import "errors"

var (
	// Configuration errors
	ErrUnsupportedBracketSize = errors.New("unsupported bracket size")
	ErrNoCompetitors          = errors.New("at least one competitor is required")
	ErrDuplicateCompetitor    = errors.New("competitor appears more than once")

	// Structural errors, never repaired automatically
	ErrBracketCorruption   = errors.New("bracket data is corrupt")
	ErrSlotAlreadyOccupied = errors.New("slot is already occupied")

	ErrInvalidSlot        = errors.New("slot is outside the bracket")
	ErrRound1Populated    = errors.New("round 1 has already been populated")
	ErrInvalidRound1Order = errors.New("round 1 order does not match the bracket size")
	ErrMatchNotReady      = errors.New("match does not have both occupants yet")
	ErrNotInMatch         = errors.New("winner is not part of the match")
)
