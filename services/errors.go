package services

import (
	"errors"
	"fmt"
)

// Errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict with existing data")

	// Validation
	ErrSameDeck            = errors.New("deck A and deck B must be different")
	ErrNegativeScore       = errors.New("scores must not be negative")
	ErrInvalidWinner       = errors.New("winner must be deck A, deck B or empty for a tie")
	ErrUnknownDeck         = errors.New("unknown deck")
	ErrUnknownTournament   = errors.New("unknown tournament")
	ErrUnknownFormat       = errors.New("unknown format")
	ErrUnknownArchetype    = errors.New("unknown archetype")
	ErrNameRequired        = errors.New("name is required")
	ErrDateRequired        = errors.New("date is required")
	ErrEmptyIDList         = errors.New("at least one id is required")
	ErrInvalidDateRange    = errors.New("tournament end date must not be before start date")
	ErrInvalidStageType    = errors.New("invalid stage type")
	ErrInvalidStageOrder   = errors.New("stage order must be positive")
	ErrInvalidFinalRank    = errors.New("final rank must be positive")
	ErrInvalidBracketRef   = errors.New("bracket reference requires a tournament")
	ErrInvalidBracketDoc   = errors.New("invalid bracket document")
	ErrInvalidStatusChange = errors.New("invalid tournament status")

	// Conflicts
	ErrDeckInUse         = errors.New("deck still has matches")
	ErrDeckNameConflict  = errors.New("deck name is already in use")
	ErrNameConflict      = errors.New("name is already in use")
	ErrStandingsNotReady = errors.New("deck has no standings in this tournament")

	// Not found
	ErrMatchNotFound      = errors.New("match not found")
	ErrDeckNotFound       = errors.New("deck not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrFormatNotFound     = errors.New("format not found")
	ErrArchetypeNotFound  = errors.New("archetype not found")
	ErrStandingNotFound   = errors.New("standing not found")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidationFailed, err)
}

func notFoundError(err error) error {
	return fmt.Errorf("%w: %w", ErrNotFound, err)
}

func conflictError(err error) error {
	return fmt.Errorf("%w: %w", ErrConflict, err)
}
