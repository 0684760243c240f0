package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrRoomFull               = errors.New("game is full")
	ErrAlreadyStarted         = errors.New("game has already started")
	ErrInsufficientPlayers    = errors.New("need at least 1 player to start")
	ErrTooManyPlayers         = errors.New("too many players")
	ErrNoPrompts              = errors.New("no prompts available")
	ErrNotPlaying             = errors.New("game not started")
	ErrWrongPhase             = errors.New("wrong phase")
	ErrPhaseNotExpired        = errors.New("phase time not elapsed yet")
	ErrAlreadyAtTerminalPhase = errors.New("already in results phase")
	ErrAlreadyVoted           = errors.New("already voted")
	ErrInvalidAnswer          = errors.New("invalid answer")
	ErrSelfVote               = errors.New("cannot vote for your own answer")
	ErrAllocationExhausted    = errors.New("failed to generate unique room code")
)

// Store implementations return these so the core can tell a lost race
// from a broken store.
var (
	ErrStale    = errors.New("conditional update matched no rows")
	ErrConflict = errors.New("unique constraint violated")
)

type PhaseNotExpiredError struct {
	Phase         Phase
	TimeRemaining int
}

func (e *PhaseNotExpiredError) Error() string {
	return fmt.Sprintf("%s: %s has %ds remaining", ErrPhaseNotExpired, e.Phase, e.TimeRemaining)
}

func (e *PhaseNotExpiredError) Is(target error) bool {
	return target == ErrPhaseNotExpired
}

type ErrorCategory string

const (
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryValidation     ErrorCategory = "validation"
	CategoryPhaseViolation ErrorCategory = "phase_violation"
	CategoryConflict       ErrorCategory = "conflict"
	CategoryStoreFailure   ErrorCategory = "store_failure"
)

// Category places err in the client-facing taxonomy. Anything the core
// does not recognise is a store failure.
func Category(err error) ErrorCategory {
	switch {
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidAnswer),
		errors.Is(err, ErrSelfVote),
		errors.Is(err, ErrInsufficientPlayers),
		errors.Is(err, ErrTooManyPlayers):
		return CategoryValidation
	case errors.Is(err, ErrNotPlaying),
		errors.Is(err, ErrWrongPhase),
		errors.Is(err, ErrPhaseNotExpired),
		errors.Is(err, ErrAlreadyAtTerminalPhase):
		return CategoryPhaseViolation
	case errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrRoomFull):
		return CategoryConflict
	default:
		return CategoryStoreFailure
	}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// InputError is a rejected request field. It matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(message string) error {
	return &InputError{Message: message}
}
