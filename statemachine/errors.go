package statemachine

import (
	"errors"
	"fmt"

	"ggp/propnet"
)

var (
	// ErrMalformedGame marks fatal problems with the game description. They
	// are never retryable.
	ErrMalformedGame = propnet.ErrMalformed
	// ErrNotComputable marks a result that could not be produced in time.
	// Callers may retry with a larger budget.
	ErrNotComputable = errors.New("not computable")
	ErrUnknownRole   = errors.New("unknown role")
	ErrUnknownMove   = errors.New("unknown move")
)

// GoalDefinitionError reports a state in which a role does not have exactly
// one true goal proposition. Matches lists the payoffs that held.
type GoalDefinitionError struct {
	State   MachineState
	Role    Role
	Matches []int
}

func (e *GoalDefinitionError) Error() string {
	return fmt.Sprintf("goal of %s in state %s: %d goal propositions hold %v",
		e.Role, e.State, len(e.Matches), e.Matches)
}

func (e *GoalDefinitionError) Unwrap() error { return ErrMalformedGame }

// MoveDefinitionError reports a non-terminal state in which a role has no
// legal move.
type MoveDefinitionError struct {
	State MachineState
	Role  Role
}

func (e *MoveDefinitionError) Error() string {
	return fmt.Sprintf("role %s has no legal move in state %s", e.Role, e.State)
}

func (e *MoveDefinitionError) Unwrap() error { return ErrMalformedGame }

// TransitionDefinitionError reports a joint move that cannot drive a
// transition from State.
type TransitionDefinitionError struct {
	State MachineState
	Moves []Move
	Err   error
}

func (e *TransitionDefinitionError) Error() string {
	return fmt.Sprintf("no transition from state %s on %v: %v", e.State, e.Moves, e.Err)
}

func (e *TransitionDefinitionError) Unwrap() error { return e.Err }

// IsFatal reports whether err comes from a malformed game description.
func IsFatal(err error) bool { return errors.Is(err, ErrMalformedGame) }

// IsTransient reports whether err may go away given more time.
func IsTransient(err error) bool { return errors.Is(err, ErrNotComputable) }
