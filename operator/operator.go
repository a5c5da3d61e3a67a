package operator

import (
	"fmt"
	"strings"
)

// Operator executes a compiled Program over a caller-owned state array of
// length Program.Width(). Every method is a pure function of the array
// contents (and role), so one Operator can be shared by any number of
// goroutines as long as each uses its own array.
type Operator interface {
	// Propagate runs the internal procedure and then the transition
	// procedure, leaving the next state in the base slots.
	Propagate(props []bool)
	PropagateInternal(props []bool)
	Transition(props []bool)
	PropagateTerminal(props []bool)
	PropagateLegal(props []bool, role int)
	PropagateGoal(props []bool, role int)
}

type Backend int

const (
	Interpreter Backend = iota
	Closure
	Checked
)

func (b Backend) String() string {
	switch b {
	case Interpreter:
		return "interpreter"
	case Closure:
		return "closure"
	case Checked:
		return "checked"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "interpreter", "":
		return Interpreter, nil
	case "closure":
		return Closure, nil
	case "checked":
		return Checked, nil
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// New returns an Operator of the given backend for p. The checked backend
// runs the closure backend and verifies every call against the
// interpreter.
func New(p *Program, backend Backend) (Operator, error) {
	switch backend {
	case Interpreter:
		return NewInterpreter(p), nil
	case Closure:
		return NewClosures(p), nil
	case Checked:
		return NewChecked(NewClosures(p), NewInterpreter(p)), nil
	}
	return nil, fmt.Errorf("unknown backend %s", backend)
}
