package statemachine

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

type roleKey struct {
	state MachineState
	role  Role
}

type transitionKey struct {
	state MachineState
	joint string
}

type goalResult struct {
	value int
	err   error
}

type legalResult struct {
	moves []Move
	err   error
}

// Cached memoizes the queries of another StateMachine. Queries are pure
// functions of their arguments, so cached answers never go stale.
type Cached struct {
	StateMachine
	terminal *lru.Cache[MachineState, bool]
	legal    *lru.Cache[roleKey, legalResult]
	next     *lru.Cache[transitionKey, MachineState]
	goal     *lru.Cache[roleKey, goalResult]
}

// NewCached wraps sm with caches of size entries each.
func NewCached(sm StateMachine, size int) (*Cached, error) {
	terminal, err := lru.New[MachineState, bool](size)
	if err != nil {
		return nil, err
	}
	legal, err := lru.New[roleKey, legalResult](size)
	if err != nil {
		return nil, err
	}
	next, err := lru.New[transitionKey, MachineState](size)
	if err != nil {
		return nil, err
	}
	goal, err := lru.New[roleKey, goalResult](size)
	if err != nil {
		return nil, err
	}
	return &Cached{StateMachine: sm, terminal: terminal, legal: legal, next: next, goal: goal}, nil
}

func (c *Cached) IsTerminal(s MachineState) bool {
	if v, ok := c.terminal.Get(s); ok {
		return v
	}
	v := c.StateMachine.IsTerminal(s)
	c.terminal.Add(s, v)
	return v
}

func (c *Cached) LegalMoves(s MachineState, role Role) ([]Move, error) {
	key := roleKey{state: s, role: role}
	if r, ok := c.legal.Get(key); ok {
		return append([]Move(nil), r.moves...), r.err
	}
	moves, err := c.StateMachine.LegalMoves(s, role)
	c.legal.Add(key, legalResult{moves: append([]Move(nil), moves...), err: err})
	return moves, err
}

func (c *Cached) NextState(s MachineState, joint []Move) (MachineState, error) {
	var sb strings.Builder
	for _, m := range joint {
		sb.WriteString(m.String())
		sb.WriteByte('\n')
	}
	key := transitionKey{state: s, joint: sb.String()}
	if next, ok := c.next.Get(key); ok {
		return next, nil
	}
	next, err := c.StateMachine.NextState(s, joint)
	if err != nil {
		return next, err
	}
	c.next.Add(key, next)
	return next, nil
}

func (c *Cached) Goal(s MachineState, role Role) (int, error) {
	key := roleKey{state: s, role: role}
	if r, ok := c.goal.Get(key); ok {
		return r.value, r.err
	}
	v, err := c.StateMachine.Goal(s, role)
	c.goal.Add(key, goalResult{value: v, err: err})
	return v, err
}

