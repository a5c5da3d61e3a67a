package game

import (
	"fmt"
	"hash/fnv"
	"slices"

	"ggp/statemachine"

	"golang.org/x/exp/rand"
)

// Position presents a simultaneous-move game as a sequence of single
// decisions: within a turn the roles choose in role order, and the joint
// move is applied once the last role has chosen.
//
// Errors from the state machine are programmer or game description errors
// and are raised as panics carrying the error.
type Position struct {
	sm       statemachine.StateMachine
	roles    []statemachine.Role
	state    statemachine.MachineState
	pending  []statemachine.Move
	terminal bool
	moves    []Move
}

// NewPosition starts a turn at s with no moves chosen.
func NewPosition(sm statemachine.StateMachine, s statemachine.MachineState) (*Position, error) {
	p := &Position{sm: sm, roles: sm.Roles(), state: s}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// Start is the position at the game's initial state.
func Start(sm statemachine.StateMachine) (*Position, error) {
	return NewPosition(sm, sm.InitialState())
}

func (p *Position) init() error {
	if len(p.pending) == 0 && p.sm.IsTerminal(p.state) {
		p.terminal = true
		return nil
	}
	moves, err := p.sm.LegalMoves(p.state, p.roles[len(p.pending)])
	if err != nil {
		return err
	}
	p.moves = make([]Move, len(moves))
	for i, m := range moves {
		p.moves[i] = m
	}
	return nil
}

func (p *Position) Player() string {
	if p.terminal {
		return ""
	}
	return string(p.roles[len(p.pending)])
}

func (p *Position) LegalMoves() []Move { return p.moves }

// State is the machine state at the start of the current turn.
func (p *Position) State() statemachine.MachineState { return p.state }

func (p *Position) Machine() statemachine.StateMachine { return p.sm }

func (p *Position) Terminal() bool { return p.terminal }

// Chosen is the number of roles that have moved in the current turn.
func (p *Position) Chosen() int { return len(p.pending) }

func (p *Position) Play(move Move) State {
	m, ok := move.(statemachine.Move)
	if !ok {
		panic(fmt.Sprintf("unexpected move type %T", move))
	}
	if !slices.Contains(p.moves, move) {
		panic(fmt.Errorf("%w: %s is not legal for %s", statemachine.ErrUnknownMove, move, p.Player()))
	}
	next := &Position{sm: p.sm, roles: p.roles, state: p.state}
	next.pending = append(append(make([]statemachine.Move, 0, len(p.roles)), p.pending...), m)
	if len(next.pending) == len(p.roles) {
		s, err := p.sm.NextState(p.state, next.pending)
		if err != nil {
			panic(err)
		}
		next.state, next.pending = s, nil
	}
	if err := next.init(); err != nil {
		panic(err)
	}
	return next
}

func (p *Position) Hash() StateHash {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", p.state.Hash())
	for _, m := range p.pending {
		h.Write([]byte{0})
		h.Write([]byte(m.String()))
	}
	return StateHash(h.Sum64())
}

func (p *Position) Rewards() map[string]float64 {
	if !p.terminal {
		panic("rewards of a non-terminal position")
	}
	return rewards(p.sm, p.state)
}

func rewards(sm statemachine.StateMachine, s statemachine.MachineState) map[string]float64 {
	out := make(map[string]float64, len(sm.Roles()))
	for _, role := range sm.Roles() {
		v, err := sm.Goal(s, role)
		if err != nil {
			panic(err)
		}
		out[string(role)] = float64(v) / 100
	}
	return out
}

// Playout finishes the current turn with random moves and then plays
// random joint moves to the end, using depth charges when the machine
// supports them.
func (p *Position) Playout(rng *rand.Rand) (map[string]float64, int) {
	cur, depth := p, 0
	if len(cur.pending) > 0 {
		for len(cur.pending) > 0 {
			cur = cur.Play(cur.moves[rng.Intn(len(cur.moves))]).(*Position)
		}
		depth++
	}
	if dc, ok := p.sm.(statemachine.DepthCharger); ok && !cur.terminal {
		end, n, err := dc.DepthCharge(cur.state, rng)
		if err != nil {
			panic(err)
		}
		return rewards(p.sm, end), depth + n
	}
	for !cur.terminal {
		cur = cur.Play(cur.moves[rng.Intn(len(cur.moves))]).(*Position)
		if len(cur.pending) == 0 {
			depth++
		}
	}
	return cur.Rewards(), depth
}
