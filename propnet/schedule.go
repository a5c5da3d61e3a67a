package propnet

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrCycle reports a loop of gates that does not pass through a transition.
var ErrCycle = fmt.Errorf("%w: combinational cycle", ErrMalformed)

// Ordering lists internal proposition indices so that every proposition
// comes after everything its defining gate reads.
type Ordering []int

// Schedule holds every ordering a compiled operator needs.
type Schedule struct {
	Full       Ordering
	Terminal   Ordering
	Legal      []Ordering
	Goal       []Ordering
	Transition Ordering
}

const (
	unvisited uint8 = iota
	visiting
	visited
)

type scheduler struct {
	net   *Network
	state []uint8
	order Ordering
}

func (n *Network) newScheduler() *scheduler {
	c := n.circuit
	s := &scheduler{net: n, state: make([]uint8, c.Len())}
	for id := range s.state {
		switch {
		case !c.Alive(ID(id)):
			s.state[id] = visited
		case c.Kind(ID(id)) == Constant:
			s.state[id] = visited
		case c.Kind(ID(id)) == Proposition && n.slots[id] < n.internalStart:
			// INIT, base, input and unindexed propositions are supplied, not computed.
			s.state[id] = visited
		}
	}
	return s
}

func (s *scheduler) visit(id ID) error {
	switch s.state[id] {
	case visited:
		return nil
	case visiting:
		return fmt.Errorf("%w through component %d", ErrCycle, id)
	}
	s.state[id] = visiting
	for _, in := range s.net.circuit.Inputs(id) {
		if err := s.visit(in); err != nil {
			if slot := s.net.slots[id]; slot >= 0 {
				return fmt.Errorf("%w (at %s)", err, s.net.Name(slot))
			}
			return err
		}
	}
	s.state[id] = visited
	if slot := s.net.slots[id]; slot >= s.net.internalStart {
		s.order = append(s.order, slot)
	}
	return nil
}

// Order returns the ordering needed to compute targets. A nil targets
// orders every internal proposition. Targets outside the internal region
// need no computation and are skipped.
func (n *Network) Order(targets []int) (Ordering, error) {
	s := n.newScheduler()
	if targets == nil {
		for i := n.internalStart; i < len(n.props); i++ {
			if err := s.visit(n.props[i]); err != nil {
				return nil, err
			}
		}
		return s.order, nil
	}
	for _, t := range targets {
		if t < n.internalStart {
			continue
		}
		if err := s.visit(n.props[t]); err != nil {
			return nil, err
		}
	}
	return s.order, nil
}

func (n *Network) FullOrder() (Ordering, error) {
	return n.Order(nil)
}

func (n *Network) TerminalOrder() (Ordering, error) {
	return n.Order([]int{n.terminal})
}

func (n *Network) LegalOrder(role int) (Ordering, error) {
	return n.Order(n.legals[role])
}

func (n *Network) GoalOrder(role int) (Ordering, error) {
	targets := make([]int, len(n.goals[role]))
	for i, g := range n.goals[role] {
		targets[i] = g.Index
	}
	return n.Order(targets)
}

// TransitionOrder lists the base propositions advanced by a transition.
func (n *Network) TransitionOrder() Ordering {
	order := make(Ordering, 0, n.inputStart-n.baseStart)
	for i := n.baseStart; i < n.inputStart; i++ {
		order = append(order, i)
	}
	return order
}

// Schedule computes all orderings.
func (n *Network) Schedule() (*Schedule, error) {
	full, err := n.FullOrder()
	if err != nil {
		return nil, err
	}
	terminal, err := n.TerminalOrder()
	if err != nil {
		return nil, err
	}
	s := &Schedule{
		Full:       full,
		Terminal:   terminal,
		Legal:      make([]Ordering, len(n.roles)),
		Goal:       make([]Ordering, len(n.roles)),
		Transition: n.TransitionOrder(),
	}
	for role := range n.roles {
		if s.Legal[role], err = n.LegalOrder(role); err != nil {
			return nil, err
		}
		if s.Goal[role], err = n.GoalOrder(role); err != nil {
			return nil, err
		}
	}

	log.Debug().Msgf("scheduled propnet: full=%d terminal=%d transition=%d",
		len(s.Full), len(s.Terminal), len(s.Transition))
	for role, r := range n.roles {
		log.Debug().Msgf("scheduled role %s: legal=%d goal=%d", r, len(s.Legal[role]), len(s.Goal[role]))
	}
	return s, nil
}
