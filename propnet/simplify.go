package propnet

import (
	"slices"

	"ggp/gdl"

	"github.com/rs/zerolog/log"
)

type SimplifyOption func(*simplifier)

type simplifier struct {
	fixedPoint bool
}

// UntilFixedPoint repeats fusion passes until a pass fuses nothing.
func UntilFixedPoint() SimplifyOption {
	return func(s *simplifier) {
		s.fixedPoint = true
	}
}

type SimplifyStats struct {
	Fused  int
	Passes int
}

// Simplify fuses AND/OR gates with one input and one output into their
// neighbours. The gate's output proposition disappears and its consumers
// read the gate's input proposition instead. Outputs that are protected
// (INIT, terminal, does, legal, goal) or that feed a transition stay.
func Simplify(c *Circuit, options ...SimplifyOption) SimplifyStats {
	s := &simplifier{}
	for _, option := range options {
		option(s)
	}

	var stats SimplifyStats
	before := c.Live()
	for {
		fused := s.pass(c)
		stats.Passes++
		stats.Fused += fused
		if !s.fixedPoint || fused == 0 {
			break
		}
	}

	log.Debug().Msgf("simplified circuit: fused %d gates in %d passes, %d -> %d components",
		stats.Fused, stats.Passes, before, c.Live())
	return stats
}

func (s *simplifier) pass(c *Circuit) int {
	fused := 0
	for _, g := range c.IDs() {
		if !c.Alive(g) {
			continue
		}
		gate := &c.comps[g]
		if gate.kind != And && gate.kind != Or {
			continue
		}
		if len(gate.inputs) != 1 || len(gate.outputs) != 1 {
			continue
		}
		in, out := gate.inputs[0], gate.outputs[0]
		if in == out || c.comps[in].kind != Proposition || c.comps[out].kind != Proposition {
			continue
		}
		if protected(c.comps[out].name) || feedsTransition(c, out) {
			continue
		}

		for _, consumer := range slices.Clone(c.comps[out].outputs) {
			rewire(c, consumer, out, in)
		}
		c.Remove(g)
		c.Remove(out)
		fused++
	}
	return fused
}

// rewire makes consumer read from replacement instead of old.
func rewire(c *Circuit, consumer, old, replacement ID) {
	inputs := c.comps[consumer].inputs
	if slices.Contains(inputs, replacement) {
		c.comps[consumer].inputs = remove(inputs, old)
	} else {
		for i, v := range inputs {
			if v == old {
				inputs[i] = replacement
			}
		}
		c.comps[replacement].outputs = append(c.comps[replacement].outputs, consumer)
	}
	c.comps[old].outputs = remove(c.comps[old].outputs, consumer)
}

func protected(name gdl.Term) bool {
	switch classify(name) {
	case TagInit, TagTerminal, TagInput, TagLegal, TagGoal:
		return true
	}
	return false
}

func feedsTransition(c *Circuit, id ID) bool {
	for _, out := range c.comps[id].outputs {
		if c.comps[out].kind == Transition {
			return true
		}
	}
	return false
}
