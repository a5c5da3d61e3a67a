package propnet

import (
	"ggp/gdl"
)

var red = gdl.Const("red")

func prop(s string) gdl.Term {
	return gdl.MustParse(s)
}

// skeleton returns a circuit with INIT and the propositions every
// network needs for role red: one legal move paired with its input.
type skeleton struct {
	c        *Circuit
	init     ID
	input    ID
	legal    ID
	terminal ID
}

func newSkeleton() *skeleton {
	c := NewCircuit()
	s := &skeleton{c: c}
	s.init = c.AddProposition(gdl.Const(gdl.Init))
	s.input = c.AddProposition(prop("(does red go)"))
	return s
}

// base adds a base proposition latched from a fresh next proposition that
// copies INIT, so the circuit validates.
func (s *skeleton) base(name string) ID {
	b := s.c.AddProposition(prop("(true " + name + ")"))
	next := s.c.Derive(prop("(next "+name+")"), Or, s.init)
	s.c.Latch(b, next)
	return b
}

// finish adds terminal = OR(source) and legal red go = NOT(terminal).
func (s *skeleton) finish(source ID) {
	s.terminal = s.c.Derive(gdl.Const(gdl.Terminal), Or, source)
	s.legal = s.c.Derive(prop("(legal red go)"), Not, s.terminal)
}

// eval computes the value of id by direct recursion, reading assigned
// values for leaves.
func eval(c *Circuit, id ID, assign map[ID]bool) bool {
	switch c.Kind(id) {
	case Proposition:
		if v, ok := assign[id]; ok {
			return v
		}
		ins := c.Inputs(id)
		if len(ins) == 0 {
			return c.Value(id)
		}
		return eval(c, ins[0], assign)
	case Constant:
		return c.Value(id)
	case Not:
		return !eval(c, c.Inputs(id)[0], assign)
	case And:
		for _, in := range c.Inputs(id) {
			if !eval(c, in, assign) {
				return false
			}
		}
		return true
	case Or:
		for _, in := range c.Inputs(id) {
			if eval(c, in, assign) {
				return true
			}
		}
		return false
	case Transition:
		return eval(c, c.Inputs(id)[0], assign)
	}
	panic("unknown kind")
}

// run evaluates an ordering over props, reading supplied slots and static
// values.
func run(n *Network, order Ordering, props []bool) {
	c := n.Circuit()
	read := func(id ID) bool {
		if v, ok := n.Static(id); ok {
			return v
		}
		return props[n.Slot(id)]
	}
	for _, i := range order {
		src := n.Source(i)
		switch c.Kind(src) {
		case Constant:
			props[i] = c.Value(src)
		case Not:
			props[i] = !read(c.Inputs(src)[0])
		case And:
			v := true
			for _, in := range c.Inputs(src) {
				v = v && read(in)
			}
			props[i] = v
		case Or:
			v := false
			for _, in := range c.Inputs(src) {
				v = v || read(in)
			}
			props[i] = v
		}
	}
}
