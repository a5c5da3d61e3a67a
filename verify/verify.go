// Package verify checks propnets with a SAT solver. Base, input and INIT
// propositions become free variables; every other proposition is encoded
// as a formula over them.
package verify

import (
	"errors"
	"fmt"
	"slices"

	"ggp/gdl"
	"ggp/propnet"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/rs/zerolog/log"
)

var ErrIncomparable = errors.New("networks are not comparable")

// encoder translates one network into a shared circuit. Variables are keyed
// by proposition name so that two networks can share them.
type encoder struct {
	c     *logic.C
	vars  map[string]z.Lit
	fixed map[string]z.Lit
}

func newEncoder() *encoder {
	return &encoder{c: logic.NewC(), vars: make(map[string]z.Lit)}
}

// variable returns the free variable for name, creating it on first use.
func (e *encoder) variable(name string) z.Lit {
	if lit, ok := e.fixed[name]; ok {
		return lit
	}
	lit, ok := e.vars[name]
	if !ok {
		lit = e.c.Lit()
		e.vars[name] = lit
	}
	return lit
}

type network struct {
	*encoder
	net  *propnet.Network
	lits map[propnet.ID]z.Lit
	busy map[propnet.ID]bool
}

func (e *encoder) network(net *propnet.Network) *network {
	return &network{encoder: e, net: net, lits: make(map[propnet.ID]z.Lit), busy: make(map[propnet.ID]bool)}
}

// lit encodes the value of component id.
func (n *network) lit(id propnet.ID) (z.Lit, error) {
	if lit, ok := n.lits[id]; ok {
		return lit, nil
	}
	if n.busy[id] {
		return z.LitNull, fmt.Errorf("%w at %s", propnet.ErrCycle, n.net.Circuit().Name(id))
	}
	n.busy[id] = true
	defer delete(n.busy, id)

	c := n.net.Circuit()
	var lit z.Lit
	switch c.Kind(id) {
	case propnet.Proposition:
		slot := n.net.Slot(id)
		switch {
		case slot >= 0 && slot < n.net.InternalStart():
			lit = n.variable(c.Name(id).String())
		case slot < 0:
			lit = n.constant(c.Value(id))
		default:
			source, err := n.lit(c.Inputs(id)[0])
			if err != nil {
				return z.LitNull, err
			}
			lit = source
		}
	case propnet.Constant:
		lit = n.constant(c.Value(id))
	case propnet.Not:
		in, err := n.lit(c.Inputs(id)[0])
		if err != nil {
			return z.LitNull, err
		}
		lit = in.Not()
	case propnet.And, propnet.Or:
		ins := make([]z.Lit, 0, len(c.Inputs(id)))
		for _, input := range c.Inputs(id) {
			in, err := n.lit(input)
			if err != nil {
				return z.LitNull, err
			}
			ins = append(ins, in)
		}
		if c.Kind(id) == propnet.And {
			lit = n.c.Ands(ins...)
		} else {
			lit = n.c.Ors(ins...)
		}
	case propnet.Transition:
		in, err := n.lit(c.Inputs(id)[0])
		if err != nil {
			return z.LitNull, err
		}
		lit = in
	}
	n.lits[id] = lit
	return lit, nil
}

func (n *network) constant(v bool) z.Lit {
	if v {
		return n.c.T
	}
	return n.c.F
}

// targets encodes everything observable about a network: the terminal,
// legal and goal propositions and the next value of every base fact.
func (n *network) targets() (map[string]z.Lit, error) {
	out := make(map[string]z.Lit)
	add := func(key string, id propnet.ID) error {
		lit, err := n.lit(id)
		if err != nil {
			return err
		}
		out[key] = lit
		return nil
	}
	if err := add(gdl.Terminal, n.net.Prop(n.net.Terminal())); err != nil {
		return nil, err
	}
	for role := range n.net.Roles() {
		for _, l := range n.net.Legals(role) {
			if err := add(n.net.Name(l).String(), n.net.Prop(l)); err != nil {
				return nil, err
			}
		}
		for _, g := range n.net.Goals(role) {
			if err := add(n.net.Name(g.Index).String(), n.net.Prop(g.Index)); err != nil {
				return nil, err
			}
		}
	}
	for i := n.net.BaseStart(); i < n.net.InputStart(); i++ {
		if err := add("next "+n.net.Name(i).String(), n.net.Source(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Counterexample is an assignment on which two networks disagree.
type Counterexample struct {
	// Targets lists the observable propositions that differ.
	Targets []string
	// True lists the base, input and INIT propositions set in the assignment.
	True []string
}

// Equivalent proves that a and b compute the same observable values for
// every assignment of base and input propositions. It returns nil when they
// do and a counterexample otherwise.
func Equivalent(a, b *propnet.Network) (*Counterexample, error) {
	e := newEncoder()
	left, err := e.network(a).targets()
	if err != nil {
		return nil, err
	}
	right, err := e.network(b).targets()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(left))
	for k := range left {
		if _, ok := right[k]; !ok {
			return nil, fmt.Errorf("%w: %s only in the first network", ErrIncomparable, k)
		}
		keys = append(keys, k)
	}
	for k := range right {
		if _, ok := left[k]; !ok {
			return nil, fmt.Errorf("%w: %s only in the second network", ErrIncomparable, k)
		}
	}
	slices.Sort(keys)

	diffs := make([]z.Lit, len(keys))
	for i, k := range keys {
		diffs[i] = e.c.Xor(left[k], right[k])
	}
	miter := e.c.Ors(diffs...)

	g := gini.New()
	e.c.ToCnf(g)
	g.Assume(miter)
	if g.Solve() != 1 {
		log.Debug().Msgf("networks agree on %d targets", len(keys))
		return nil, nil
	}

	cex := &Counterexample{True: e.assignment(g)}
	for i, k := range keys {
		if g.Value(diffs[i]) {
			cex.Targets = append(cex.Targets, k)
		}
	}
	return cex, nil
}

func (e *encoder) assignment(g *gini.Gini) []string {
	var names []string
	for name, lit := range e.vars {
		if g.Value(lit) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

type FindingKind int

const (
	// GoalCount marks a terminal assignment where a role has zero or
	// several true goals.
	GoalCount FindingKind = iota
	// NoLegalMove marks a non-terminal assignment where a role has no legal
	// move.
	NoLegalMove
)

func (k FindingKind) String() string {
	if k == GoalCount {
		return "goal-count"
	}
	return "no-legal-move"
}

// Finding is a base assignment that violates a well-formedness property.
// Assignments are not checked for reachability, so a finding may be
// spurious.
type Finding struct {
	Kind FindingKind
	Role gdl.Term
	True []string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s for %s when %v", f.Kind, f.Role, f.True)
}

// Audit searches base assignments for terminal states without exactly one
// goal per role and for non-terminal states where a role cannot move. INIT
// and every input are held false.
func Audit(net *propnet.Network) ([]Finding, error) {
	e := newEncoder()
	e.fixed = map[string]z.Lit{net.Name(net.InitIndex()).String(): e.c.F}
	for i := net.InputStart(); i < net.InternalStart(); i++ {
		e.fixed[net.Name(i).String()] = e.c.F
	}
	n := e.network(net)
	terminal, err := n.lit(net.Prop(net.Terminal()))
	if err != nil {
		return nil, err
	}

	type query struct {
		kind FindingKind
		role int
		lit  z.Lit
	}
	var queries []query
	for role := range net.Roles() {
		goals := make([]z.Lit, 0, len(net.Goals(role)))
		for _, g := range net.Goals(role) {
			lit, err := n.lit(net.Prop(g.Index))
			if err != nil {
				return nil, err
			}
			goals = append(goals, lit)
		}
		none := e.c.Ors(goals...).Not()
		var pairs []z.Lit
		for i := range goals {
			for j := i + 1; j < len(goals); j++ {
				pairs = append(pairs, e.c.And(goals[i], goals[j]))
			}
		}
		bad := e.c.Or(none, e.c.Ors(pairs...))
		queries = append(queries, query{GoalCount, role, e.c.And(terminal, bad)})

		legals := make([]z.Lit, 0, len(net.Legals(role)))
		for _, l := range net.Legals(role) {
			lit, err := n.lit(net.Prop(l))
			if err != nil {
				return nil, err
			}
			legals = append(legals, lit)
		}
		queries = append(queries, query{NoLegalMove, role, e.c.And(terminal.Not(), e.c.Ors(legals...).Not())})
	}

	g := gini.New()
	e.c.ToCnf(g)
	var findings []Finding
	for _, q := range queries {
		g.Assume(q.lit)
		if g.Solve() == 1 {
			findings = append(findings, Finding{Kind: q.kind, Role: net.Roles()[q.role], True: e.assignment(g)})
		}
	}
	log.Debug().Msgf("audit of %d roles found %d issues", len(net.Roles()), len(findings))
	return findings, nil
}
