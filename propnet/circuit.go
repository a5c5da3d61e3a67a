package propnet

import (
	"errors"
	"fmt"
	"slices"

	"ggp/gdl"

	"github.com/hashicorp/go-multierror"
)

// ErrMalformed marks a circuit or game description that can never yield a
// usable propnet. It is never retryable.
var ErrMalformed = errors.New("malformed game description")

// ID is a stable handle to a component inside one Circuit.
type ID int32

const NoID ID = -1

type Kind uint8

const (
	Proposition Kind = iota
	And
	Or
	Not
	Constant
	Transition
)

func (k Kind) String() string {
	switch k {
	case Proposition:
		return "proposition"
	case And:
		return "and"
	case Or:
		return "or"
	case Not:
		return "not"
	case Constant:
		return "constant"
	case Transition:
		return "transition"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

type component struct {
	kind    Kind
	name    gdl.Term
	value   bool
	inputs  []ID
	outputs []ID
}

// Circuit is an arena of logic components addressed by ID. Removed
// components keep their handle so IDs stay stable for the circuit's life.
type Circuit struct {
	comps []component
	alive []bool
	live  int
}

func NewCircuit() *Circuit {
	return &Circuit{}
}

func (c *Circuit) add(comp component) ID {
	id := ID(len(c.comps))
	c.comps = append(c.comps, comp)
	c.alive = append(c.alive, true)
	c.live++
	return id
}

func (c *Circuit) AddProposition(name gdl.Term) ID {
	return c.add(component{kind: Proposition, name: name})
}

// AddGate adds an AND, OR, NOT or TRANSITION node.
func (c *Circuit) AddGate(kind Kind) ID {
	switch kind {
	case And, Or, Not, Transition:
	default:
		panic(fmt.Sprintf("AddGate: %s is not a gate kind", kind))
	}
	return c.add(component{kind: kind})
}

func (c *Circuit) AddConstant(value bool) ID {
	return c.add(component{kind: Constant, value: value})
}

// Connect adds the edge from -> to. Connecting an existing edge is a no-op.
func (c *Circuit) Connect(from, to ID) {
	c.check(from)
	c.check(to)
	if slices.Contains(c.comps[to].inputs, from) {
		return
	}
	c.comps[from].outputs = append(c.comps[from].outputs, to)
	c.comps[to].inputs = append(c.comps[to].inputs, from)
}

func (c *Circuit) Disconnect(from, to ID) {
	c.check(from)
	c.check(to)
	c.comps[from].outputs = remove(c.comps[from].outputs, to)
	c.comps[to].inputs = remove(c.comps[to].inputs, from)
}

// Remove detaches id from all neighbours and retires its handle.
func (c *Circuit) Remove(id ID) {
	c.check(id)
	comp := &c.comps[id]
	for _, in := range comp.inputs {
		c.comps[in].outputs = remove(c.comps[in].outputs, id)
	}
	for _, out := range comp.outputs {
		c.comps[out].inputs = remove(c.comps[out].inputs, id)
	}
	comp.inputs = nil
	comp.outputs = nil
	c.alive[id] = false
	c.live--
}

// Define wires a new gate of the given kind from inputs into prop and
// returns the gate.
func (c *Circuit) Define(prop ID, kind Kind, inputs ...ID) ID {
	gate := c.AddGate(kind)
	for _, in := range inputs {
		c.Connect(in, gate)
	}
	c.Connect(gate, prop)
	return gate
}

// Derive adds a proposition named name defined by a gate over inputs.
func (c *Circuit) Derive(name gdl.Term, kind Kind, inputs ...ID) ID {
	prop := c.AddProposition(name)
	c.Define(prop, kind, inputs...)
	return prop
}

// Fix defines prop as a constant.
func (c *Circuit) Fix(prop ID, value bool) ID {
	k := c.AddConstant(value)
	c.Connect(k, prop)
	return k
}

// Latch makes base take the value of source on the next state.
func (c *Circuit) Latch(base, source ID) ID {
	return c.Define(base, Transition, source)
}

// SetValue sets a proposition's construction-time value slot. It is read
// as a static value when the proposition is not indexed.
func (c *Circuit) SetValue(id ID, value bool) {
	c.check(id)
	c.comps[id].value = value
}

func (c *Circuit) check(id ID) {
	if id < 0 || int(id) >= len(c.comps) || !c.alive[id] {
		panic(fmt.Sprintf("component %d does not exist", id))
	}
}

// Len is the number of handles ever issued, including removed ones.
func (c *Circuit) Len() int {
	return len(c.comps)
}

// Live is the number of components that have not been removed.
func (c *Circuit) Live() int {
	return c.live
}

func (c *Circuit) Alive(id ID) bool {
	return id >= 0 && int(id) < len(c.comps) && c.alive[id]
}

func (c *Circuit) Kind(id ID) Kind {
	return c.comps[id].kind
}

func (c *Circuit) Name(id ID) gdl.Term {
	return c.comps[id].name
}

func (c *Circuit) Value(id ID) bool {
	return c.comps[id].value
}

// Inputs returns the input handles of id. The slice must not be modified.
func (c *Circuit) Inputs(id ID) []ID {
	return c.comps[id].inputs
}

// Outputs returns the output handles of id. The slice must not be modified.
func (c *Circuit) Outputs(id ID) []ID {
	return c.comps[id].outputs
}

// IDs lists live handles in ascending order.
func (c *Circuit) IDs() []ID {
	ids := make([]ID, 0, c.live)
	for i, ok := range c.alive {
		if ok {
			ids = append(ids, ID(i))
		}
	}
	return ids
}

// Lookup finds the live proposition named name.
func (c *Circuit) Lookup(name gdl.Term) (ID, bool) {
	for i := range c.comps {
		if c.alive[i] && c.comps[i].kind == Proposition && c.comps[i].name.Equal(name) {
			return ID(i), true
		}
	}
	return NoID, false
}

// Validate checks arity and edge symmetry of every live component.
func (c *Circuit) Validate() error {
	var result *multierror.Error
	for _, id := range c.IDs() {
		comp := &c.comps[id]
		n := len(comp.inputs)
		switch comp.kind {
		case Not, Transition:
			if n != 1 {
				result = multierror.Append(result, fmt.Errorf("%s %d has %d inputs, want 1", comp.kind, id, n))
			}
		case And, Or:
			if n < 1 {
				result = multierror.Append(result, fmt.Errorf("%s %d has no inputs", comp.kind, id))
			}
		case Constant:
			if n != 0 {
				result = multierror.Append(result, fmt.Errorf("constant %d has %d inputs", id, n))
			}
		case Proposition:
			if n > 1 {
				result = multierror.Append(result, fmt.Errorf("proposition %s has %d inputs", comp.name, n))
			}
			if comp.name.IsZero() {
				result = multierror.Append(result, fmt.Errorf("proposition %d has no name", id))
			}
		}

		for _, in := range comp.inputs {
			if !c.Alive(in) {
				result = multierror.Append(result, fmt.Errorf("component %d reads removed component %d", id, in))
				continue
			}
			if !slices.Contains(c.comps[in].outputs, id) {
				result = multierror.Append(result, fmt.Errorf("edge %d -> %d is one-sided", in, id))
			}
			inKind := c.comps[in].kind
			if comp.kind == Proposition && inKind == Proposition {
				result = multierror.Append(result, fmt.Errorf("proposition %s reads proposition %s directly", comp.name, c.comps[in].name))
			}
			if comp.kind != Proposition && inKind != Proposition && inKind != Constant {
				result = multierror.Append(result, fmt.Errorf("%s %d reads %s %d, want a proposition", comp.kind, id, inKind, in))
			}
		}
		for _, out := range comp.outputs {
			if !c.Alive(out) {
				result = multierror.Append(result, fmt.Errorf("component %d feeds removed component %d", id, out))
				continue
			}
			if comp.kind != Proposition && comp.kind != Constant && c.comps[out].kind != Proposition {
				result = multierror.Append(result, fmt.Errorf("%s %d feeds %s %d, want a proposition", comp.kind, id, c.comps[out].kind, out))
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Clone returns a deep copy with identical handles.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		comps: make([]component, len(c.comps)),
		alive: slices.Clone(c.alive),
		live:  c.live,
	}
	for i, comp := range c.comps {
		comp.inputs = slices.Clone(comp.inputs)
		comp.outputs = slices.Clone(comp.outputs)
		out.comps[i] = comp
	}
	return out
}

// Snapshot materializes the components in ids as a new circuit. Edges to
// components outside the set are dropped and handles are renumbered in the
// order given.
func (c *Circuit) Snapshot(ids []ID) *Circuit {
	remap := make(map[ID]ID, len(ids))
	out := NewCircuit()
	for _, id := range ids {
		c.check(id)
		comp := c.comps[id]
		remap[id] = out.add(component{kind: comp.kind, name: comp.name, value: comp.value})
	}
	for _, id := range ids {
		for _, in := range c.comps[id].inputs {
			if from, ok := remap[in]; ok {
				out.Connect(from, remap[id])
			}
		}
	}
	return out
}

func remove(ids []ID, id ID) []ID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
