package propnet

import (
	"fmt"
	"strconv"

	"ggp/gdl"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

// Tag is the role a proposition plays, derived from its name once while
// indexing and never recomputed.
type Tag uint8

const (
	TagNone Tag = iota
	TagInit
	TagTerminal
	TagInput
	TagLegal
	TagGoal
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagInit:
		return "init"
	case TagTerminal:
		return "terminal"
	case TagInput:
		return "input"
	case TagLegal:
		return "legal"
	case TagGoal:
		return "goal"
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

func classify(name gdl.Term) Tag {
	if name.IsConstant() {
		switch name.Name() {
		case gdl.Init:
			return TagInit
		case gdl.Terminal:
			return TagTerminal
		}
		return TagNone
	}
	switch name.Name() {
	case gdl.Does:
		return TagInput
	case gdl.Legal:
		return TagLegal
	case gdl.Goal:
		return TagGoal
	}
	return TagNone
}

// Goal pairs a goal proposition's index with its declared payoff.
type Goal struct {
	Index int
	Value int
}

// Network is an indexed, frozen propnet. Propositions live in one flat
// array: INIT at 0, then base, input and internal regions.
type Network struct {
	circuit *Circuit
	roles   []gdl.Term

	props  []ID
	slots  []int
	tags   []Tag
	owners []int

	baseStart     int
	inputStart    int
	internalStart int
	terminal      int

	legals [][]int
	goals  [][]Goal
	paired []int
}

// NewNetwork classifies and indexes the propositions of c. The network
// takes ownership of c; it must not be modified afterwards.
func NewNetwork(roles []gdl.Term, c *Circuit) (*Network, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result *multierror.Error
	roleIndex := make(map[string]int, len(roles))
	for i, r := range roles {
		if _, ok := roleIndex[r.String()]; ok {
			result = multierror.Append(result, fmt.Errorf("duplicate role %s", r))
		}
		roleIndex[r.String()] = i
	}
	if len(roles) == 0 {
		result = multierror.Append(result, fmt.Errorf("no roles declared"))
	}

	init, terminal := NoID, NoID
	var bases, inputs, internals []ID
	for _, id := range c.IDs() {
		if c.Kind(id) != Proposition {
			continue
		}
		tag := classify(c.Name(id))
		ins := c.Inputs(id)
		switch {
		case tag == TagInit:
			if init != NoID {
				result = multierror.Append(result, fmt.Errorf("duplicate INIT proposition"))
			}
			init = id
			continue
		case len(ins) == 1 && c.Kind(ins[0]) == Transition:
			bases = append(bases, id)
		case tag == TagInput:
			inputs = append(inputs, id)
		case len(ins) >= 1:
			internals = append(internals, id)
		}
		if tag == TagTerminal {
			if terminal != NoID {
				result = multierror.Append(result, fmt.Errorf("duplicate terminal proposition"))
			}
			terminal = id
		}
	}
	if init == NoID {
		result = multierror.Append(result, fmt.Errorf("no INIT proposition"))
	}
	if terminal == NoID {
		result = multierror.Append(result, fmt.Errorf("no terminal proposition"))
	} else if len(c.Inputs(terminal)) == 0 {
		result = multierror.Append(result, fmt.Errorf("terminal proposition has no definition"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	n := &Network{
		circuit: c,
		roles:   roles,
		slots:   make([]int, c.Len()),
	}
	for i := range n.slots {
		n.slots[i] = -1
	}
	n.place(init)
	n.baseStart = len(n.props)
	for _, id := range bases {
		n.place(id)
	}
	n.inputStart = len(n.props)
	for _, id := range inputs {
		n.place(id)
	}
	n.internalStart = len(n.props)
	for _, id := range internals {
		n.place(id)
	}
	n.terminal = n.slots[terminal]

	n.legals = make([][]int, len(roles))
	n.goals = make([][]Goal, len(roles))
	n.paired = make([]int, len(n.props))
	for i := range n.paired {
		n.paired[i] = -1
	}

	moves := make(map[string]int)
	for i, id := range n.props {
		name := c.Name(id)
		tag := n.tags[i]
		if tag != TagInput && tag != TagLegal && tag != TagGoal {
			continue
		}
		role, ok := roleIndex[name.Arg(0).String()]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%s refers to an undeclared role", name))
			continue
		}
		n.owners[i] = role
		switch tag {
		case TagInput:
			moves[name.Body()] = i
		case TagLegal:
			n.legals[role] = append(n.legals[role], i)
		case TagGoal:
			value, err := strconv.Atoi(name.Arg(1).String())
			if err != nil || !name.Arg(1).IsConstant() {
				result = multierror.Append(result, fmt.Errorf("%s has a non-numeric payoff", name))
				continue
			}
			n.goals[role] = append(n.goals[role], Goal{Index: i, Value: value})
		}
	}

	for role, legals := range n.legals {
		if len(legals) == 0 {
			result = multierror.Append(result, fmt.Errorf("role %s has no legal propositions", roles[role]))
		}
		for _, l := range legals {
			in, ok := moves[c.Name(n.props[l]).Body()]
			if !ok {
				result = multierror.Append(result, fmt.Errorf("%s has no matching does input", c.Name(n.props[l])))
				continue
			}
			n.paired[l] = in
			n.paired[in] = l
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for i := n.inputStart; i < n.internalStart; i++ {
		if n.paired[i] < 0 {
			log.Warn().Msgf("input %s has no matching legal proposition", n.Name(i))
		}
	}
	for role, goals := range n.goals {
		if len(goals) == 0 {
			log.Warn().Msgf("role %s has no goal propositions", roles[role])
		}
	}

	log.Debug().Msgf("indexed propnet: %d base, %d input, %d internal propositions",
		n.inputStart-n.baseStart, n.internalStart-n.inputStart, len(n.props)-n.internalStart)
	return n, nil
}

func (n *Network) place(id ID) {
	n.slots[id] = len(n.props)
	n.props = append(n.props, id)
	n.tags = append(n.tags, classify(n.circuit.Name(id)))
	n.owners = append(n.owners, -1)
}

func (n *Network) Circuit() *Circuit { return n.circuit }

// Size is the number of indexed propositions.
func (n *Network) Size() int { return len(n.props) }

func (n *Network) Roles() []gdl.Term {
	out := make([]gdl.Term, len(n.roles))
	copy(out, n.roles)
	return out
}

func (n *Network) InitIndex() int     { return 0 }
func (n *Network) BaseStart() int     { return n.baseStart }
func (n *Network) InputStart() int    { return n.inputStart }
func (n *Network) InternalStart() int { return n.internalStart }
func (n *Network) Terminal() int      { return n.terminal }

// Prop returns the component behind index i.
func (n *Network) Prop(i int) ID { return n.props[i] }

// Slot returns the index of component id, or -1 when it is not indexed.
func (n *Network) Slot(id ID) int { return n.slots[id] }

func (n *Network) Name(i int) gdl.Term { return n.circuit.Name(n.props[i]) }

func (n *Network) Tag(i int) Tag { return n.tags[i] }

// Owner returns the role index of an input, legal or goal proposition,
// or -1.
func (n *Network) Owner(i int) int { return n.owners[i] }

// Legals returns the legal proposition indices of role.
func (n *Network) Legals(role int) []int { return n.legals[role] }

// Goals returns role's goal propositions paired with their payoffs.
func (n *Network) Goals(role int) []Goal { return n.goals[role] }

// Paired maps a legal index to its input index and back, or returns -1.
func (n *Network) Paired(i int) int { return n.paired[i] }

// Source returns the component defining proposition i, or NoID.
func (n *Network) Source(i int) ID {
	ins := n.circuit.Inputs(n.props[i])
	if len(ins) == 0 {
		return NoID
	}
	return ins[0]
}

// Static reports the fixed value of a component that is not indexed: a
// constant's value or a dead proposition's construction-time slot.
func (n *Network) Static(id ID) (value bool, ok bool) {
	if n.slots[id] >= 0 {
		return false, false
	}
	return n.circuit.Value(id), true
}

// Lookup finds the index of the proposition named name.
func (n *Network) Lookup(name gdl.Term) (int, bool) {
	id, ok := n.circuit.Lookup(name)
	if !ok || n.slots[id] < 0 {
		return -1, false
	}
	return n.slots[id], true
}
