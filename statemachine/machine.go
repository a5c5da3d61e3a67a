// Package statemachine answers game queries on top of a compiled propnet.
// A Machine is built once per game and is safe for concurrent use: every
// query works on its own pooled array.
package statemachine

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"ggp/gdl"
	"ggp/meta"
	"ggp/operator"
	"ggp/propnet"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// StateMachine is the query surface consumed by search.
type StateMachine interface {
	Roles() []Role
	InitialState() MachineState
	IsTerminal(s MachineState) bool
	LegalMoves(s MachineState, role Role) ([]Move, error)
	NextState(s MachineState, joint []Move) (MachineState, error)
	Goal(s MachineState, role Role) (int, error)
}

// DepthCharger plays a random game from s to the end and returns the
// terminal state with the number of moves played.
type DepthCharger interface {
	DepthCharge(s MachineState, rng *rand.Rand) (MachineState, int, error)
}

type SimplifyMode int

const (
	SimplifyOnce SimplifyMode = iota
	SimplifyFixedPoint
	SimplifyOff
)

func (m SimplifyMode) String() string {
	switch m {
	case SimplifyOnce:
		return "once"
	case SimplifyFixedPoint:
		return "fixed-point"
	case SimplifyOff:
		return "off"
	}
	return fmt.Sprintf("simplify(%d)", int(m))
}

func ParseSimplifyMode(s string) (SimplifyMode, error) {
	switch strings.ToLower(s) {
	case "once", "":
		return SimplifyOnce, nil
	case "fixed-point", "fixedpoint":
		return SimplifyFixedPoint, nil
	case "off", "none":
		return SimplifyOff, nil
	}
	return 0, fmt.Errorf("unknown simplify mode %q", s)
}

type Option func(m *Machine)

func WithBackend(backend operator.Backend) Option {
	return func(m *Machine) {
		m.backend = backend
	}
}

func WithMaxChunkCost(cost int) Option {
	return func(m *Machine) {
		if cost > 0 {
			m.maxChunkCost = cost
		}
	}
}

func WithSimplify(mode SimplifyMode) Option {
	return func(m *Machine) {
		m.simplify = mode
	}
}

// WithDepthLimit bounds the number of moves in a depth charge.
func WithDepthLimit(limit int) Option {
	return func(m *Machine) {
		if limit > 0 {
			m.depthLimit = limit
		}
	}
}

// Stats describes what construction produced.
type Stats struct {
	Components    int
	Bases         int
	Inputs        int
	Internal      int
	FullOrder     int
	TerminalOrder int
	LegalOrder    []int
	GoalOrder     []int
	Simplify      propnet.SimplifyStats
	Program       operator.Stats
}

type Machine struct {
	backend      operator.Backend
	maxChunkCost int
	simplify     SimplifyMode
	depthLimit   int

	roles   []Role
	roleIdx map[Role]int
	net     *propnet.Network
	program *operator.Program
	op      operator.Operator
	stats   Stats

	moves  [][]Move       // per role, aligned with net.Legals(role)
	inputs []map[Move]int // per role, move to input index
	values [][]int

	arrays  sync.Pool
	initial MachineState

	legalReadsMoves bool // some legal proposition depends on a does input
}

// New compiles circuit into a Machine. The circuit is cloned first, so the
// caller keeps ownership of c.
func New(roles []gdl.Term, c *propnet.Circuit, options ...Option) (*Machine, error) {
	m := &Machine{ // Default values
		backend:      operator.Interpreter,
		maxChunkCost: meta.MAX_CHUNK_COST,
		simplify:     SimplifyOnce,
		depthLimit:   meta.DEPTH_CHARGE_LIMIT,
	}
	for _, option := range options {
		option(m)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	c = c.Clone()
	switch m.simplify {
	case SimplifyOnce:
		m.stats.Simplify = propnet.Simplify(c)
	case SimplifyFixedPoint:
		m.stats.Simplify = propnet.Simplify(c, propnet.UntilFixedPoint())
	}

	net, err := propnet.NewNetwork(roles, c)
	if err != nil {
		return nil, fmt.Errorf("index propnet: %w", err)
	}
	sched, err := net.Schedule()
	if err != nil {
		return nil, fmt.Errorf("schedule propnet: %w", err)
	}
	program, err := operator.Compile(net, sched, operator.WithMaxChunkCost(m.maxChunkCost))
	if err != nil {
		return nil, fmt.Errorf("compile propnet: %w", err)
	}
	op, err := operator.New(program, m.backend)
	if err != nil {
		return nil, err
	}
	m.net, m.program, m.op = net, program, op

	m.index()
	m.legalReadsMoves = m.readsMoves()
	m.collectStats(sched)
	m.arrays.New = func() any {
		props := make([]bool, program.Width())
		return &props
	}
	m.initial = m.computeInitialState()

	log.Info().Msgf("state machine ready: %d roles, %d base, %d input, %d internal propositions, %d instructions, %s backend",
		len(m.roles), m.stats.Bases, m.stats.Inputs, m.stats.Internal, m.stats.Program.Instructions, m.backend)
	return m, nil
}

func (m *Machine) index() {
	n := len(m.net.Roles())
	m.roles = make([]Role, n)
	m.roleIdx = make(map[Role]int, n)
	m.moves = make([][]Move, n)
	m.inputs = make([]map[Move]int, n)
	m.values = make([][]int, n)
	for r, t := range m.net.Roles() {
		m.roles[r] = NewRole(t)
		m.roleIdx[m.roles[r]] = r
		m.inputs[r] = make(map[Move]int)
		for _, l := range m.net.Legals(r) {
			m.moves[r] = append(m.moves[r], NewMove(m.net.Name(l).Arg(1)))
		}
		for _, g := range m.net.Goals(r) {
			m.values[r] = append(m.values[r], g.Value)
		}
		slices.Sort(m.values[r])
		m.values[r] = slices.Compact(m.values[r])
	}
	for i := m.net.InputStart(); i < m.net.InternalStart(); i++ {
		m.inputs[m.net.Owner(i)][NewMove(m.net.Name(i).Arg(1))] = i
	}
}

// readsMoves walks back from every legal proposition through the current
// step's logic, stopping at transitions and base propositions, and reports
// whether an input is reached.
func (m *Machine) readsMoves() bool {
	c := m.net.Circuit()
	seen := make(map[propnet.ID]bool)
	var stack []propnet.ID
	for r := range m.roles {
		for _, l := range m.net.Legals(r) {
			stack = append(stack, m.net.Prop(l))
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] || c.Kind(id) == propnet.Transition {
			continue
		}
		seen[id] = true
		if slot := m.net.Slot(id); slot >= m.net.BaseStart() && slot < m.net.InternalStart() {
			if slot >= m.net.InputStart() {
				return true
			}
			continue
		}
		stack = append(stack, c.Inputs(id)...)
	}
	return false
}

func (m *Machine) collectStats(sched *propnet.Schedule) {
	m.stats.Components = m.net.Circuit().Live()
	m.stats.Bases = m.net.InputStart() - m.net.BaseStart()
	m.stats.Inputs = m.net.InternalStart() - m.net.InputStart()
	m.stats.Internal = m.net.Size() - m.net.InternalStart()
	m.stats.FullOrder = len(sched.Full)
	m.stats.TerminalOrder = len(sched.Terminal)
	for r := range sched.Legal {
		m.stats.LegalOrder = append(m.stats.LegalOrder, len(sched.Legal[r]))
		m.stats.GoalOrder = append(m.stats.GoalOrder, len(sched.Goal[r]))
	}
	m.stats.Program = m.program.Stats()
}

func (m *Machine) acquire() []bool {
	return *m.arrays.Get().(*[]bool)
}

func (m *Machine) release(props []bool) {
	clear(props)
	m.arrays.Put(&props)
}

// load writes s into the base region of a cleared array.
func (m *Machine) load(props []bool, s MachineState) {
	if s.Len() != m.stats.Bases {
		panic(fmt.Sprintf("state with %d base facts given to a machine with %d", s.Len(), m.stats.Bases))
	}
	s.unpack(props[m.net.BaseStart():m.net.InputStart()])
}

func (m *Machine) snapshot(props []bool) MachineState {
	return pack(props[m.net.BaseStart():m.net.InputStart()])
}

func (m *Machine) role(role Role) (int, error) {
	r, ok := m.roleIdx[role]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return r, nil
}

func (m *Machine) computeInitialState() MachineState {
	props := m.acquire()
	defer m.release(props)

	props[m.net.InitIndex()] = true
	m.op.Propagate(props)
	return m.snapshot(props)
}

func (m *Machine) Roles() []Role { return slices.Clone(m.roles) }

func (m *Machine) InitialState() MachineState { return m.initial }

func (m *Machine) IsTerminal(s MachineState) bool {
	props := m.acquire()
	defer m.release(props)

	m.load(props, s)
	m.op.PropagateTerminal(props)
	return props[m.net.Terminal()]
}

// LegalMoves tests each of role's legal propositions with only its paired
// input set. A terminal state may have no legal moves and yields an empty
// result. A non-terminal state without legal moves is a *MoveDefinitionError.
func (m *Machine) LegalMoves(s MachineState, role Role) ([]Move, error) {
	r, err := m.role(role)
	if err != nil {
		return nil, err
	}
	props := m.acquire()
	defer m.release(props)

	m.load(props, s)
	var moves []Move
	for k, l := range m.net.Legals(r) {
		in := m.net.Paired(l)
		props[in] = true
		m.op.PropagateLegal(props, r)
		props[in] = false
		if props[l] {
			moves = append(moves, m.moves[r][k])
		}
	}
	if len(moves) == 0 {
		m.op.PropagateTerminal(props)
		if props[m.net.Terminal()] {
			return nil, nil
		}
		return nil, &MoveDefinitionError{State: s, Role: role}
	}
	return moves, nil
}

// NextState applies one move per role, in role order. Legality is not
// checked.
func (m *Machine) NextState(s MachineState, joint []Move) (MachineState, error) {
	if len(joint) != len(m.roles) {
		return MachineState{}, &TransitionDefinitionError{State: s, Moves: joint,
			Err: fmt.Errorf("%w: %d moves for %d roles", ErrUnknownMove, len(joint), len(m.roles))}
	}
	props := m.acquire()
	defer m.release(props)

	m.load(props, s)
	for r, move := range joint {
		in, ok := m.inputs[r][move]
		if !ok {
			return MachineState{}, &TransitionDefinitionError{State: s, Moves: joint,
				Err: fmt.Errorf("%w: %s for role %s", ErrUnknownMove, move, m.roles[r])}
		}
		props[in] = true
	}
	m.op.Propagate(props)
	return m.snapshot(props), nil
}

// Goal returns role's payoff in s. Anything other than exactly one true goal
// proposition is a *GoalDefinitionError.
func (m *Machine) Goal(s MachineState, role Role) (int, error) {
	r, err := m.role(role)
	if err != nil {
		return 0, err
	}
	props := m.acquire()
	defer m.release(props)

	m.load(props, s)
	m.op.PropagateGoal(props, r)
	var matches []int
	for _, g := range m.net.Goals(r) {
		if props[g.Index] {
			matches = append(matches, g.Value)
		}
	}
	if len(matches) != 1 {
		return 0, &GoalDefinitionError{State: s, Role: role, Matches: matches}
	}
	return matches[0], nil
}

// GoalValues lists role's declared payoffs in ascending order.
func (m *Machine) GoalValues(role Role) ([]int, error) {
	r, err := m.role(role)
	if err != nil {
		return nil, err
	}
	return slices.Clone(m.values[r]), nil
}

// DepthCharge plays uniformly random joint moves from s on a single array
// until a terminal state. Legality is read from one internal propagation
// with no inputs set. When a legal proposition reads a does input, each
// candidate is tested with its paired input set, as in LegalMoves.
func (m *Machine) DepthCharge(s MachineState, rng *rand.Rand) (MachineState, int, error) {
	props := m.acquire()
	defer m.release(props)

	m.load(props, s)
	inputs := props[m.net.InputStart():m.net.InternalStart()]
	picks := make([]int, len(m.roles))
	var choices []int
	for depth := 0; ; depth++ {
		clear(inputs)
		m.op.PropagateInternal(props)
		if props[m.net.Terminal()] {
			return m.snapshot(props), depth, nil
		}
		if depth == m.depthLimit {
			return MachineState{}, depth, fmt.Errorf("%w: depth charge did not end within %d moves", ErrNotComputable, depth)
		}
		for r := range m.roles {
			choices = choices[:0]
			for _, l := range m.net.Legals(r) {
				if m.legalReadsMoves {
					in := m.net.Paired(l)
					props[in] = true
					m.op.PropagateLegal(props, r)
					props[in] = false
				}
				if props[l] {
					choices = append(choices, l)
				}
			}
			if len(choices) == 0 {
				return MachineState{}, depth, &MoveDefinitionError{State: m.snapshot(props), Role: m.roles[r]}
			}
			picks[r] = m.net.Paired(choices[rng.Intn(len(choices))])
		}
		for _, in := range picks {
			props[in] = true
		}
		m.op.Propagate(props)
	}
}

// Describe lists the base facts that hold in s.
func (m *Machine) Describe(s MachineState) []gdl.Term {
	var facts []gdl.Term
	for i := 0; i < s.Len(); i++ {
		if !s.Has(i) {
			continue
		}
		name := m.net.Name(m.net.BaseStart() + i)
		if name.Is(gdl.True) && name.Arity() == 1 {
			name = name.Arg(0)
		}
		facts = append(facts, name)
	}
	return facts
}

// StateFromFacts builds the state in which exactly facts hold.
func (m *Machine) StateFromFacts(facts []gdl.Term) (MachineState, error) {
	base := make([]bool, m.stats.Bases)
	for _, f := range facts {
		i, ok := m.net.Lookup(gdl.Func(gdl.True, f))
		if !ok {
			i, ok = m.net.Lookup(f)
		}
		if !ok || i < m.net.BaseStart() || i >= m.net.InputStart() {
			return MachineState{}, fmt.Errorf("%s is not a base fact", f)
		}
		base[i-m.net.BaseStart()] = true
	}
	return pack(base), nil
}

func (m *Machine) Network() *propnet.Network { return m.net }

func (m *Machine) Stats() Stats { return m.stats }

// Mismatches reports disagreements seen by a checked backend, or zero.
func (m *Machine) Mismatches() int64 {
	if checked, ok := m.op.(*operator.CheckedOperator); ok {
		return checked.Mismatches()
	}
	return 0
}
