package operator

import (
	"errors"
	"fmt"

	"ggp/meta"
	"ggp/propnet"

	"github.com/rs/zerolog/log"
)

// ErrChunkLimit is returned when a single instruction is larger than the
// chunk ceiling and cannot be split.
var ErrChunkLimit = errors.New("instruction exceeds chunk cost ceiling")

type opcode uint8

const (
	opFalse opcode = iota
	opTrue
	opCopy
	opNot
	opAnd
	opOr
)

func (o opcode) String() string {
	return [...]string{"FALSE", "TRUE", "COPY", "NOT", "AND", "OR"}[o]
}

// instr writes slot dst from the operands args[lo:hi] of its chunk.
type instr struct {
	op     opcode
	dst    int32
	lo, hi int32
}

type chunk struct {
	code []instr
	args []int32
	cost int
}

type procedure struct {
	name   string
	chunks []chunk
}

func (p *procedure) instructions() int {
	n := 0
	for i := range p.chunks {
		n += len(p.chunks[i].code)
	}
	return n
}

type Stats struct {
	Instructions int
	Folded       int
	Dropped      int
	Chunks       int
	Procedures   int
	Scratch      int
}

// Program is the compiled form of a Schedule: one procedure per ordering,
// each split into chunks of bounded cost.
type Program struct {
	width      int
	internal   procedure
	terminal   procedure
	transition procedure
	legal      []procedure
	goal       []procedure
	stats      Stats
}

// Width is the length of the state array the program reads and writes.
func (p *Program) Width() int { return p.width }

func (p *Program) Roles() int { return len(p.legal) }

func (p *Program) Stats() Stats { return p.stats }

func (p *Program) procedures() []*procedure {
	procs := []*procedure{&p.internal, &p.terminal, &p.transition}
	for i := range p.legal {
		procs = append(procs, &p.legal[i])
	}
	for i := range p.goal {
		procs = append(procs, &p.goal[i])
	}
	return procs
}

type Option func(*compiler)

// WithMaxChunkCost sets the ceiling on the summed cost of one chunk. An
// instruction costs one plus its operand count.
func WithMaxChunkCost(cost int) Option {
	return func(c *compiler) {
		if cost > 0 {
			c.maxCost = cost
		}
	}
}

type compiler struct {
	net     *propnet.Network
	maxCost int
	stats   Stats
	scratch int
}

// Compile lowers every ordering of sched into micro-op procedures.
func Compile(net *propnet.Network, sched *propnet.Schedule, options ...Option) (*Program, error) {
	c := &compiler{net: net, maxCost: meta.MAX_CHUNK_COST}
	for _, option := range options {
		option(c)
	}

	p := &Program{
		legal: make([]procedure, len(sched.Legal)),
		goal:  make([]procedure, len(sched.Goal)),
	}
	var err error
	if p.internal, err = c.lower("internal", sched.Full); err != nil {
		return nil, err
	}
	if p.terminal, err = c.lower("terminal", sched.Terminal); err != nil {
		return nil, err
	}
	if p.transition, err = c.lowerTransition(sched.Transition); err != nil {
		return nil, err
	}
	for role := range sched.Legal {
		if p.legal[role], err = c.lower(fmt.Sprintf("legal[%d]", role), sched.Legal[role]); err != nil {
			return nil, err
		}
		if p.goal[role], err = c.lower(fmt.Sprintf("goal[%d]", role), sched.Goal[role]); err != nil {
			return nil, err
		}
	}

	p.width = net.Size() + c.scratch
	for _, proc := range p.procedures() {
		c.stats.Procedures++
		c.stats.Chunks += len(proc.chunks)
		c.stats.Instructions += proc.instructions()
	}
	c.stats.Scratch = c.scratch
	p.stats = c.stats

	log.Debug().Msgf("compiled propnet: %d instructions in %d chunks over %d procedures, %d folded, %d operands dropped",
		p.stats.Instructions, p.stats.Chunks, p.stats.Procedures, p.stats.Folded, p.stats.Dropped)
	return p, nil
}

// builder appends instructions to a procedure, opening a new chunk when
// the current one would exceed the cost ceiling.
type builder struct {
	proc    procedure
	maxCost int
}

func (b *builder) emit(op opcode, dst int, operands ...int) error {
	cost := 1 + len(operands)
	if cost > b.maxCost {
		return fmt.Errorf("%w: %s writes slot %d with cost %d > %d", ErrChunkLimit, b.proc.name, dst, cost, b.maxCost)
	}
	n := len(b.proc.chunks)
	if n == 0 || b.proc.chunks[n-1].cost+cost > b.maxCost {
		b.proc.chunks = append(b.proc.chunks, chunk{})
		n++
	}
	ch := &b.proc.chunks[n-1]
	lo := int32(len(ch.args))
	for _, o := range operands {
		ch.args = append(ch.args, int32(o))
	}
	ch.code = append(ch.code, instr{op: op, dst: int32(dst), lo: lo, hi: int32(len(ch.args))})
	ch.cost += cost
	return nil
}

func (c *compiler) lower(name string, order propnet.Ordering) (procedure, error) {
	b := &builder{proc: procedure{name: name}, maxCost: c.maxCost}
	circuit := c.net.Circuit()
	for _, i := range order {
		src := c.net.Source(i)
		var err error
		switch kind := circuit.Kind(src); kind {
		case propnet.Constant:
			c.stats.Folded++
			err = b.emit(constant(circuit.Value(src)), i)
		case propnet.Not:
			in := circuit.Inputs(src)[0]
			if v, ok := c.net.Static(in); ok {
				c.stats.Folded++
				err = b.emit(constant(!v), i)
			} else {
				err = b.emit(opNot, i, c.net.Slot(in))
			}
		case propnet.And, propnet.Or:
			err = c.lowerGate(b, i, kind, circuit.Inputs(src))
		default:
			err = fmt.Errorf("%w: %s is defined by a %s", propnet.ErrMalformed, c.net.Name(i), kind)
		}
		if err != nil {
			return procedure{}, err
		}
	}
	return b.proc, nil
}

// lowerGate folds static operands: for AND a false operand decides the
// result and true operands are dropped; OR is the dual.
func (c *compiler) lowerGate(b *builder, dst int, kind propnet.Kind, inputs []propnet.ID) error {
	decisive := kind == propnet.Or
	operands := make([]int, 0, len(inputs))
	for _, in := range inputs {
		v, ok := c.net.Static(in)
		if !ok {
			operands = append(operands, c.net.Slot(in))
			continue
		}
		if v == decisive {
			c.stats.Folded++
			return b.emit(constant(decisive), dst)
		}
		c.stats.Dropped++
	}

	switch len(operands) {
	case 0:
		c.stats.Folded++
		return b.emit(constant(!decisive), dst)
	case 1:
		return b.emit(opCopy, dst, operands[0])
	}
	if kind == propnet.And {
		return b.emit(opAnd, dst, operands...)
	}
	return b.emit(opOr, dst, operands...)
}

// lowerTransition copies each base proposition's transition source into
// it. Sources that are base slots themselves are staged through scratch
// slots first, so no copy reads an already advanced base value.
func (c *compiler) lowerTransition(order propnet.Ordering) (procedure, error) {
	b := &builder{proc: procedure{name: "transition"}, maxCost: c.maxCost}
	circuit := c.net.Circuit()
	type copyOp struct{ dst, src int }
	var staged, fixed, direct []copyOp

	for _, i := range order {
		in := circuit.Inputs(c.net.Source(i))[0]
		if v, ok := c.net.Static(in); ok {
			c.stats.Folded++
			src := 0
			if v {
				src = 1
			}
			fixed = append(fixed, copyOp{dst: i, src: src})
			continue
		}
		src := c.net.Slot(in)
		if src >= c.net.BaseStart() && src < c.net.InputStart() {
			scratch := c.net.Size() + c.scratch
			c.scratch++
			staged = append(staged, copyOp{dst: scratch, src: src})
			direct = append(direct, copyOp{dst: i, src: scratch})
			continue
		}
		direct = append(direct, copyOp{dst: i, src: src})
	}

	for _, op := range staged {
		if err := b.emit(opCopy, op.dst, op.src); err != nil {
			return procedure{}, err
		}
	}
	for _, op := range fixed {
		if err := b.emit(constant(op.src == 1), op.dst); err != nil {
			return procedure{}, err
		}
	}
	for _, op := range direct {
		if err := b.emit(opCopy, op.dst, op.src); err != nil {
			return procedure{}, err
		}
	}
	return b.proc, nil
}

func constant(v bool) opcode {
	if v {
		return opTrue
	}
	return opFalse
}
