package operator

type step func(props []bool)

// block is one compiled chunk.
type block []step

type compiledProc []block

type closures struct {
	internal   compiledProc
	terminal   compiledProc
	transition compiledProc
	legal      []compiledProc
	goal       []compiledProc
}

// NewClosures specializes every instruction of p into a closure with its
// operand slots bound, ahead of any propagation.
func NewClosures(p *Program) Operator {
	o := &closures{
		internal:   specializeProc(&p.internal),
		terminal:   specializeProc(&p.terminal),
		transition: specializeProc(&p.transition),
		legal:      make([]compiledProc, len(p.legal)),
		goal:       make([]compiledProc, len(p.goal)),
	}
	for i := range p.legal {
		o.legal[i] = specializeProc(&p.legal[i])
	}
	for i := range p.goal {
		o.goal[i] = specializeProc(&p.goal[i])
	}
	return o
}

func (o *closures) Propagate(props []bool) {
	o.internal.run(props)
	o.transition.run(props)
}

func (o *closures) PropagateInternal(props []bool)       { o.internal.run(props) }
func (o *closures) Transition(props []bool)              { o.transition.run(props) }
func (o *closures) PropagateTerminal(props []bool)       { o.terminal.run(props) }
func (o *closures) PropagateLegal(props []bool, role int) { o.legal[role].run(props) }
func (o *closures) PropagateGoal(props []bool, role int)  { o.goal[role].run(props) }

func (c compiledProc) run(props []bool) {
	for _, b := range c {
		for _, s := range b {
			s(props)
		}
	}
}

func specializeProc(proc *procedure) compiledProc {
	out := make(compiledProc, len(proc.chunks))
	for i := range proc.chunks {
		ch := &proc.chunks[i]
		b := make(block, len(ch.code))
		for j, in := range ch.code {
			b[j] = specialize(in, ch.args[in.lo:in.hi])
		}
		out[i] = b
	}
	return out
}

func specialize(in instr, operands []int32) step {
	dst := in.dst
	switch in.op {
	case opFalse:
		return func(p []bool) { p[dst] = false }
	case opTrue:
		return func(p []bool) { p[dst] = true }
	case opCopy:
		a := operands[0]
		return func(p []bool) { p[dst] = p[a] }
	case opNot:
		a := operands[0]
		return func(p []bool) { p[dst] = !p[a] }
	case opAnd:
		if len(operands) == 2 {
			a, b := operands[0], operands[1]
			return func(p []bool) { p[dst] = p[a] && p[b] }
		}
		ops := append([]int32(nil), operands...)
		return func(p []bool) {
			for _, a := range ops {
				if !p[a] {
					p[dst] = false
					return
				}
			}
			p[dst] = true
		}
	case opOr:
		if len(operands) == 2 {
			a, b := operands[0], operands[1]
			return func(p []bool) { p[dst] = p[a] || p[b] }
		}
		ops := append([]int32(nil), operands...)
		return func(p []bool) {
			for _, a := range ops {
				if p[a] {
					p[dst] = true
					return
				}
			}
			p[dst] = false
		}
	}
	panic("unknown opcode " + in.op.String())
}
