package operator

type interpreter struct {
	p *Program
}

// NewInterpreter returns an Operator that executes the program with a flat
// dispatch loop.
func NewInterpreter(p *Program) Operator {
	return &interpreter{p: p}
}

func (o *interpreter) Propagate(props []bool) {
	o.PropagateInternal(props)
	o.Transition(props)
}

func (o *interpreter) PropagateInternal(props []bool) {
	execute(&o.p.internal, props)
}

func (o *interpreter) Transition(props []bool) {
	execute(&o.p.transition, props)
}

func (o *interpreter) PropagateTerminal(props []bool) {
	execute(&o.p.terminal, props)
}

func (o *interpreter) PropagateLegal(props []bool, role int) {
	execute(&o.p.legal[role], props)
}

func (o *interpreter) PropagateGoal(props []bool, role int) {
	execute(&o.p.goal[role], props)
}

func execute(proc *procedure, props []bool) {
	for i := range proc.chunks {
		executeChunk(&proc.chunks[i], props)
	}
}

func executeChunk(ch *chunk, props []bool) {
	args := ch.args
	for _, in := range ch.code {
		switch in.op {
		case opFalse:
			props[in.dst] = false
		case opTrue:
			props[in.dst] = true
		case opCopy:
			props[in.dst] = props[args[in.lo]]
		case opNot:
			props[in.dst] = !props[args[in.lo]]
		case opAnd:
			v := true
			for _, a := range args[in.lo:in.hi] {
				if !props[a] {
					v = false
					break
				}
			}
			props[in.dst] = v
		case opOr:
			v := false
			for _, a := range args[in.lo:in.hi] {
				if props[a] {
					v = true
					break
				}
			}
			props[in.dst] = v
		}
	}
}
