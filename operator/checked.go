package operator

import (
	"slices"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// CheckedOperator runs a primary operator and verifies each call against a
// reference operator on a copy of the array. The primary's result is
// always the one written back.
type CheckedOperator struct {
	primary    Operator
	reference  Operator
	mismatches atomic.Int64
}

func NewChecked(primary, reference Operator) *CheckedOperator {
	return &CheckedOperator{primary: primary, reference: reference}
}

// Mismatches is the number of calls on which the two operators disagreed.
func (c *CheckedOperator) Mismatches() int64 {
	return c.mismatches.Load()
}

func (c *CheckedOperator) check(name string, props []bool, run func(Operator, []bool)) {
	shadow := slices.Clone(props)
	run(c.primary, props)
	run(c.reference, shadow)
	if !slices.Equal(props, shadow) {
		c.mismatches.Add(1)
		for i := range props {
			if props[i] != shadow[i] {
				log.Error().Msgf("operator mismatch in %s: slot %d is %t, reference has %t", name, i, props[i], shadow[i])
				break
			}
		}
	}
}

func (c *CheckedOperator) Propagate(props []bool) {
	c.check("propagate", props, func(o Operator, p []bool) { o.Propagate(p) })
}

func (c *CheckedOperator) PropagateInternal(props []bool) {
	c.check("internal", props, func(o Operator, p []bool) { o.PropagateInternal(p) })
}

func (c *CheckedOperator) Transition(props []bool) {
	c.check("transition", props, func(o Operator, p []bool) { o.Transition(p) })
}

func (c *CheckedOperator) PropagateTerminal(props []bool) {
	c.check("terminal", props, func(o Operator, p []bool) { o.PropagateTerminal(p) })
}

func (c *CheckedOperator) PropagateLegal(props []bool, role int) {
	c.check("legal", props, func(o Operator, p []bool) { o.PropagateLegal(p, role) })
}

func (c *CheckedOperator) PropagateGoal(props []bool, role int) {
	c.check("goal", props, func(o Operator, p []bool) { o.PropagateGoal(p, role) })
}
