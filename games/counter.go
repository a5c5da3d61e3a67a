// Package games builds small propnets directly, as a flattener would emit
// them. They serve as fixtures and as demo inputs for the command line.
package games

import (
	"fmt"

	"ggp/gdl"
	"ggp/propnet"
)

// Game is a flattened description: roles plus the component graph.
type Game struct {
	Name    string
	Roles   []gdl.Term
	Circuit *propnet.Circuit
}

func fact(name string, args ...any) gdl.Term {
	terms := make([]gdl.Term, len(args))
	for i, a := range args {
		terms[i] = gdl.Const(fmt.Sprint(a))
	}
	return gdl.Func(name, terms...)
}

func truth(f gdl.Term) gdl.Term { return gdl.Func(gdl.True, f) }
func next(f gdl.Term) gdl.Term  { return gdl.Func(gdl.Next, f) }

func does(role gdl.Term, move gdl.Term) gdl.Term {
	return gdl.Func(gdl.Does, role, move)
}

func legal(role gdl.Term, move gdl.Term) gdl.Term {
	return gdl.Func(gdl.Legal, role, move)
}

func goal(role gdl.Term, value int) gdl.Term {
	return gdl.Func(gdl.Goal, role, gdl.Const(fmt.Sprint(value)))
}

// Counter is a two-role game over a counter from 0 to 2. Each turn both
// roles choose inc or hold; the counter advances when anyone increments.
// The game ends at 2 with red scoring 100 and blue 50.
func Counter() *Game {
	red, blue := gdl.Const("red"), gdl.Const("blue")
	roles := []gdl.Term{red, blue}
	inc, hold := gdl.Const("inc"), gdl.Const("hold")

	c := propnet.NewCircuit()
	init := c.AddProposition(gdl.Const(gdl.Init))
	count := make([]propnet.ID, 3)
	for k := range count {
		count[k] = c.AddProposition(truth(fact("count", k)))
	}
	incs := make([]propnet.ID, 0, len(roles))
	for _, r := range roles {
		incs = append(incs, c.AddProposition(does(r, inc)))
		c.AddProposition(does(r, hold))
	}

	terminal := c.Derive(gdl.Const(gdl.Terminal), propnet.Or, count[2])
	open := c.Derive(gdl.Const("open"), propnet.Not, terminal)
	for _, r := range roles {
		c.Derive(legal(r, inc), propnet.And, open)
		c.Derive(legal(r, hold), propnet.And, open)
	}

	bump := c.Derive(gdl.Const("bump"), propnet.Or, incs...)
	still := c.Derive(gdl.Const("still"), propnet.Not, bump)
	stay := func(k int) propnet.ID {
		return c.Derive(fact("stay", k), propnet.And, count[k], still)
	}
	rise := func(k int) propnet.ID {
		return c.Derive(fact("rise", k), propnet.And, count[k-1], bump)
	}

	nexts := []propnet.ID{
		c.Derive(next(fact("count", 0)), propnet.Or, init, stay(0)),
		c.Derive(next(fact("count", 1)), propnet.Or, rise(1), stay(1)),
		c.Derive(next(fact("count", 2)), propnet.Or, rise(2), count[2]),
	}
	for k, n := range nexts {
		c.Latch(count[k], n)
	}

	c.Derive(goal(red, 100), propnet.And, terminal)
	c.Derive(goal(blue, 50), propnet.And, terminal)

	return &Game{Name: "counter", Roles: roles, Circuit: c}
}

// Swap is a one-role game whose two base facts trade values every turn
// through transitions that read base propositions directly. A third fact
// is latched from a constant. It never terminates.
func Swap() *Game {
	solo := gdl.Const("solo")
	noop := gdl.Const("noop")

	c := propnet.NewCircuit()
	c.AddProposition(gdl.Const(gdl.Init))
	a := c.AddProposition(truth(gdl.Const("a")))
	b := c.AddProposition(truth(gdl.Const("b")))
	k := c.AddProposition(truth(gdl.Const("k")))
	c.AddProposition(does(solo, noop))

	c.Latch(a, b)
	c.Latch(b, a)
	c.Latch(k, c.AddConstant(true))

	terminal := c.Derive(gdl.Const(gdl.Terminal), propnet.And, a, b, c.AddConstant(false))
	c.Derive(legal(solo, noop), propnet.Not, terminal)
	c.Derive(goal(solo, 0), propnet.And, a, c.AddConstant(true))

	return &Game{Name: "swap", Roles: []gdl.Term{solo}, Circuit: c}
}

// Builtin returns a game shipped with the module by name: counter, swap,
// tictactoe or random.
func Builtin(name string) (*Game, bool) {
	switch name {
	case "counter":
		return Counter(), true
	case "swap":
		return Swap(), true
	case "tictactoe":
		return TicTacToe(), true
	case "random":
		return Random(1, 24, 200, 12), true
	}
	return nil, false
}
