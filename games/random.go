package games

import (
	"fmt"

	"ggp/gdl"
	"ggp/propnet"

	"golang.org/x/exp/rand"
)

// Random builds a synthetic one-role game of random AND/OR/NOT gates over
// the given number of base facts. A clock of depth base facts forces the
// game to end after depth turns. The same seed yields the same circuit.
// bases and depth must be positive.
func Random(seed uint64, bases, gates, depth int) *Game {
	rng := rand.New(rand.NewSource(seed))
	solo := gdl.Const("solo")
	c := propnet.NewCircuit()
	init := c.AddProposition(gdl.Const(gdl.Init))

	pool := []propnet.ID{}
	state := make([]propnet.ID, bases)
	for i := range state {
		state[i] = c.AddProposition(truth(fact("bit", i)))
		pool = append(pool, state[i])
	}
	clock := make([]propnet.ID, depth)
	for i := range clock {
		clock[i] = c.AddProposition(truth(fact("tick", i)))
	}
	moves := make([]gdl.Term, 4)
	for i := range moves {
		moves[i] = fact("move", i)
		pool = append(pool, c.AddProposition(does(solo, moves[i])))
	}
	constants := []propnet.ID{c.AddConstant(false), c.AddConstant(true)}

	pick := func() propnet.ID {
		if rng.Intn(20) == 0 {
			return constants[rng.Intn(2)]
		}
		return pool[rng.Intn(len(pool))]
	}
	for g := 0; g < gates; g++ {
		name := fact("gate", g)
		var p propnet.ID
		switch rng.Intn(3) {
		case 0:
			p = c.Derive(name, propnet.Not, pick())
		case 1:
			p = c.Derive(name, propnet.And, distinct(pick, 1+rng.Intn(3))...)
		default:
			p = c.Derive(name, propnet.Or, distinct(pick, 1+rng.Intn(3))...)
		}
		pool = append(pool, p)
	}

	for i, b := range state {
		n := c.Derive(next(fact("bit", i)), propnet.Or, distinct(pick, 1+rng.Intn(2))...)
		c.Latch(b, n)
	}
	for i, t := range clock {
		prev := init
		if i > 0 {
			prev = clock[i-1]
		}
		c.Latch(t, c.Derive(next(fact("tick", i)), propnet.Or, prev))
	}

	// Terminal and legality read base facts only, never this turn's move.
	bit := func() propnet.ID { return state[rng.Intn(bases)] }
	full := c.Derive(gdl.Const("full"), propnet.And, distinct(bit, min(3, bases))...)
	terminal := c.Derive(gdl.Const(gdl.Terminal), propnet.Or, clock[depth-1], full)
	open := c.Derive(gdl.Const("open"), propnet.Not, terminal)
	c.Derive(legal(solo, moves[0]), propnet.And, open)
	for _, m := range moves[1:] {
		c.Derive(legal(solo, m), propnet.And, open, bit())
	}

	score := pool[bases+len(moves)+rng.Intn(gates)]
	miss := c.Derive(gdl.Const("miss"), propnet.Not, score)
	c.Derive(goal(solo, 100), propnet.And, terminal, score)
	c.Derive(goal(solo, 0), propnet.And, terminal, miss)

	return &Game{
		Name:    fmt.Sprintf("random-%d", seed),
		Roles:   []gdl.Term{solo},
		Circuit: c,
	}
}

func distinct(pick func() propnet.ID, n int) []propnet.ID {
	seen := make(map[propnet.ID]bool, n)
	out := make([]propnet.ID, 0, n)
	for len(out) < n {
		id := pick()
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
