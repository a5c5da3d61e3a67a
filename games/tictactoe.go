package games

import (
	"slices"

	"ggp/gdl"
	"ggp/propnet"
)

var lines = [8][3][2]int{
	{{1, 1}, {1, 2}, {1, 3}}, {{2, 1}, {2, 2}, {2, 3}}, {{3, 1}, {3, 2}, {3, 3}},
	{{1, 1}, {2, 1}, {3, 1}}, {{1, 2}, {2, 2}, {3, 2}}, {{1, 3}, {2, 3}, {3, 3}},
	{{1, 1}, {2, 2}, {3, 3}}, {{1, 3}, {2, 2}, {3, 1}},
}

// TicTacToe is the classic game for xplayer and oplayer. The role without
// control plays noop.
func TicTacToe() *Game {
	x, o := gdl.Const("xplayer"), gdl.Const("oplayer")
	roles := []gdl.Term{x, o}
	marks := map[string]string{"xplayer": "x", "oplayer": "o"}
	noop := gdl.Const("noop")

	c := propnet.NewCircuit()
	init := c.AddProposition(gdl.Const(gdl.Init))

	cell := make(map[[2]int]map[string]propnet.ID)
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			cell[[2]int{i, j}] = map[string]propnet.ID{}
			for _, v := range []string{"b", "x", "o"} {
				cell[[2]int{i, j}][v] = c.AddProposition(truth(fact("cell", i, j, v)))
			}
		}
	}
	control := map[string]propnet.ID{}
	for _, r := range roles {
		control[r.Name()] = c.AddProposition(truth(gdl.Func("control", r)))
	}

	mark := make(map[[2]int]map[string]propnet.ID)
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			mark[[2]int{i, j}] = map[string]propnet.ID{}
			for _, r := range roles {
				mark[[2]int{i, j}][r.Name()] = c.AddProposition(does(r, fact("mark", i, j)))
			}
		}
	}
	for _, r := range roles {
		c.AddProposition(does(r, noop))
	}

	// Lines, terminal and goals.
	line := map[string]propnet.ID{}
	for _, v := range []string{"x", "o"} {
		var ls []propnet.ID
		for k, l := range lines {
			ls = append(ls, c.Derive(fact("row", k, v), propnet.And,
				cell[l[0]][v], cell[l[1]][v], cell[l[2]][v]))
		}
		line[v] = c.Derive(fact("line", v), propnet.Or, ls...)
	}
	var blanks []propnet.ID
	for _, byValue := range cell {
		blanks = append(blanks, byValue["b"])
	}
	slices.Sort(blanks)
	open := c.Derive(gdl.Const("open"), propnet.Or, blanks...)
	full := c.Derive(gdl.Const("full"), propnet.Not, open)
	c.Derive(gdl.Const(gdl.Terminal), propnet.Or, line["x"], line["o"], full)

	noX := c.Derive(gdl.Const("nolinex"), propnet.Not, line["x"])
	noO := c.Derive(gdl.Const("nolineo"), propnet.Not, line["o"])
	draw := c.Derive(gdl.Const("draw"), propnet.And, noX, noO)
	for _, r := range roles {
		mine, theirs := line[marks[r.Name()]], line["o"]
		if marks[r.Name()] == "o" {
			theirs = line["x"]
		}
		c.Derive(goal(r, 100), propnet.And, mine)
		c.Derive(goal(r, 50), propnet.And, draw)
		c.Derive(goal(r, 0), propnet.And, theirs)
	}

	// Legal moves.
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			for _, r := range roles {
				c.Derive(legal(r, fact("mark", i, j)), propnet.And, cell[[2]int{i, j}]["b"], control[r.Name()])
			}
		}
	}
	c.Derive(legal(x, noop), propnet.And, control["oplayer"])
	c.Derive(legal(o, noop), propnet.And, control["xplayer"])

	// Transitions.
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			at := [2]int{i, j}
			marked := c.Derive(fact("marked", i, j), propnet.Or, mark[at]["xplayer"], mark[at]["oplayer"])
			unmarked := c.Derive(fact("unmarked", i, j), propnet.Not, marked)
			kept := c.Derive(fact("kept", i, j), propnet.And, cell[at]["b"], unmarked)
			nb := c.Derive(next(fact("cell", i, j, "b")), propnet.Or, init, kept)
			c.Latch(cell[at]["b"], nb)
			for _, r := range roles {
				v := marks[r.Name()]
				nv := c.Derive(next(fact("cell", i, j, v)), propnet.Or, mark[at][r.Name()], cell[at][v])
				c.Latch(cell[at][v], nv)
			}
		}
	}
	nx := c.Derive(next(gdl.Func("control", x)), propnet.Or, init, control["oplayer"])
	c.Latch(control["xplayer"], nx)
	c.Latch(control["oplayer"], control["xplayer"])

	return &Game{Name: "tictactoe", Roles: roles, Circuit: c}
}
