package statemachine

import (
	"fmt"
	"sync"
	"testing"

	"ggp/gdl"
	"ggp/games"
	"ggp/operator"
	"ggp/propnet"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

var (
	red  = Role("red")
	blue = Role("blue")
	inc  = NewMove(gdl.Const("inc"))
	hold = NewMove(gdl.Const("hold"))
)

func newMachine(t *testing.T, g *games.Game, options ...Option) *Machine {
	t.Helper()
	m, err := New(g.Roles, g.Circuit, options...)
	require.NoError(t, err)
	return m
}

func counterAt(t *testing.T, m *Machine, k string) MachineState {
	t.Helper()
	s, err := m.StateFromFacts([]gdl.Term{gdl.MustParse("(count " + k + ")")})
	require.NoError(t, err)
	return s
}

// stuck is a one-role game in which solo may wait only while (ready)
// holds. Only INIT sets ready, so the second state is neither terminal nor
// playable.
func stuck() *games.Game {
	solo, wait := gdl.Const("solo"), gdl.Const("wait")
	c := propnet.NewCircuit()
	init := c.AddProposition(gdl.Const(gdl.Init))
	ready := c.AddProposition(gdl.Func(gdl.True, gdl.Const("ready")))
	c.AddProposition(gdl.Func(gdl.Does, solo, wait))
	c.Latch(ready, init)
	c.Derive(gdl.Const(gdl.Terminal), propnet.And, ready, c.AddConstant(false))
	c.Derive(gdl.Func(gdl.Legal, solo, wait), propnet.And, ready)
	c.Derive(gdl.Func(gdl.Goal, solo, gdl.Const("0")), propnet.Not, ready)
	return &games.Game{Name: "stuck", Roles: []gdl.Term{solo}, Circuit: c}
}

// echo is a one-role game whose only legal move reads its own does
// proposition. Playing it ends the game.
func echo() *games.Game {
	solo, move := gdl.Const("solo"), gdl.Const("go")
	c := propnet.NewCircuit()
	c.AddProposition(gdl.Const(gdl.Init))
	done := c.AddProposition(gdl.Func(gdl.True, gdl.Const("done")))
	does := c.AddProposition(gdl.Func(gdl.Does, solo, move))
	c.Latch(done, does)
	c.Derive(gdl.Const(gdl.Terminal), propnet.And, done)
	c.Derive(gdl.Func(gdl.Legal, solo, move), propnet.Or, does)
	c.Derive(gdl.Func(gdl.Goal, solo, gdl.Const("100")), propnet.And, done)
	return &games.Game{Name: "echo", Roles: []gdl.Term{solo}, Circuit: c}
}

func TestCounter(t *testing.T) {
	m := newMachine(t, games.Counter())

	t.Run("initial state encodes zero", func(t *testing.T) {
		s := m.InitialState()
		require.Equal(t, counterAt(t, m, "0"), s)
		require.Empty(t, cmp.Diff([]string{"(count 0)"}, names(m.Describe(s))))
		require.False(t, m.IsTerminal(s))
	})

	t.Run("an increment advances to one", func(t *testing.T) {
		next, err := m.NextState(m.InitialState(), []Move{inc, hold})
		require.NoError(t, err)
		require.Equal(t, counterAt(t, m, "1"), next)
		require.False(t, m.IsTerminal(next))

		held, err := m.NextState(next, []Move{hold, hold})
		require.NoError(t, err)
		require.Equal(t, next, held)
	})

	t.Run("terminal only at two", func(t *testing.T) {
		s := m.InitialState()
		for _, k := range []string{"1", "2"} {
			var err error
			s, err = m.NextState(s, []Move{hold, inc})
			require.NoError(t, err)
			require.Equal(t, counterAt(t, m, k), s)
		}
		require.True(t, m.IsTerminal(s))

		v, err := m.Goal(s, red)
		require.NoError(t, err)
		require.Equal(t, 100, v)
		v, err = m.Goal(s, blue)
		require.NoError(t, err)
		require.Equal(t, 50, v)
	})

	t.Run("goal fails off terminal", func(t *testing.T) {
		for _, k := range []string{"0", "1"} {
			_, err := m.Goal(counterAt(t, m, k), red)
			var goalErr *GoalDefinitionError
			require.ErrorAs(t, err, &goalErr)
			require.Empty(t, goalErr.Matches)
			require.Equal(t, red, goalErr.Role)
			require.True(t, IsFatal(err))
			require.False(t, IsTransient(err))
		}
	})

	t.Run("legal moves", func(t *testing.T) {
		moves, err := m.LegalMoves(m.InitialState(), blue)
		require.NoError(t, err)
		require.Equal(t, []Move{inc, hold}, moves)

		moves, err = m.LegalMoves(counterAt(t, m, "2"), blue)
		require.NoError(t, err, "A terminal state is not a malformed game")
		require.Empty(t, moves)

		cached, err := NewCached(m, 8)
		require.NoError(t, err)
		moves, err = cached.LegalMoves(counterAt(t, m, "2"), blue)
		require.NoError(t, err)
		require.Empty(t, moves)
	})

	t.Run("no legal move off terminal is fatal", func(t *testing.T) {
		g := stuck()
		sm := newMachine(t, g)
		solo := Role("solo")
		wait := NewMove(gdl.Const("wait"))

		moves, err := sm.LegalMoves(sm.InitialState(), solo)
		require.NoError(t, err)
		require.Equal(t, []Move{wait}, moves)

		s, err := sm.NextState(sm.InitialState(), []Move{wait})
		require.NoError(t, err)
		require.False(t, sm.IsTerminal(s))

		_, err = sm.LegalMoves(s, solo)
		var moveErr *MoveDefinitionError
		require.ErrorAs(t, err, &moveErr)
		require.Equal(t, solo, moveErr.Role)
		require.Equal(t, s, moveErr.State)
		require.True(t, IsFatal(err))
	})

	t.Run("goal values", func(t *testing.T) {
		values, err := m.GoalValues(red)
		require.NoError(t, err)
		require.Equal(t, []int{100}, values)
	})

	t.Run("bad queries", func(t *testing.T) {
		_, err := m.LegalMoves(m.InitialState(), Role("green"))
		require.ErrorIs(t, err, ErrUnknownRole)
		_, err = m.Goal(m.InitialState(), Role("green"))
		require.ErrorIs(t, err, ErrUnknownRole)

		_, err = m.NextState(m.InitialState(), []Move{inc})
		var transErr *TransitionDefinitionError
		require.ErrorAs(t, err, &transErr)
		require.ErrorIs(t, err, ErrUnknownMove)

		_, err = m.NextState(m.InitialState(), []Move{inc, NewMove(gdl.Const("jump"))})
		require.ErrorIs(t, err, ErrUnknownMove)
		require.False(t, IsFatal(err))

		_, err = m.StateFromFacts([]gdl.Term{gdl.MustParse("(count 7)")})
		require.Error(t, err)
	})

	t.Run("foreign state panics", func(t *testing.T) {
		other := newMachine(t, games.TicTacToe())
		require.Panics(t, func() { m.IsTerminal(other.InitialState()) })
	})
}

func names(terms []gdl.Term) []string {
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = term.String()
	}
	return out
}

// walk plays random legal joint moves from the initial state and calls visit
// on every state along the way, including the terminal one.
func walk(t *testing.T, sm StateMachine, rng *rand.Rand, visit func(s MachineState)) {
	t.Helper()
	s := sm.InitialState()
	for turn := 0; turn < 100; turn++ {
		visit(s)
		if sm.IsTerminal(s) {
			return
		}
		joint := make([]Move, 0, len(sm.Roles()))
		for _, role := range sm.Roles() {
			moves, err := sm.LegalMoves(s, role)
			require.NoError(t, err)
			joint = append(joint, moves[rng.Intn(len(moves))])
		}
		next, err := sm.NextState(s, joint)
		require.NoError(t, err)
		s = next
	}
	t.Fatalf("game did not end")
}

func TestProperties(t *testing.T) {
	for _, g := range []*games.Game{games.Counter(), games.TicTacToe()} {
		t.Run(g.Name, func(t *testing.T) {
			m := newMachine(t, g)
			again := newMachine(t, g)
			require.Equal(t, m.InitialState(), again.InitialState())
			require.Equal(t, m.InitialState(), m.InitialState())

			rng := rand.New(rand.NewSource(5))
			for game := 0; game < 20; game++ {
				walk(t, m, rng, func(s MachineState) {
					terminal := m.IsTerminal(s)
					require.Equal(t, terminal, m.IsTerminal(s))

					if !terminal {
						var joint []Move
						for _, role := range m.Roles() {
							moves, err := m.LegalMoves(s, role)
							require.NoError(t, err)
							require.NotEmpty(t, moves)
							joint = append(joint, moves[0])
						}
						a, err := m.NextState(s, joint)
						require.NoError(t, err)
						b, err := m.NextState(s, joint)
						require.NoError(t, err)
						require.Equal(t, a, b)
						return
					}
					for _, role := range m.Roles() {
						v, err := m.Goal(s, role)
						require.NoError(t, err)
						values, err := m.GoalValues(role)
						require.NoError(t, err)
						require.Contains(t, values, v)
						w, err := m.Goal(s, role)
						require.NoError(t, err)
						require.Equal(t, v, w)
					}
				})
			}
		})
	}
}

func TestConfigurationsAgree(t *testing.T) {
	g := games.Random(4, 12, 150, 8)
	reference := newMachine(t, g, WithSimplify(SimplifyOff))
	variants := map[string]*Machine{
		"closure":     newMachine(t, g, WithBackend(operator.Closure)),
		"checked":     newMachine(t, g, WithBackend(operator.Checked)),
		"fixed-point": newMachine(t, g, WithSimplify(SimplifyFixedPoint), WithMaxChunkCost(32)),
	}
	require.Positive(t, variants["fixed-point"].Stats().Simplify.Fused)

	for name, m := range variants {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, reference.InitialState(), m.InitialState())
			rng := rand.New(rand.NewSource(8))
			for game := 0; game < 10; game++ {
				walk(t, reference, rng, func(s MachineState) {
					require.Equal(t, reference.IsTerminal(s), m.IsTerminal(s))
					for _, role := range reference.Roles() {
						want, wantErr := reference.LegalMoves(s, role)
						got, gotErr := m.LegalMoves(s, role)
						require.Equal(t, wantErr == nil, gotErr == nil)
						require.Equal(t, want, got)
						if wantErr == nil && len(want) > 0 {
							a, err := reference.NextState(s, want[:1])
							require.NoError(t, err)
							b, err := m.NextState(s, got[:1])
							require.NoError(t, err)
							require.Equal(t, a, b)
						}
					}
				})
			}
			require.Zero(t, m.Mismatches())
		})
	}
}

func TestDepthCharge(t *testing.T) {
	t.Run("counter ends at two", func(t *testing.T) {
		m := newMachine(t, games.Counter())
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 20; i++ {
			end, depth, err := m.DepthCharge(m.InitialState(), rng)
			require.NoError(t, err)
			require.Equal(t, counterAt(t, m, "2"), end)
			require.GreaterOrEqual(t, depth, 2)
		}
	})

	t.Run("limit is transient", func(t *testing.T) {
		m := newMachine(t, games.Counter(), WithDepthLimit(1))
		_, _, err := m.DepthCharge(m.InitialState(), rand.New(rand.NewSource(1)))
		require.ErrorIs(t, err, ErrNotComputable)
		require.True(t, IsTransient(err))
	})

	t.Run("legality read from does inputs", func(t *testing.T) {
		require.False(t, newMachine(t, games.Counter()).legalReadsMoves)

		for _, mode := range []SimplifyMode{SimplifyOff, SimplifyOnce} {
			m := newMachine(t, echo(), WithSimplify(mode))
			require.True(t, m.legalReadsMoves, mode.String())

			moves, err := m.LegalMoves(m.InitialState(), Role("solo"))
			require.NoError(t, err)
			require.Equal(t, []Move{NewMove(gdl.Const("go"))}, moves)

			end, depth, err := m.DepthCharge(m.InitialState(), rand.New(rand.NewSource(3)))
			require.NoError(t, err, mode.String())
			require.Equal(t, 1, depth)
			require.True(t, m.IsTerminal(end))
		}
	})

	t.Run("concurrent charges share one machine", func(t *testing.T) {
		m := newMachine(t, games.TicTacToe(), WithBackend(operator.Closure))
		var wg sync.WaitGroup
		errs := make(chan error, 8*25)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(seed uint64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(seed))
				for i := 0; i < 25; i++ {
					end, _, err := m.DepthCharge(m.InitialState(), rng)
					if err == nil && !m.IsTerminal(end) {
						err = fmt.Errorf("depth charge stopped in non-terminal state %s", end)
					}
					if err == nil {
						_, err = m.Goal(end, Role("xplayer"))
					}
					errs <- err
				}
			}(uint64(w))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	})
}

func TestMalformedGame(t *testing.T) {
	g := games.Counter()
	c := propnet.NewCircuit()
	c.AddProposition(gdl.Const(gdl.Init))
	_, err := New(g.Roles, c)
	require.Error(t, err)
	require.True(t, IsFatal(err))
}

func TestSimplifyMode(t *testing.T) {
	for _, mode := range []SimplifyMode{SimplifyOnce, SimplifyFixedPoint, SimplifyOff} {
		got, err := ParseSimplifyMode(mode.String())
		require.NoError(t, err)
		require.Equal(t, mode, got)
	}
	_, err := ParseSimplifyMode("twice")
	require.Error(t, err)
}
