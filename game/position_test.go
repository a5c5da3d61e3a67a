package game

import (
	"testing"

	"ggp/gdl"
	"ggp/games"
	"ggp/statemachine"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

var (
	inc  = statemachine.NewMove(gdl.Const("inc"))
	hold = statemachine.NewMove(gdl.Const("hold"))
)

func counter(t *testing.T) (*statemachine.Machine, *Position) {
	t.Helper()
	g := games.Counter()
	sm, err := statemachine.New(g.Roles, g.Circuit)
	require.NoError(t, err)
	p, err := Start(sm)
	require.NoError(t, err)
	return sm, p
}

func TestPosition(t *testing.T) {
	sm, start := counter(t)

	t.Run("roles choose in order within a turn", func(t *testing.T) {
		require.Equal(t, "red", start.Player())
		require.Equal(t, []Move{inc, hold}, start.LegalMoves())

		half := start.Play(inc)
		require.Equal(t, "blue", half.Player())
		require.Equal(t, start.State(), half.(*Position).State(), "state advances only after the joint move")
		require.NotEqual(t, start.Hash(), half.Hash())

		full := half.Play(hold).(*Position)
		require.Equal(t, "red", full.Player())
		next, err := sm.NextState(sm.InitialState(), []statemachine.Move{inc, hold})
		require.NoError(t, err)
		require.Equal(t, next, full.State())
	})

	t.Run("positions are immutable", func(t *testing.T) {
		a := start.Play(inc)
		b := start.Play(hold)
		require.NotEqual(t, a.Hash(), b.Hash())
		require.Equal(t, "red", start.Player())
		require.Equal(t, a.Hash(), start.Play(inc).Hash())
	})

	t.Run("terminal position has rewards and no moves", func(t *testing.T) {
		var s State = start
		for i := 0; i < 4; i++ {
			s = s.Play(inc)
		}
		require.Empty(t, s.LegalMoves())
		require.Equal(t, "", s.Player())
		require.Equal(t, map[string]float64{"red": 1, "blue": 0.5}, s.Rewards())
	})

	t.Run("non-terminal rewards panic", func(t *testing.T) {
		require.Panics(t, func() { start.Rewards() })
	})

	t.Run("foreign move panics", func(t *testing.T) {
		require.Panics(t, func() { start.Play(statemachine.NewMove(gdl.Const("jump"))) })
	})
}

func TestPlayout(t *testing.T) {
	sm, start := counter(t)
	rng := rand.New(rand.NewSource(3))

	for _, p := range []*Position{start, start.Play(hold).(*Position)} {
		rewards, depth := p.Playout(rng)
		require.Equal(t, map[string]float64{"red": 1, "blue": 0.5}, rewards)
		require.GreaterOrEqual(t, depth, 2)
	}

	t.Run("without depth charges", func(t *testing.T) {
		cached, err := statemachine.NewCached(sm, 64)
		require.NoError(t, err)
		p, err := Start(cached)
		require.NoError(t, err)
		rewards, depth := p.Playout(rng)
		require.Equal(t, map[string]float64{"red": 1, "blue": 0.5}, rewards)
		require.GreaterOrEqual(t, depth, 2)
	})
}

func TestEvaluate(t *testing.T) {
	_, start := counter(t)
	require.Equal(t, 0.5, EvaluateNeutral(start))
	require.Equal(t, 0.5, EvaluateGoal(start), "no goal holds off terminal")
	require.Equal(t, 0.5, EvaluateMobility(start), "both roles have two moves")
	require.Equal(t, 0.5, EvaluateGoalMobility(start))

	g := games.TicTacToe()
	sm, err := statemachine.New(g.Roles, g.Circuit)
	require.NoError(t, err)
	p, err := Start(sm)
	require.NoError(t, err)
	require.Equal(t, 0.9, EvaluateMobility(p), "nine marks against one noop")
	require.Panics(t, func() { EvaluateGoal(nil) })

	t.Run("malformed game panics", func(t *testing.T) {
		counterSM, _ := counter(t)
		p, err := Start(stuckRole{StateMachine: counterSM, role: "blue", err: &statemachine.MoveDefinitionError{Role: "blue"}})
		require.NoError(t, err)

		require.PanicsWithError(t, (&statemachine.MoveDefinitionError{Role: "blue"}).Error(), func() { EvaluateMobility(p) })
	})

	t.Run("transient errors are skipped", func(t *testing.T) {
		counterSM, _ := counter(t)
		p, err := Start(stuckRole{StateMachine: counterSM, role: "blue", err: statemachine.ErrNotComputable})
		require.NoError(t, err)

		require.Equal(t, 1.0, EvaluateMobility(p), "only red's moves are counted")
	})
}

// stuckRole fails every legal move query for role with err.
type stuckRole struct {
	statemachine.StateMachine
	role statemachine.Role
	err  error
}

func (s stuckRole) LegalMoves(state statemachine.MachineState, role statemachine.Role) ([]statemachine.Move, error) {
	if role == s.role {
		return nil, s.err
	}
	return s.StateMachine.LegalMoves(state, role)
}
