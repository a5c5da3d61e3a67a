package statemachine

import (
	"testing"

	"ggp/games"

	"github.com/stretchr/testify/require"
)

type countingMachine struct {
	StateMachine
	calls map[string]int
}

func (c *countingMachine) IsTerminal(s MachineState) bool {
	c.calls["terminal"]++
	return c.StateMachine.IsTerminal(s)
}

func (c *countingMachine) LegalMoves(s MachineState, role Role) ([]Move, error) {
	c.calls["legal"]++
	return c.StateMachine.LegalMoves(s, role)
}

func (c *countingMachine) NextState(s MachineState, joint []Move) (MachineState, error) {
	c.calls["next"]++
	return c.StateMachine.NextState(s, joint)
}

func (c *countingMachine) Goal(s MachineState, role Role) (int, error) {
	c.calls["goal"]++
	return c.StateMachine.Goal(s, role)
}

func TestCached(t *testing.T) {
	inner := &countingMachine{StateMachine: newMachine(t, games.Counter()), calls: map[string]int{}}
	c, err := NewCached(inner, 16)
	require.NoError(t, err)
	s := c.InitialState()

	t.Run("repeated queries hit the cache", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.False(t, c.IsTerminal(s))
			moves, err := c.LegalMoves(s, red)
			require.NoError(t, err)
			require.Equal(t, []Move{inc, hold}, moves)
			next, err := c.NextState(s, []Move{inc, hold})
			require.NoError(t, err)
			require.Equal(t, counterAt(t, inner.StateMachine.(*Machine), "1"), next)
		}
		require.Equal(t, map[string]int{"terminal": 1, "legal": 1, "next": 1}, inner.calls)
	})

	t.Run("errors are cached with their results", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := c.Goal(s, red)
			require.True(t, IsFatal(err))
		}
		require.Equal(t, 1, inner.calls["goal"])
	})

	t.Run("different joint moves are distinct keys", func(t *testing.T) {
		held, err := c.NextState(s, []Move{hold, hold})
		require.NoError(t, err)
		require.Equal(t, s, held)
		require.Equal(t, 2, inner.calls["next"])
	})

	t.Run("callers cannot corrupt cached moves", func(t *testing.T) {
		moves, err := c.LegalMoves(s, red)
		require.NoError(t, err)
		moves[0] = hold
		again, err := c.LegalMoves(s, red)
		require.NoError(t, err)
		require.Equal(t, []Move{inc, hold}, again)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := NewCached(inner, 0)
		require.Error(t, err)
	})
}
