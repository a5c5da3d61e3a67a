package engine

import (
	"fmt"
	"testing"

	"ggp/experiments/metrics"
	"ggp/game"
	"ggp/games"
	"ggp/gdl"
	"ggp/searcher"
	"ggp/searcher/agent"
	"ggp/statemachine"

	"github.com/stretchr/testify/require"
)

func counter(t *testing.T) *statemachine.Machine {
	t.Helper()
	g := games.Counter()
	sm, err := statemachine.New(g.Roles, g.Circuit)
	require.NoError(t, err)
	return sm
}

func offer(sm statemachine.StateMachine) *statemachine.Selector {
	selector := statemachine.NewSelector()
	selector.Offer("propnet", 1, sm)
	return selector
}

// scriptedAgent returns a fixed move or error and records the updates it saw.
type scriptedAgent struct {
	move    game.Move
	err     error
	updates [][]searcher.Segment
}

func (a *scriptedAgent) FindMove(state game.State, updates []searcher.Segment) (game.Move, metrics.SearchMetric, error) {
	a.updates = append(a.updates, updates)
	return a.move, metrics.SearchMetric{Episodes: 1}, a.err
}

// brokenMachine reports a disagreement with its reference backend.
type brokenMachine struct {
	*statemachine.Machine
}

func (brokenMachine) Mismatches() int64 { return 1 }

func TestLocalRun(t *testing.T) {
	sm := counter(t)

	t.Run("plays to the end", func(t *testing.T) {
		e := NewLocal(offer(sm), []agent.Agent{agent.NewLegalAgent(), agent.NewLegalAgent()})

		gameMetric, moveMetrics, err := e.Run()

		require.NoError(t, err)
		require.True(t, gameMetric.Completed)
		require.Equal(t, map[string]int{"red": 100, "blue": 50}, gameMetric.Goals)
		require.Equal(t, 4, gameMetric.TotalMoves)
		require.Len(t, moveMetrics, 4)
		for i, player := range []string{"red", "blue", "red", "blue"} {
			require.Equal(t, i+1, moveMetrics[i].Step)
			require.Equal(t, player, moveMetrics[i].Player)
		}
	})

	t.Run("stops at the turn limit", func(t *testing.T) {
		e := NewLocal(offer(sm), []agent.Agent{agent.NewLegalAgent(), agent.NewLegalAgent()}, WithMaxTurns(1))

		gameMetric, _, err := e.Run()

		require.NoError(t, err)
		require.False(t, gameMetric.Completed)
		require.Nil(t, gameMetric.Goals)
		require.Equal(t, 2, gameMetric.TotalMoves)
	})

	t.Run("replaces illegal moves and failed searches", func(t *testing.T) {
		red := &scriptedAgent{move: statemachine.NewMove(gdl.Const("jump"))}
		blue := &scriptedAgent{err: fmt.Errorf("search: %w", statemachine.ErrNotComputable)}
		e := NewLocal(offer(sm), []agent.Agent{red, blue})

		gameMetric, moveMetrics, err := e.Run()

		require.NoError(t, err)
		require.True(t, gameMetric.Completed, "First legal moves increment the counter")
		require.Equal(t, 1, moveMetrics[0].Episodes)
	})

	t.Run("passes each agent the moves since its last turn", func(t *testing.T) {
		red := &scriptedAgent{move: statemachine.NewMove(gdl.Const("inc"))}
		blue := &scriptedAgent{move: statemachine.NewMove(gdl.Const("inc"))}
		e := NewLocal(offer(sm), []agent.Agent{red, blue})

		_, _, err := e.Run()

		require.NoError(t, err)
		require.Len(t, red.updates, 2)
		require.Empty(t, red.updates[0])
		require.Len(t, red.updates[1], 2, "Red's own move and blue's reply")
		require.Len(t, blue.updates[0], 1)
		require.Equal(t, red.move, blue.updates[0][0].Move)
	})

	t.Run("fatal agent errors end the match", func(t *testing.T) {
		red := &scriptedAgent{err: &statemachine.MoveDefinitionError{Role: "red"}}
		e := NewLocal(offer(sm), []agent.Agent{red, agent.NewLegalAgent()})

		_, _, err := e.Run()

		require.ErrorIs(t, err, statemachine.ErrMalformedGame)
	})

	t.Run("requires a machine and an agent per role", func(t *testing.T) {
		_, _, err := NewLocal(statemachine.NewSelector(), nil).Run()
		require.ErrorIs(t, err, ErrNoMachine)

		_, _, err = NewLocal(offer(sm), []agent.Agent{agent.NewLegalAgent()}).Run()
		require.Error(t, err)
	})
}

func TestLocalHandover(t *testing.T) {
	selector := statemachine.NewSelector()
	selector.Offer("good", 1, counter(t))
	selector.Offer("broken", 2, brokenMachine{counter(t)})
	e := NewLocal(selector, []agent.Agent{agent.NewLegalAgent(), agent.NewLegalAgent()})

	gameMetric, _, err := e.Run()

	require.NoError(t, err)
	require.True(t, gameMetric.Completed)
	require.Equal(t, map[string]int{"red": 100, "blue": 50}, gameMetric.Goals)
	require.Equal(t, []string{"good"}, selector.Names(), "The disagreeing machine should be withdrawn")

	t.Run("no machine left", func(t *testing.T) {
		selector := statemachine.NewSelector()
		selector.Offer("broken", 1, brokenMachine{counter(t)})

		_, _, err := NewLocal(selector, []agent.Agent{agent.NewLegalAgent(), agent.NewLegalAgent()}).Run()

		require.ErrorIs(t, err, ErrNoMachine)
	})
}
