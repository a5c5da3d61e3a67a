package engine

import (
	"fmt"
	"slices"
	"time"

	"ggp/experiments/metrics"
	"ggp/game"
	"ggp/gdl"
	"ggp/meta"
	"ggp/searcher"
	"ggp/searcher/agent"
	"ggp/statemachine"

	"github.com/rs/zerolog/log"
)

// inspector is implemented by machines that can be cross-checked and can
// hand their state over to another machine for the same game.
type inspector interface {
	Mismatches() int64
	Describe(s statemachine.MachineState) []gdl.Term
	StateFromFacts(facts []gdl.Term) (statemachine.MachineState, error)
}

type Option func(e *Local)

func WithMaxTurns(turns int) Option {
	return func(e *Local) {
		if turns > 0 {
			e.maxTurns = turns
		}
	}
}

// Local runs a match in process with one agent per role, in role order.
// The gamemaster role of the engine is to validate every move: a failing
// agent or an illegal choice is replaced by the first legal move.
type Local struct {
	selector *statemachine.Selector
	agents   []agent.Agent
	maxTurns int
}

func NewLocal(selector *statemachine.Selector, agents []agent.Agent, options ...Option) *Local {
	e := &Local{
		selector: selector,
		agents:   agents,
		maxTurns: meta.MAX_TURNS,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run executes the entire game loop until the game ends or the turn limit
// is reached.
func (e *Local) Run() (metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{StartTime: time.Now()}
	name, sm, ok := e.selector.Current()
	if !ok {
		return gameMetric, nil, ErrNoMachine
	}
	roles := sm.Roles()
	if len(roles) != len(e.agents) {
		return gameMetric, nil, fmt.Errorf("game has %d roles but %d agents", len(roles), len(e.agents))
	}
	state, err := game.Start(sm)
	if err != nil {
		return gameMetric, nil, fmt.Errorf("start match: %w", err)
	}

	log.Info().Msgf("match starting on state machine %s with %d roles", name, len(roles))

	updates := make([][]searcher.Segment, len(roles))
	var moveMetrics []metrics.MoveMetric
	step, turn := 0, 0
	for !state.Terminal() && turn < e.maxTurns {
		player := state.Player()
		i := slices.Index(roles, statemachine.Role(player))
		move, metric, err := e.agents[i].FindMove(state, updates[i])
		if err != nil && statemachine.IsFatal(err) {
			return gameMetric, moveMetrics, fmt.Errorf("%s failed to move: %w", player, err)
		}
		if err != nil || !slices.Contains(state.LegalMoves(), move) {
			log.Warn().Err(err).Msgf("%s chose %v, playing its first legal move instead", player, move)
			move = state.LegalMoves()[0]
		}
		step++
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         step,
			Player:       player,
			SearchMetric: metric,
		})

		next := state.Play(move).(*game.Position)
		updates[i] = nil
		for j := range updates {
			updates[j] = append(updates[j], searcher.Segment{Move: move, StateHash: next.Hash()})
		}
		log.Debug().Msgf("step %d: %s plays %s", step, player, move)

		if next.Chosen() == 0 { // Joint move applied
			turn++
			if next, err = e.check(name, next); err != nil {
				return gameMetric, moveMetrics, err
			}
			name = e.current()
		}
		state = next
	}

	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = step
	gameMetric.Completed = state.Terminal()
	if gameMetric.Completed {
		gameMetric.Goals = make(map[string]int, len(roles))
		for _, role := range roles {
			v, err := state.Machine().Goal(state.State(), role)
			if err != nil {
				return gameMetric, moveMetrics, fmt.Errorf("score match: %w", err)
			}
			gameMetric.Goals[string(role)] = v
		}
		log.Info().Msgf("match finished after %d turns with goals %v", turn, gameMetric.Goals)
	} else {
		log.Info().Msgf("match stopped after %d turns", turn)
	}
	return gameMetric, moveMetrics, nil
}

func (e *Local) current() string {
	name, _, _ := e.selector.Current()
	return name
}

// check withdraws the machine in use once it has disagreed with its
// reference, and moves the match over to the next machine on offer.
func (e *Local) check(name string, p *game.Position) (*game.Position, error) {
	from, ok := p.Machine().(inspector)
	if !ok || from.Mismatches() == 0 {
		return p, nil
	}
	e.selector.Withdraw(name)
	next, sm, ok := e.selector.Current()
	if !ok {
		return nil, fmt.Errorf("%w: %s disagreed with its reference", ErrNoMachine, name)
	}
	to, ok := sm.(inspector)
	if !ok {
		return nil, fmt.Errorf("state machine %s cannot take over a match in progress", next)
	}
	s, err := to.StateFromFacts(from.Describe(p.State()))
	if err != nil {
		return nil, fmt.Errorf("hand over to %s: %w", next, err)
	}
	log.Warn().Msgf("state machine %s disagreed with its reference, continuing on %s", name, next)
	return game.NewPosition(sm, s)
}
