package agent

import (
	"ggp/experiments/metrics"
	"ggp/game"
	"ggp/searcher"

	"golang.org/x/exp/rand"
)

type Agent interface {
	// FindMove returns the chosen move and performance metrics (if collected)
	// from the simulation process. updates lists the moves played since the
	// agent's previous call.
	FindMove(state game.State, updates []searcher.Segment) (game.Move, metrics.SearchMetric, error)
}

type randomAgent struct {
	rng *rand.Rand
}

// NewRandomAgent plays uniformly random legal moves.
func NewRandomAgent(seed uint64) Agent {
	return &randomAgent{rng: rand.New(rand.NewSource(seed))}
}

func (a *randomAgent) FindMove(state game.State, _ []searcher.Segment) (game.Move, metrics.SearchMetric, error) {
	moves := state.LegalMoves()
	if len(moves) == 0 {
		return nil, metrics.SearchMetric{}, searcher.ErrTerminal
	}
	return moves[a.rng.Intn(len(moves))], metrics.SearchMetric{}, nil
}

type legalAgent struct{}

// NewLegalAgent always plays the first legal move.
func NewLegalAgent() Agent {
	return legalAgent{}
}

func (legalAgent) FindMove(state game.State, _ []searcher.Segment) (game.Move, metrics.SearchMetric, error) {
	moves := state.LegalMoves()
	if len(moves) == 0 {
		return nil, metrics.SearchMetric{}, searcher.ErrTerminal
	}
	return moves[0], metrics.SearchMetric{}, nil
}
