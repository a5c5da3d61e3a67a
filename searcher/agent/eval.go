package agent

import (
	"ggp/experiments/metrics"
	"ggp/game"
	"ggp/searcher"
)

type evaluationAgent struct {
	mcts *searcher.MCTS
}

// NewEvaluationAgent returns a new agent for actual game play during evaluation.
func NewEvaluationAgent(mcts *searcher.MCTS) Agent {
	return evaluationAgent{mcts: mcts}
}

func (a evaluationAgent) FindMove(state game.State, updates []searcher.Segment) (game.Move, metrics.SearchMetric, error) {
	policy, metric, err := a.mcts.Simulate(state, updates)
	if err != nil {
		return nil, metric, err
	}
	return findMax(policy, state.LegalMoves()), metric, nil
}

// findMax picks the most visited move. Ties go to the move listed first
// in moves so that the choice does not depend on map order.
func findMax(policy map[game.Move]float64, moves []game.Move) game.Move {
	var maxMove game.Move
	maxVisit := -1.0
	for _, move := range moves {
		if visit, ok := policy[move]; ok && visit > maxVisit {
			maxVisit = visit
			maxMove = move
		}
	}
	return maxMove
}
