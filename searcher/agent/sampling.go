package agent

import (
	"math"

	"ggp/experiments/metrics"
	"ggp/game"
	"ggp/searcher"

	"golang.org/x/exp/rand"
)

type samplingAgent struct {
	mcts        *searcher.MCTS
	temperature float64
	rng         *rand.Rand
}

// NewSamplingAgent returns an agent that samples moves in proportion to
// their visit shares raised to 1/temperature. Lower temperatures play
// closer to the most visited move.
func NewSamplingAgent(mcts *searcher.MCTS, temperature float64, seed uint64) Agent {
	if temperature <= 0 {
		panic("temperature must be positive")
	}
	return &samplingAgent{mcts: mcts, temperature: temperature, rng: rand.New(rand.NewSource(seed))}
}

func (a *samplingAgent) FindMove(state game.State, updates []searcher.Segment) (game.Move, metrics.SearchMetric, error) {
	policy, metric, err := a.mcts.Simulate(state, updates)
	if err != nil {
		return nil, metric, err
	}
	policy = adjustTemperature(policy, a.temperature)
	return sample(policy, state.LegalMoves(), a.rng.Float64()), metric, nil
}

func adjustTemperature(policy map[game.Move]float64, temperature float64) map[game.Move]float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make(map[game.Move]float64, len(policy))
	for move, visit := range policy {
		prob := math.Pow(visit, exponent)
		sum += prob
		adjusted[move] = prob
	}
	// Normalize
	for move := range adjusted {
		adjusted[move] /= sum
	}
	return adjusted
}

// sample walks moves in order, so a given draw always maps to the same move.
func sample(policy map[game.Move]float64, moves []game.Move, sampled float64) game.Move {
	cumulative := 0.0
	var lastMove game.Move
	for _, move := range moves {
		prob, ok := policy[move]
		if !ok {
			continue
		}
		lastMove = move
		cumulative += prob
		if sampled < cumulative {
			return move
		}
	}
	return lastMove // Fallback in case of rounding errors
}
