package searcher

import "errors"

// Rewards are payoffs scaled into [0, 1], so a node's mean reward estimates
// how well the game goes for the player who moved into it.
const Win = 1.0
const Loss = 0.0 // Virtual loss applied while an episode is in flight

// ErrTerminal is returned when asked to search a finished game.
var ErrTerminal = errors.New("searcher: state is terminal")

// reward maps a player to its payoff for one episode.
type reward func(player string) float64

func terminalReward(rewards map[string]float64) reward {
	return func(player string) float64 {
		return rewards[player]
	}
}

// evaluatedReward credits player with score and every opponent with its
// complement.
func evaluatedReward(player string, score float64) reward {
	return func(p string) float64 {
		if p == player {
			return score
		}
		return Win - score
	}
}
