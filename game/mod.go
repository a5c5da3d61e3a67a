package game

import "golang.org/x/exp/rand"

// Move is an action of the player to move. Implementations must be
// comparable, since search keys statistics by move.
type Move interface {
	String() string
}

type StateHash uint64

// State should be immutable - operations on State always return a new copy
type State interface {
	Player() string
	LegalMoves() []Move
	Play(Move) State
	Hash() StateHash
	// Rewards maps every player to a payoff in [0, 1]. Only terminal states,
	// those without legal moves, have rewards.
	Rewards() map[string]float64
}

// Playouter is implemented by states that can play a random game to the end
// faster than repeated calls to Play.
type Playouter interface {
	Playout(rng *rand.Rand) (rewards map[string]float64, depth int)
}

// Evaluates the game state to a score between 0 and 1 indicating how
// favorable the current player's position is.
type Evaluate func(State) float64
