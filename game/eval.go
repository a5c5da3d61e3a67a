package game

import "ggp/statemachine"

func position(s State) *Position {
	p, ok := s.(*Position)
	if !ok {
		panic("unexpected state type")
	}
	return p
}

// EvaluateNeutral scores every position as a coin flip.
func EvaluateNeutral(s State) float64 {
	return 0.5
}

// EvaluateGoal reads the current player's goal propositions in a
// non-terminal state. Games often define goals on partial progress; when
// no single goal holds the position scores 0.5.
func EvaluateGoal(s State) float64 {
	p := position(s)
	v, err := p.sm.Goal(p.state, statemachine.Role(p.Player()))
	if err != nil {
		return 0.5
	}
	return float64(v) / 100
}

// EvaluateMobility compares the current player's number of legal moves with
// the best opponent's. Having more options scores above 0.5. A malformed
// game panics like any other machine error raised through a Position.
func EvaluateMobility(s State) float64 {
	p := position(s)
	mine, best := 0, 0
	for _, role := range p.roles {
		moves, err := p.sm.LegalMoves(p.state, role)
		if statemachine.IsFatal(err) {
			panic(err)
		}
		if err != nil {
			continue
		}
		if string(role) == p.Player() {
			mine = len(moves)
		} else if len(moves) > best {
			best = len(moves)
		}
	}
	if mine+best == 0 {
		return 0.5
	}
	return float64(mine) / float64(mine+best)
}

// EvaluateGoalMobility averages the goal and mobility scores.
func EvaluateGoalMobility(s State) float64 {
	return (EvaluateGoal(s) + EvaluateMobility(s)) / 2
}

// Evaluators names the evaluation functions for configuration.
var Evaluators = map[string]Evaluate{
	"neutral":       EvaluateNeutral,
	"goal":          EvaluateGoal,
	"mobility":      EvaluateMobility,
	"goal-mobility": EvaluateGoalMobility,
}
