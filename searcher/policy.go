package searcher

import "math"

// DefaultExploration is c² in the UCT bound. Rewards lie in [0, 1], where
// c = √2 is the usual choice.
const DefaultExploration = 2.0

// bound scores the children of one parent during a selection. The parent's
// visits do not change while its lock is held, so c² ln N is fixed.
type bound struct {
	width float64
}

func newBound(exploration, parentVisits float64) bound {
	if parentVisits < 1 {
		panic("parent must have at least one visit")
	}
	return bound{width: exploration * math.Log(parentVisits)}
}

// score is the mean reward plus the exploration bonus sqrt(c² ln N / n).
// A child is scored only after its first virtual loss, so n is positive.
func (b bound) score(rewards, visits float64) float64 {
	if visits <= 0 {
		panic("child must have at least one visit")
	}
	return rewards/visits + math.Sqrt(b.width/visits)
}
