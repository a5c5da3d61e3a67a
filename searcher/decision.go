package searcher

import (
	"math"
	"sync"

	"ggp/game"
)

// decision is a tree node for a state where player chooses a move. Its
// statistics are kept from the perspective of mover, the player whose move
// led here, so a parent maximizes its children's mean reward.
type decision struct {
	sync.RWMutex
	parent      *decision
	mover       string
	player      string
	hash        game.StateHash
	exploration float64 // c² of the UCT bound, shared by the whole tree
	unexplored  []game.Move
	explored    []game.Move
	children    []*decision
	rewards     float64
	visits      float64
}

func newDecision(parent *decision, mover string, state game.State) *decision {
	moves := state.LegalMoves()
	unexplored := make([]game.Move, len(moves))
	copy(unexplored, moves)
	exploration := DefaultExploration
	if parent != nil {
		exploration = parent.exploration
	}
	return &decision{
		parent:      parent,
		mover:       mover,
		player:      state.Player(),
		hash:        state.Hash(),
		exploration: exploration,
		unexplored:  unexplored,
		explored:    make([]game.Move, 0, len(moves)),
		children:    make([]*decision, 0, len(moves)),
	}
}

// SelectOrExpand descends one level. It returns the node itself for a
// terminal node, a new child when a move is still unexplored, and otherwise
// the child maximizing UCT with selected set. The returned child carries a
// virtual loss until Backup reaches it.
func (d *decision) SelectOrExpand(state game.State) (*decision, game.State, bool) {
	d.Lock()
	defer d.Unlock()

	if len(d.unexplored) == 0 && len(d.explored) == 0 { // Terminal node
		return d, state, false
	}

	if len(d.unexplored) > 0 { // Expandable node
		last := len(d.unexplored) - 1
		move := d.unexplored[last]
		d.unexplored = d.unexplored[:last]
		childState := state.Play(move)
		child := newDecision(d, d.player, childState)
		child.applyLoss()
		d.explored = append(d.explored, move)
		d.children = append(d.children, child)
		return child, childState, false
	}

	// Fully expanded node
	i := d.selectChild()
	child := d.children[i]
	child.applyLoss()
	return child, state.Play(d.explored[i]), true
}

func (d *decision) selectChild() int {
	// Children may still be in flight from the episode that created them
	b := newBound(d.exploration, math.Max(d.visits, 1))

	maxIndex := -1
	maxScore := math.Inf(-1)
	for i, child := range d.children {
		if score := child.score(b); score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return maxIndex
}

func (d *decision) score(b bound) float64 {
	d.RLock()
	defer d.RUnlock()

	return b.score(d.rewards, d.visits)
}

func (d *decision) applyLoss() {
	d.Lock()
	defer d.Unlock()

	d.rewards += Loss
	d.visits++
}

func (d *decision) reverseLoss() {
	d.rewards -= Loss
	d.visits--
}

// Backup records an episode's outcome and returns the parent to continue
// with, or nil at the root.
func (d *decision) Backup(r reward) *decision {
	d.Lock()
	defer d.Unlock()

	if d.parent != nil { // Non-root node
		d.reverseLoss()
	}
	if d.mover != "" {
		d.rewards += r(d.mover)
	}
	d.visits++

	return d.parent
}

func (d *decision) Visits() float64 {
	d.RLock()
	defer d.RUnlock()

	return d.visits
}

func (d *decision) child(move game.Move) *decision {
	d.RLock()
	defer d.RUnlock()

	for i, m := range d.explored {
		if m == move {
			return d.children[i]
		}
	}
	return nil
}

// Policy is the share of visits per explored move.
func (d *decision) Policy() map[game.Move]float64 {
	d.RLock()
	defer d.RUnlock()

	policy := make(map[game.Move]float64, len(d.explored))
	total := 0.0
	for i, child := range d.children {
		visits := child.Visits()
		policy[d.explored[i]] = visits
		total += visits
	}
	if total > 0 {
		for move := range policy {
			policy[move] /= total
		}
	}
	return policy
}
