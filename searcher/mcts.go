package searcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ggp/experiments/metrics"
	"ggp/game"
	"ggp/meta"
	"ggp/statemachine"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

type Option func(mcts *MCTS)

// Segment is one move played since the previous search together with the
// hash of the state it led to.
type Segment struct {
	Move      game.Move
	StateHash game.StateHash
}

type MCTS struct {
	goroutines  int
	duration    time.Duration
	episodes    int
	cutoff      int
	exploration float64
	evaluate    game.Evaluate
	rng         *rand.Rand
	root        *decision
	metrics     metrics.Collector
}

func WithGoroutines(goroutines int) Option {
	return func(m *MCTS) {
		if goroutines > 0 {
			m.goroutines = goroutines
		}
	}
}

// WithDuration bounds a search by wall-clock time. Episodes take
// precedence when both are set.
func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

// WithCutoff stops rollouts after depth moves and scores the state with the
// evaluation function. Without a cutoff rollouts play to the end.
func WithCutoff(depth int) Option {
	return func(m *MCTS) {
		if depth > 0 {
			m.cutoff = depth
		}
	}
}

// WithExploration sets c² in the UCT bound. Zero makes selection greedy.
func WithExploration(cSquared float64) Option {
	return func(m *MCTS) {
		if cSquared >= 0 {
			m.exploration = cSquared
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func WithCollector(collector metrics.Collector) Option {
	return func(m *MCTS) {
		if collector != nil {
			m.metrics = collector
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		goroutines:  meta.GO_ROUTINES,
		exploration: DefaultExploration,
		evaluate:    game.EvaluateGoalMobility,
		rng:         rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		metrics:     metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	return m
}

// Simulate grows the search tree from state and returns the visit share of
// every root move. The tree of the previous call is reused when path leads
// from its root to state.
//
// A search in which no episode completes, because the deadline passed
// first, fails with statemachine.ErrNotComputable. A panic inside an
// episode, such as a state machine error raised by game.Position, ends the
// search and is returned as an error.
func (m *MCTS) Simulate(state game.State, path []Segment) (map[game.Move]float64, metrics.SearchMetric, error) {
	if len(state.LegalMoves()) == 0 {
		return nil, metrics.SearchMetric{}, ErrTerminal
	}
	m.findRoot(path, state)

	// Run simulations to collect statistics
	m.metrics.Start(m.goroutines, m.cutoff)
	var completed int64
	var err error
	if m.episodes > 0 {
		completed, err = m.iterate(state)
	} else {
		completed, err = m.countdown(state)
	}
	metric := m.metrics.Complete()

	if err != nil {
		m.root = nil // Virtual losses of the failed episode were never reversed
		return nil, metric, err
	}
	if completed == 0 {
		return nil, metric, fmt.Errorf("%w: no search episode completed in %s", statemachine.ErrNotComputable, m.duration)
	}

	// Output move policy and move finding metrics
	return m.root.Policy(), metric, nil
}

func (m *MCTS) iterate(state game.State) (int64, error) {
	task := make(chan any, m.episodes)
	for i := 0; i < m.episodes; i++ {
		task <- nil
	}
	close(task)

	return m.run(context.Background(), state, func() bool {
		_, ok := <-task
		return ok
	})
}

func (m *MCTS) countdown(state game.State) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.duration)
	defer cancel()

	return m.run(ctx, state, func() bool { return true })
}

// run starts the workers. Each pulls episodes from next until it is
// exhausted or ctx ends.
func (m *MCTS) run(ctx context.Context, state game.State, next func() bool) (int64, error) {
	g, ctx := errgroup.WithContext(ctx)
	var completed atomic.Int64
	for i := 0; i < m.goroutines; i++ {
		rng := rand.New(rand.NewSource(m.rng.Uint64()))
		g.Go(func() error {
			for next() {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				if err := m.simulate(state, rng); err != nil {
					return err
				}
				completed.Add(1)
				m.metrics.AddEpisode()
			}
			return nil
		})
	}
	err := g.Wait()
	return completed.Load(), err
}

func (m *MCTS) findRoot(path []Segment, state game.State) {
	root := traverse(m.root, path)
	if root == nil || root.hash != state.Hash() {
		m.root = newDecision(nil, "", state)
		m.root.exploration = m.exploration
		m.metrics.SetTreeReset(true)
		return
	}
	root.parent = nil
	m.root = root
	m.metrics.SetTreeReset(false)
}

func traverse(root *decision, path []Segment) *decision {
	node := root
	for _, segment := range path {
		if node == nil {
			return nil
		}
		child := node.child(segment.Move)
		if child == nil { // Node has not expanded this move
			return nil
		}
		if child.hash != segment.StateHash {
			log.Warn().Msgf("node's state hash %d does not match segment's state hash %d", child.hash, segment.StateHash)
			return nil
		}
		node = child
	}
	return node
}

func (m *MCTS) simulate(state game.State, rng *rand.Rand) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("search episode: %w", e)
			} else {
				err = fmt.Errorf("search episode: %v", r)
			}
		}
	}()

	newNode, newState := selectThenExpand(m.root, state)
	backup(newNode, m.rollout(newState, rng))
	return nil
}

func selectThenExpand(root *decision, state game.State) (*decision, game.State) {
	child, state, selected := root.SelectOrExpand(state)
	for selected {
		child, state, selected = child.SelectOrExpand(state)
	}
	return child, state
}

func (m *MCTS) rollout(state game.State, rng *rand.Rand) reward {
	if p, ok := state.(game.Playouter); ok && m.cutoff <= 0 {
		rewards, depth := p.Playout(rng)
		m.metrics.AddRollout(depth, true)
		return terminalReward(rewards)
	}

	depth := 0
	moves := state.LegalMoves()
	// Rollout till game over or for cutoff number of moves
	for len(moves) > 0 && (m.cutoff <= 0 || depth < m.cutoff) {
		move := moves[rng.Intn(len(moves))] // Random rollout policy
		state = state.Play(move)
		moves = state.LegalMoves()
		depth++
	}

	if len(moves) == 0 { // Game over before cutoff
		m.metrics.AddRollout(depth, true)
		return terminalReward(state.Rewards())
	}
	m.metrics.AddRollout(depth, false)

	// At cutoff state, score from the current player's perspective
	return evaluatedReward(state.Player(), m.evaluate(state))
}

func backup(node *decision, r reward) {
	for node != nil {
		node = node.Backup(r)
	}
}
