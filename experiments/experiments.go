package experiments

import (
	"fmt"
	"time"

	"ggp/engine"
	"ggp/experiments/metrics"
	"ggp/game"
	"ggp/games"
	"ggp/meta"
	"ggp/searcher"
	"ggp/searcher/agent"
	"ggp/statemachine"

	"github.com/rs/zerolog/log"
)

const (
	NumGames   = 30 // Per match up
	TimeBudget = 10 * time.Millisecond
)

// Match describes the games of one experiment: which game, how its state
// machine is built and where records are written.
type Match struct {
	Game     *games.Game
	Machine  []statemachine.Option
	Games    int // Per match up
	MaxTurns int
	Root     string // Output directory
}

func (m Match) numGames() int {
	if m.Games > 0 {
		return m.Games
	}
	return NumGames
}

var parallelConfigs = []metrics.AgentConfig{
	{ID: 1, Kind: "mcts", Goroutines: 1, Duration: TimeBudget},
	{ID: 2, Kind: "mcts", Goroutines: 2, Duration: TimeBudget},
	{ID: 3, Kind: "mcts", Goroutines: 4, Duration: TimeBudget},
	{ID: 4, Kind: "mcts", Goroutines: 8, Duration: TimeBudget},
}

// RunParallelizationExperiment pairs each parallel agent against the
// sequential baseline.
func RunParallelizationExperiment(m Match) error {
	baseline := metrics.AgentConfig{ID: 0, Kind: "mcts", Goroutines: 1, Duration: TimeBudget}
	matchUps := [][]metrics.AgentConfig{}
	for _, config := range parallelConfigs {
		matchUps = append(matchUps, []metrics.AgentConfig{baseline, config})
	}

	return runExperiment(m, "parallelization", append(parallelConfigs, baseline), matchUps)
}

// RunCutoffExperiment pairs full playouts against rollouts cut off and
// scored by the goal-mobility heuristic.
func RunCutoffExperiment(m Match) error {
	baseline := metrics.AgentConfig{ID: 0, Kind: "mcts", Goroutines: meta.GO_ROUTINES, Duration: TimeBudget} // Without cutoff (full playout)
	cutoffConfigs := []metrics.AgentConfig{
		{ID: 1, Kind: "mcts", Goroutines: baseline.Goroutines, Duration: baseline.Duration, Cutoff: 2, Evaluator: "goal-mobility"},
		{ID: 2, Kind: "mcts", Goroutines: baseline.Goroutines, Duration: baseline.Duration, Cutoff: 10, Evaluator: "goal-mobility"},
		{ID: 3, Kind: "mcts", Goroutines: baseline.Goroutines, Duration: baseline.Duration, Cutoff: meta.WITH_CUTOFF, Evaluator: "goal-mobility"},
	}

	// Each matchup pairs the baseline agent against a cutoff agent
	matchUps := [][]metrics.AgentConfig{}
	for _, config := range cutoffConfigs {
		matchUps = append(matchUps, []metrics.AgentConfig{baseline, config})
	}

	return runExperiment(m, "cutoff", append(cutoffConfigs, baseline), matchUps)
}

// RunBaselineExperiment pairs a search agent with the random and legal
// players.
func RunBaselineExperiment(m Match) error {
	mcts := metrics.AgentConfig{ID: 1, Kind: "mcts", Goroutines: meta.GO_ROUTINES, Episodes: meta.EPISODES}
	configs := []metrics.AgentConfig{
		mcts,
		{ID: 2, Kind: "random"},
		{ID: 3, Kind: "legal"},
	}
	matchUps := [][]metrics.AgentConfig{
		{mcts, configs[1]},
		{configs[1], mcts},
		{mcts, configs[2]},
	}
	return runExperiment(m, "baseline", configs, matchUps)
}

func runExperiment(m Match, name string, configs []metrics.AgentConfig, matchUps [][]metrics.AgentConfig) error {
	// Run a number of games for each matchup
	count := 0
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}

	log.Info().Msgf("starting %s experiment on %s...", name, m.Game.Name)

	for mi, matchup := range matchUps {
		log.Info().Msgf("starting matchup %d of %d between %+v...", mi+1, len(matchUps), matchup)

		for i := 0; i < m.numGames(); i++ {
			count++
			gameMetric, moveMetrics, err := runGame(m, matchup, uint64(count))
			if err != nil {
				return fmt.Errorf("matchup %d game %d: %w", mi+1, i+1, err)
			}
			ids := make([]int, len(matchup))
			for k, config := range matchup {
				ids[k] = config.ID
			}
			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         count,
				Agents:     ids,
				GameMetric: gameMetric,
			})
			for _, mm := range moveMetrics {
				moveRecords = append(moveRecords, metrics.MoveRecord{
					Game:       count,
					MoveMetric: mm,
				})
			}

			log.Info().Msgf("completed matchup %d of %d game %d with goals %v", mi+1, len(matchUps), i+1, gameMetric.Goals)
		}
	}

	log.Info().Msgf("completed %s experiment", name)

	// Store experiment metadata and results
	writer, err := metrics.NewWriter(m.Root, name)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return fmt.Errorf("failed to store agent configs: %w", err)
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return fmt.Errorf("failed to write game records: %w", err)
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msgf("stored %s records in %s", name, writer.Dir())
	return nil
}

// runGame plays one match. Roles beyond the match up reuse its last config.
func runGame(m Match, matchup []metrics.AgentConfig, seed uint64) (metrics.GameMetric, []metrics.MoveMetric, error) {
	sm, err := statemachine.New(m.Game.Roles, m.Game.Circuit, m.Machine...)
	if err != nil {
		return metrics.GameMetric{}, nil, err
	}
	selector := statemachine.NewSelector()
	selector.Offer("propnet", 0, sm)

	agents := make([]agent.Agent, len(m.Game.Roles))
	for i := range agents {
		config := matchup[min(i, len(matchup)-1)]
		if agents[i], err = CreateAgent(config, seed*uint64(len(agents))+uint64(i)); err != nil {
			return metrics.GameMetric{}, nil, err
		}
	}

	var options []engine.Option
	if m.MaxTurns > 0 {
		options = append(options, engine.WithMaxTurns(m.MaxTurns))
	}
	return engine.NewLocal(selector, agents, options...).Run()
}

// CreateAgent builds the agent an AgentConfig describes.
func CreateAgent(config metrics.AgentConfig, seed uint64) (agent.Agent, error) {
	switch config.Kind {
	case "random":
		return agent.NewRandomAgent(seed), nil
	case "legal":
		return agent.NewLegalAgent(), nil
	case "mcts", "":
		mcts, err := createMCTS(config, seed)
		if err != nil {
			return nil, err
		}
		return agent.NewEvaluationAgent(mcts), nil
	}
	return nil, fmt.Errorf("unknown agent kind %q", config.Kind)
}

func createMCTS(config metrics.AgentConfig, seed uint64) (*searcher.MCTS, error) {
	options := []searcher.Option{searcher.WithSeed(seed)}

	if config.Goroutines > 0 {
		options = append(options, searcher.WithGoroutines(config.Goroutines))
	}
	if config.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(config.Episodes))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.Episodes <= 0 && config.Duration <= 0 {
		options = append(options, searcher.WithEpisodes(meta.EPISODES))
	}
	if config.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(config.Cutoff))
	}
	if config.Evaluator != "" {
		evaluate, ok := game.Evaluators[config.Evaluator]
		if !ok {
			return nil, fmt.Errorf("unknown evaluator %q", config.Evaluator)
		}
		options = append(options, searcher.WithEvaluationFn(evaluate))
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(options...), nil
}
