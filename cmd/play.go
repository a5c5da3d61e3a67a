package cmd

import (
	"fmt"
	"slices"
	"strings"

	"ggp/engine"
	"ggp/experiments/metrics"
	"ggp/operator"
	"ggp/searcher"
	"ggp/searcher/agent"
	"ggp/statemachine"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newPlayCmd(opts *rootOptions) *cobra.Command {
	var agents []string
	var seed uint64

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play a local match between agents",
		Long: `Play one match with an agent per role. The configured machine is backed by
an interpreter machine that takes over if a checked backend disagrees.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.config
			if len(agents) > 0 {
				c.Agents = agents
				if err := c.Validate(); err != nil {
					return err
				}
			}
			g, err := c.LoadGame()
			if err != nil {
				return err
			}
			sm, err := c.NewMachine(g)
			if err != nil {
				return err
			}
			selector := statemachine.NewSelector()
			selector.Offer(c.Machine.Backend, 1, sm)
			if c.Machine.Backend != operator.Interpreter.String() {
				reference, err := statemachine.New(g.Roles, g.Circuit)
				if err != nil {
					return err
				}
				selector.Offer(operator.Interpreter.String(), 0, reference)
			}

			var prom *metrics.Prometheus
			if c.MetricsAddr != "" {
				reg := prometheus.NewRegistry()
				prom = metrics.NewPrometheus(reg)
				serveMetrics(c.MetricsAddr, reg)
			}

			players := make([]agent.Agent, len(g.Roles))
			for i := range players {
				kind := "mcts"
				if len(c.Agents) > 0 {
					kind = c.Agents[min(i, len(c.Agents)-1)]
				}
				switch kind {
				case "random":
					players[i] = agent.NewRandomAgent(seed + uint64(i))
				case "legal":
					players[i] = agent.NewLegalAgent()
				default:
					options := append(c.SearchOptions(), searcher.WithSeed(seed+uint64(i)), searcher.WithMetrics())
					if prom != nil {
						options = append(options, searcher.WithCollector(prom.Collector()))
					}
					players[i] = agent.NewEvaluationAgent(searcher.NewMCTS(options...))
				}
			}

			gameMetric, moveMetrics, err := engine.NewLocal(selector, players, engine.WithMaxTurns(c.MaxTurns)).Run()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			episodes := 0
			for _, m := range moveMetrics {
				episodes += m.Episodes
			}
			fmt.Fprintf(out, "%s: %d moves in %s, %d search episodes\n", g.Name, gameMetric.TotalMoves, gameMetric.Duration, episodes)
			if !gameMetric.Completed {
				fmt.Fprintln(out, "stopped at the turn limit")
				return nil
			}
			roles := make([]string, 0, len(gameMetric.Goals))
			for role := range gameMetric.Goals {
				roles = append(roles, role)
			}
			slices.Sort(roles)
			goals := make([]string, len(roles))
			for i, role := range roles {
				goals[i] = fmt.Sprintf("%s=%d", role, gameMetric.Goals[role])
			}
			fmt.Fprintf(out, "goals %s\n", strings.Join(goals, " "))
			return nil
		},
	}

	playCmd.Flags().StringSliceVar(&agents, "agents", nil, "agent kind per role (mcts, random, legal)")
	playCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed for agents")
	return playCmd
}
