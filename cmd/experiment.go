package cmd

import (
	"fmt"

	"ggp/experiments"

	"github.com/spf13/cobra"
)

func newExperimentCmd(opts *rootOptions) *cobra.Command {
	var games int
	var out string

	runs := map[string]func(experiments.Match) error{
		"baseline":        experiments.RunBaselineExperiment,
		"cutoff":          experiments.RunCutoffExperiment,
		"parallelization": experiments.RunParallelizationExperiment,
	}

	experimentCmd := &cobra.Command{
		Use:       "experiment {baseline|cutoff|parallelization}",
		Short:     "Run a series of matches between agent configurations and write CSV records",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"baseline", "cutoff", "parallelization"},
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ok := runs[args[0]]
			if !ok {
				return fmt.Errorf("unknown experiment %q", args[0])
			}
			g, err := opts.config.LoadGame()
			if err != nil {
				return err
			}
			machine, err := opts.config.MachineOptions()
			if err != nil {
				return err
			}
			return run(experiments.Match{
				Game:     g,
				Machine:  machine,
				Games:    games,
				MaxTurns: opts.config.MaxTurns,
				Root:     out,
			})
		},
	}

	experimentCmd.Flags().IntVar(&games, "games", experiments.NumGames, "games per match up")
	experimentCmd.Flags().StringVar(&out, "out", "experiments", "root directory for records")
	return experimentCmd
}
