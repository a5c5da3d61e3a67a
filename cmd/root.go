// Package cmd is the command line front end: it builds state machines for
// builtin or file-based games and inspects, verifies, benchmarks and plays
// them.
package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"ggp/config"
	"ggp/games"
	"ggp/statemachine"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	game       string
	logLevel   string
	config     config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "ggp",
		Short: "Propositional network state machines for general game playing",
		Long: `Compile flattened game descriptions into propositional networks and
run them as state machines: print statistics, prove simplifications sound,
measure depth charge throughput and play local matches.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML match configuration")
	rootCmd.PersistentFlags().StringVarP(&opts.game, "game", "g", "", "builtin game (counter, swap, tictactoe, random) or circuit file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newStatsCmd(opts),
		newPlayCmd(opts),
		newBenchCmd(opts),
		newVerifyCmd(opts),
		newDotCmd(opts),
		newExportCmd(opts),
		newExperimentCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen})

	c := config.Default()
	if o.configPath != "" {
		var err error
		if c, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	if o.game != "" {
		c.Game = o.game
	}
	if o.logLevel != "" {
		c.LogLevel = o.logLevel
	}
	if err := c.ApplyLogLevel(); err != nil {
		return err
	}
	o.config = c
	return nil
}

// machine builds the configured game as an uncached propnet machine.
func (o *rootOptions) machine() (*games.Game, *statemachine.Machine, error) {
	g, err := o.config.LoadGame()
	if err != nil {
		return nil, nil, err
	}
	options, err := o.config.MachineOptions()
	if err != nil {
		return nil, nil, err
	}
	sm, err := statemachine.New(g.Roles, g.Circuit, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s: %w", g.Name, err)
	}
	return g, sm, nil
}

// serveMetrics exposes reg on addr until the process exits.
func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msgf("metrics endpoint on %s stopped", addr)
		}
	}()
	log.Info().Msgf("serving metrics on %s/metrics", addr)
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
