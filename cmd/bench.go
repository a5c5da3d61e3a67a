package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"ggp/experiments"
	"ggp/experiments/metrics"
	"ggp/operator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newBenchCmd(opts *rootOptions) *cobra.Command {
	var (
		backends   []string
		goroutines []int
		duration   time.Duration
		out        string
	)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure depth charge throughput per backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.config
			g, err := c.LoadGame()
			if err != nil {
				return err
			}
			machine, err := c.MachineOptions()
			if err != nil {
				return err
			}
			t := experiments.Throughput{Game: g, Goroutines: goroutines, Duration: duration, Machine: machine}
			for _, name := range backends {
				backend, err := operator.ParseBackend(name)
				if err != nil {
					return err
				}
				t.Backends = append(t.Backends, backend)
			}

			reg := prometheus.NewRegistry()
			t.Prometheus = metrics.NewPrometheus(reg)
			if c.MetricsAddr != "" {
				serveMetrics(c.MetricsAddr, reg)
			}

			records, err := experiments.RunThroughputExperiment(cmd.Context(), out, t)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "backend\tgoroutines\tcharges\tper second\tmismatches")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.0f\t%d\n", r.Backend, r.Goroutines, r.Charges, r.PerSecond(), r.Mismatches)
			}
			return w.Flush()
		},
	}

	benchCmd.Flags().StringSliceVar(&backends, "backends", []string{"interpreter", "closure", "checked"}, "backends to measure")
	benchCmd.Flags().IntSliceVar(&goroutines, "goroutines", []int{1, 2, 4, 8}, "goroutine counts to measure")
	benchCmd.Flags().DurationVar(&duration, "duration", time.Second, "measurement time per configuration")
	benchCmd.Flags().StringVar(&out, "out", "", "directory for throughput_records.csv")
	return benchCmd
}
