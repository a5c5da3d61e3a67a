package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"ggp/propnet"
	"ggp/statemachine"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print what building the state machine produced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, sm, err := opts.machine()
			if err != nil {
				return err
			}
			stats := sm.Stats()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "game\t%s\n", g.Name)
			roles := make([]string, 0, len(sm.Roles()))
			for _, role := range sm.Roles() {
				roles = append(roles, string(role))
			}
			fmt.Fprintf(w, "roles\t%s\n", strings.Join(roles, " "))
			fmt.Fprintf(w, "factors\t%d\n", len(propnet.Factors(g.Circuit)))
			fmt.Fprintf(w, "components\t%d\n", stats.Components)
			fmt.Fprintf(w, "fused gates\t%d in %d passes\n", stats.Simplify.Fused, stats.Simplify.Passes)
			fmt.Fprintf(w, "propositions\t%d base, %d input, %d internal\n", stats.Bases, stats.Inputs, stats.Internal)
			fmt.Fprintf(w, "orderings\tfull %d, terminal %d, legal %v, goal %v\n",
				stats.FullOrder, stats.TerminalOrder, stats.LegalOrder, stats.GoalOrder)
			fmt.Fprintf(w, "program\t%d instructions, %d folded, %d dropped\n",
				stats.Program.Instructions, stats.Program.Folded, stats.Program.Dropped)
			fmt.Fprintf(w, "chunks\t%d in %d procedures, %d scratch slots\n",
				stats.Program.Chunks, stats.Program.Procedures, stats.Program.Scratch)
			for _, role := range sm.Roles() {
				values, err := sm.GoalValues(role)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "goals %s\t%v\n", role, values)
			}
			fmt.Fprintf(w, "initial state\t%s\n", describe(sm, sm.InitialState()))
			return w.Flush()
		},
	}
}

func describe(sm *statemachine.Machine, s statemachine.MachineState) string {
	facts := sm.Describe(s)
	names := make([]string, len(facts))
	for i, f := range facts {
		names[i] = f.String()
	}
	return strings.Join(names, " ")
}
