package cmd

import (
	"fmt"

	"ggp/propnet"
	"ggp/statemachine"
	"ggp/verify"

	"github.com/spf13/cobra"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Prove the simplified circuit equivalent and audit goals and legality",
		Long: `Verify encodes the circuit before and after simplification as one SAT
problem and proves that no base and input assignment tells them apart. It then
audits the simplified network for terminal states without exactly one goal per
role and for non-terminal states without legal moves. Audit findings ignore
reachability and are reported, not failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.config.LoadGame()
			if err != nil {
				return err
			}
			mode, err := statemachine.ParseSimplifyMode(opts.config.Machine.Simplify)
			if err != nil {
				return err
			}

			raw, err := propnet.NewNetwork(g.Roles, g.Circuit.Clone())
			if err != nil {
				return err
			}
			simplified := g.Circuit.Clone()
			var stats propnet.SimplifyStats
			switch mode {
			case statemachine.SimplifyOnce:
				stats = propnet.Simplify(simplified)
			case statemachine.SimplifyFixedPoint:
				stats = propnet.Simplify(simplified, propnet.UntilFixedPoint())
			}
			net, err := propnet.NewNetwork(g.Roles, simplified)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cex, err := verify.Equivalent(raw, net)
			if err != nil {
				return err
			}
			if cex != nil {
				fmt.Fprintf(out, "simplification changed %v when %v\n", cex.Targets, cex.True)
				return fmt.Errorf("%s: simplified circuit is not equivalent", g.Name)
			}
			fmt.Fprintf(out, "%s: simplified circuit equivalent (%d gates fused)\n", g.Name, stats.Fused)

			findings, err := verify.Audit(net)
			if err != nil {
				return err
			}
			for _, f := range findings {
				fmt.Fprintf(out, "finding: %s\n", f)
			}
			fmt.Fprintf(out, "%d audit findings\n", len(findings))
			return nil
		},
	}
}
