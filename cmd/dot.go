package cmd

import (
	"io"
	"os"

	"ggp/netfile"
	"ggp/propnet"

	"github.com/spf13/cobra"
)

// output opens path for writing, or returns w when path is empty.
func output(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newDotCmd(opts *rootOptions) *cobra.Command {
	var out string
	var simplified bool

	dotCmd := &cobra.Command{
		Use:   "dot",
		Short: "Render the circuit in Graphviz dot format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.config.LoadGame()
			if err != nil {
				return err
			}
			c := g.Circuit
			if simplified {
				c = c.Clone()
				propnet.Simplify(c)
			}
			w, done, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := c.WriteDot(w); err != nil {
				done()
				return err
			}
			return done()
		},
	}

	dotCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	dotCmd.Flags().BoolVar(&simplified, "simplified", false, "render the circuit after one simplification pass")
	return dotCmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the game as a YAML circuit file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.config.LoadGame()
			if err != nil {
				return err
			}
			data, err := netfile.Marshal(g)
			if err != nil {
				return err
			}
			w, done, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				done()
				return err
			}
			return done()
		},
	}

	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return exportCmd
}
