package propnet

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDot renders the live components of c in Graphviz dot format.
func (c *Circuit) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph propNet {")
	for _, id := range c.IDs() {
		fmt.Fprintf(bw, "\t\"@%d\"[%s];\n", id, c.dotAttrs(id))
		for _, out := range c.Outputs(id) {
			fmt.Fprintf(bw, "\t\"@%d\"->\"@%d\";\n", id, out)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func (c *Circuit) dotAttrs(id ID) string {
	switch c.Kind(id) {
	case Proposition:
		return "shape=circle, label=" + strconv.Quote(c.Name(id).String())
	case And:
		return `shape=invhouse, label="AND"`
	case Or:
		return `shape=ellipse, label="OR"`
	case Not:
		return `shape=invtriangle, label="NOT"`
	case Transition:
		return `shape=box, style=filled, fillcolor=grey, label="TRANSITION"`
	case Constant:
		return fmt.Sprintf("shape=doublecircle, label=%q", strconv.FormatBool(c.Value(id)))
	}
	return ""
}
