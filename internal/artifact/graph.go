// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cakedeps/cakedeps/internal/dag"
)

const (
	// GraphDOT renders a Graphviz digraph.
	GraphDOT GraphFormat = "dot"
	// GraphMermaid renders a Mermaid flowchart.
	GraphMermaid GraphFormat = "mermaid"
)

// GraphFormat selects how a dependency graph is rendered.
type GraphFormat string

// String returns the format name.
func (f GraphFormat) String() string { return string(f) }

// Validate returns an error wrapping ErrUnknownFormat for unsupported names.
func (f GraphFormat) Validate() error {
	switch f {
	case GraphDOT, GraphMermaid:
		return nil
	default:
		return fmt.Errorf("%w %q (known: dot, mermaid)", ErrUnknownFormat, string(f))
	}
}

// WriteGraph renders g to w. Edges are drawn in g's edge order.
func WriteGraph(w io.Writer, g *dag.Graph, format GraphFormat) error {
	if err := format.Validate(); err != nil {
		return err
	}

	var b strings.Builder
	switch format {
	case GraphMermaid:
		writeMermaid(&b, g)
	case GraphDOT:
		writeDOT(&b, g)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDOT(b *strings.Builder, g *dag.Graph) {
	b.WriteString("digraph cakedeps {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(b, "  %s;\n", strconv.Quote(n))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(b, "  %s -> %s;\n", strconv.Quote(e.From), strconv.Quote(e.To))
	}
	b.WriteString("}\n")
}

func writeMermaid(b *strings.Builder, g *dag.Graph) {
	ids := make(map[string]string, g.Len())
	b.WriteString("graph LR\n")
	for i, n := range g.Nodes() {
		id := "n" + strconv.Itoa(i)
		ids[n] = id
		fmt.Fprintf(b, "  %s[\"%s\"]\n", id, strings.ReplaceAll(n, `"`, "#quot;"))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(b, "  %s --> %s\n", ids[e.From], ids[e.To])
	}
}
