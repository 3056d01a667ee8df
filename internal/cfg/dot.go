package cfg

import (
	"fmt"
	"strconv"
	"strings"

	"tracelens/internal/model"
)

var shapes = map[model.NodeKind]string{
	model.NodeStart:    "oval",
	model.NodeEnd:      "oval",
	model.NodeProcess:  "box",
	model.NodeDecision: "diamond",
	model.NodeLoop:     "hexagon",
}

// DOT renders g in Graphviz format.
func DOT(g model.Graph) string {
	var sb strings.Builder
	sb.WriteString("digraph cfg {\n")
	sb.WriteString("  node [fontname=\"Helvetica\"];\n")
	for _, n := range g.Nodes {
		label := n.Label
		if n.SourceLine > 0 && n.Kind != model.NodeEnd {
			label = fmt.Sprintf("%d: %s", n.SourceLine, label)
		}
		attrs := fmt.Sprintf("shape=%s, label=%s", shapes[n.Kind], strconv.Quote(label))
		if n.Unreachable {
			attrs += ", style=dashed, color=gray"
		}
		fmt.Fprintf(&sb, "  %s [%s];\n", strconv.Quote(n.ID), attrs)
	}
	for _, e := range g.Edges {
		var parts []string
		if e.Condition != "" {
			parts = append(parts, e.Condition)
		}
		if e.Annotation != "" && e.Annotation != AnnotFallthrough {
			parts = append(parts, e.Annotation)
		}
		fmt.Fprintf(&sb, "  %s -> %s", strconv.Quote(e.Source), strconv.Quote(e.Target))
		if len(parts) > 0 {
			fmt.Fprintf(&sb, " [label=%s]", strconv.Quote(strings.Join(parts, ", ")))
		}
		sb.WriteString(";\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
