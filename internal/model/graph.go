package model

// NodeKind is the role of a CFG node.
type NodeKind string

const (
	NodeStart    NodeKind = "start"
	NodeEnd      NodeKind = "end"
	NodeProcess  NodeKind = "process"
	NodeDecision NodeKind = "decision"
	NodeLoop     NodeKind = "loop"
)

// Edge conditions.
const (
	CondTrue  = "true"
	CondFalse = "false"
)

// Node is a basic block or decision point of a control-flow graph.
type Node struct {
	ID          string   `json:"id"`
	SourceLine  int      `json:"sourceLine"`
	Kind        NodeKind `json:"kind"`
	Label       string   `json:"label"`
	Unreachable bool     `json:"unreachable,omitempty"`
}

// Edge is a directed transition between two nodes.
type Edge struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Condition  string `json:"condition,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

// Graph is a control-flow graph with stable node ids.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Outgoing returns the edges leaving the given node, in insertion order.
func (g Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// InDegree counts the edges entering the given node.
func (g Graph) InDegree(id string) int {
	n := 0
	for _, e := range g.Edges {
		if e.Target == id {
			n++
		}
	}
	return n
}

// Node looks up a node by id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
