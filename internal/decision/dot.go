package decision

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// RenderDOT renders the graph in Graphviz DOT form for display.
// Terminals draw as boxes, decision nodes as ellipses, and each edge
// is labeled with its constraint. Output is deterministic: nodes are
// emitted in sorted id order.
func RenderDOT(g *Graph) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}

	const graphName = "decisions"
	gv := gographviz.NewGraph()
	if err := gv.SetName(graphName); err != nil {
		return "", fmt.Errorf("set graph name: %w", err)
	}
	if err := gv.SetDir(true); err != nil {
		return "", fmt.Errorf("set directed: %w", err)
	}

	for _, id := range g.IDs() {
		node, _ := g.Node(id)
		attrs := map[string]string{
			"label": strconv.Quote(node.Label()),
			"shape": "ellipse",
		}
		if _, terminal := node.(*Terminal); terminal {
			attrs["shape"] = "box"
		}
		if id == g.Start() {
			attrs["penwidth"] = "2"
		}
		if err := gv.AddNode(graphName, strconv.Quote(string(id)), attrs); err != nil {
			return "", fmt.Errorf("add node %q: %w", id, err)
		}
	}

	for _, id := range g.IDs() {
		node, _ := g.Node(id)
		for _, e := range node.Edges() {
			attrs := map[string]string{"label": strconv.Quote(e.Label)}
			if err := gv.AddEdge(strconv.Quote(string(id)), strconv.Quote(string(e.Target)), true, attrs); err != nil {
				return "", fmt.Errorf("add edge %q -> %q: %w", id, e.Target, err)
			}
		}
	}

	return gv.String(), nil
}
