package decision

import (
	"fmt"

	"github.com/mallornproject/mallorn/internal/decision/constraint"
)

// Analyzer answers reachability questions: which queries does the
// traversal route to a given node. It explores simple paths from the
// start node, accumulating the per-field constraints along each path
// and pruning branches whose accumulated constraint query becomes
// unsatisfiable.
type Analyzer struct {
	maxDepth int
}

type AnalyzerOption func(*Analyzer)

// WithMaxDepth bounds the search depth. Conforming graphs stay well
// under the default of 1000; the bound exists so a malformed, very
// deep graph fails loudly instead of exhausting the stack.
func WithMaxDepth(d int) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.maxDepth = d
		}
	}
}

func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{maxDepth: 1000}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// QueriesReaching returns the set of queries that reach the target
// node, as a union of constraint regions. A query reaching the target
// via a Probabilistic node appears with no constraint contributed by
// that node: the outcome is reachable by chance, not by attribute.
func (a *Analyzer) QueriesReaching(g *Graph, target NodeID) ([]constraint.Region, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if _, ok := g.Node(target); !ok {
		return nil, fmt.Errorf("unknown node %q", target)
	}
	if target == g.Start() {
		// Every query reaches the root.
		return []constraint.Region{{}}, nil
	}

	var out []constraint.Region
	path := []NodeID{g.Start()}
	if err := a.walk(g, g.Start(), target, path, constraint.Region{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Analyzer) walk(g *Graph, current, target NodeID, path []NodeID, acc constraint.Region, out *[]constraint.Region) error {
	if len(path) > a.maxDepth {
		return fmt.Errorf("max depth %d exceeded at node %q", a.maxDepth, current)
	}

	node, ok := g.Node(current)
	if !ok {
		return &DanglingReferenceError{Target: current}
	}

	for _, e := range node.Edges() {
		if onPath(path, e.Target) {
			// Simple paths only: a revisit would mean a cycle.
			continue
		}

		next := acc
		if e.Field != "" {
			narrowed, satisfiable := acc.WithConstraint(e.Field, e.Cond)
			if !satisfiable {
				// No query can take both this edge and the path so
				// far. Normal pruning, not an error.
				continue
			}
			next = narrowed
		}

		if e.Target == target {
			*out = append(*out, next.Clone())
			continue
		}

		childPath := append(append(make([]NodeID, 0, len(path)+1), path...), e.Target)
		if err := a.walk(g, e.Target, target, childPath, next, out); err != nil {
			return err
		}
	}
	return nil
}

func onPath(path []NodeID, id NodeID) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
