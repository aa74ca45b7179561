// Package decision implements the decision-graph engine: a node model
// over an immutable graph, query evaluation, reachability analysis
// (which queries land on a given node), diffing of two graph versions,
// and a lossless record codec for persistence.
package decision

import (
	"reflect"
	"sort"

	"github.com/mallornproject/mallorn/internal/decision/constraint"
)

// NodeID identifies a node within a graph. IDs are opaque: uniqueness
// is the only requirement, no ordering semantics attach to them.
type NodeID string

// Query carries the concrete attributes of one routing request, e.g.
// product, os, version, locale. Values are scalars (string, number,
// bool). Fields a node never inspects may be omitted.
type Query map[string]any

// Edge is one outgoing transition of a node: the constraint a query
// must satisfy on a single field for this edge to be taken, and the
// target node. Probabilistic edges leave Field empty and carry an Any
// constraint, since their branch is not determined by the query.
type Edge struct {
	Target NodeID
	Field  string
	Cond   constraint.Constraint
	Label  string
}

// step is a node's verdict for one query: either a next node to
// continue at, or a final value.
type step struct {
	next  NodeID
	value any
	done  bool
}

// Node is one decision point. The variant set is closed: the decide
// method is unexported, so only this package's types can implement it,
// and the codec keeps an explicit kind registry over the same set.
type Node interface {
	// Kind is the stable tag used by the codec.
	Kind() string
	// Label is a short display string for rendering.
	Label() string
	// Edges lists the outgoing transitions with their constraints.
	// Terminal nodes return nil.
	Edges() []Edge

	decide(q Query, roll Roller) (step, error)
}

// Graph is an immutable decision graph: a set of nodes keyed by id and
// a designated start node. Construction validates that every edge
// target exists, so traversal never dangles. Edits derive a new graph
// via WithNode; existing graphs are never mutated, which makes a graph
// safe to share across concurrent readers.
type Graph struct {
	start NodeID
	nodes map[NodeID]Node
}

// New builds a graph, failing with a DanglingReferenceError when the
// start node is missing or any edge targets an unknown id.
func New(start NodeID, nodes map[NodeID]Node) (*Graph, error) {
	if _, ok := nodes[start]; !ok {
		return nil, &DanglingReferenceError{Target: start}
	}
	copied := make(map[NodeID]Node, len(nodes))
	for id, n := range nodes {
		copied[id] = n
	}
	for id, n := range copied {
		for _, e := range n.Edges() {
			if _, ok := copied[e.Target]; !ok {
				return nil, &DanglingReferenceError{From: id, Target: e.Target}
			}
		}
	}
	return &Graph{start: start, nodes: copied}, nil
}

// Start returns the id of the traversal root.
func (g *Graph) Start() NodeID { return g.start }

// Node looks up a node by id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// IDs returns all node ids in sorted order, for deterministic
// iteration and serialization.
func (g *Graph) IDs() []NodeID {
	out := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WithNode derives a new graph with one node added or replaced. The
// receiver is untouched, so old and new versions can coexist (and be
// diffed). The derived graph is re-validated.
func (g *Graph) WithNode(id NodeID, n Node) (*Graph, error) {
	nodes := make(map[NodeID]Node, len(g.nodes)+1)
	for k, v := range g.nodes {
		nodes[k] = v
	}
	nodes[id] = n
	return New(g.start, nodes)
}

// Equal reports structural equality: same start, same ids, same
// variant and parameters per node.
func (g *Graph) Equal(o *Graph) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.start == o.start && reflect.DeepEqual(g.nodes, o.nodes)
}

// Terminals returns the outcome value of every terminal node, keyed by
// node id.
func (g *Graph) Terminals() map[NodeID]any {
	out := map[NodeID]any{}
	for id, n := range g.nodes {
		if t, ok := n.(*Terminal); ok {
			out[id] = t.Value
		}
	}
	return out
}

func fieldValue(q Query, field string) (any, error) {
	v, ok := q[field]
	if !ok {
		return nil, &MissingFieldError{Field: field}
	}
	return constraint.Normalize(v), nil
}
