package decision

import (
	"errors"
	"fmt"
	"time"

	"github.com/mallornproject/mallorn/internal/decision/constraint"
)

// Engine drives node-to-node traversal of a graph until a terminal
// value is produced. Evaluation is a pure function of (graph, query)
// except for Probabilistic nodes, which consume the injected Roller.
type Engine struct {
	roller          Roller
	maxSteps        int
	latencyObserver NodeLatencyObserver
}

type EngineOption func(*Engine)

// WithRoller injects the randomness source used by Probabilistic
// nodes. Defaults to a time-seeded generator.
func WithRoller(r Roller) EngineOption {
	return func(e *Engine) {
		e.roller = r
	}
}

// WithMaxSteps bounds the number of transitions per evaluation as a
// backstop against oversized graphs.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

func WithNodeLatencyObserver(observer NodeLatencyObserver) EngineOption {
	return func(e *Engine) {
		e.latencyObserver = observer
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{maxSteps: 10_000}
	for _, opt := range opts {
		opt(e)
	}
	if e.roller == nil {
		e.roller = NewSeededRoller(time.Now().UnixNano())
	}
	return e
}

// Evaluate walks the graph from its start node and returns the outcome
// value the query routes to.
func (e *Engine) Evaluate(g *Graph, q Query) (any, error) {
	return e.run(g, q, nil)
}

// EvaluateWithTrace evaluates and additionally records the visited
// path and the per-node edge decisions, for debugging and display.
func (e *Engine) EvaluateWithTrace(g *Graph, q Query) (any, *EvaluationTrace, error) {
	trace := &EvaluationTrace{}
	out, err := e.run(g, q, trace)
	return out, trace, err
}

func (e *Engine) run(g *Graph, q Query, trace *EvaluationTrace) (any, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}

	query := make(Query, len(q))
	for k, v := range q {
		query[k] = constraint.Normalize(v)
	}

	current := g.Start()
	path := make([]NodeID, 0, 8)
	visited := map[NodeID]bool{}
	if trace != nil {
		trace.StartNode = current
	}

	for step := 0; step < e.maxSteps; step++ {
		nodeStart := time.Now()
		node, ok := g.Node(current)
		if !ok {
			// Construction validates edges, so this only fires on a
			// hand-built graph that bypassed New.
			return nil, &DanglingReferenceError{Target: current}
		}
		if visited[current] {
			return nil, &CycleDetectedError{Node: current, Path: path}
		}
		visited[current] = true
		path = append(path, current)

		res, err := node.decide(query, e.roller)
		e.observeNodeLatency(current, time.Since(nodeStart))
		if trace != nil {
			trace.record(current, node, res, time.Since(nodeStart))
		}
		if err != nil {
			var mf *MissingFieldError
			if errors.As(err, &mf) {
				mf.Node = current
			}
			return nil, err
		}

		if res.done {
			if trace != nil {
				trace.Outcome = res.value
			}
			return res.value, nil
		}
		current = res.next
	}

	return nil, fmt.Errorf("max steps %d exceeded (cyclic or oversized graph)", e.maxSteps)
}

func (e *Engine) observeNodeLatency(nodeID NodeID, duration time.Duration) {
	if e.latencyObserver == nil {
		return
	}
	e.latencyObserver.ObserveNodeLatency(nodeID, duration)
}
