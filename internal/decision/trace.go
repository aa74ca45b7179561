package decision

import "time"

// EvaluationTrace records one evaluation for debugging and display:
// the visited path and, per step, which edge was taken.
type EvaluationTrace struct {
	StartNode   NodeID      `json:"start_node"`
	VisitedPath []NodeID    `json:"visited_path"`
	Steps       []TraceStep `json:"steps"`
	Outcome     any         `json:"outcome,omitempty"`
}

type TraceStep struct {
	NodeID         NodeID      `json:"node_id"`
	Kind           string      `json:"kind"`
	DurationMicros int64       `json:"duration_micros"`
	ChosenNext     NodeID      `json:"chosen_next,omitempty"`
	Edges          []EdgeTrace `json:"edges,omitempty"`
}

type EdgeTrace struct {
	To    NodeID `json:"to"`
	Label string `json:"label"`
	Taken bool   `json:"taken"`
}

func (t *EvaluationTrace) record(id NodeID, node Node, res step, d time.Duration) {
	t.VisitedPath = append(t.VisitedPath, id)
	ts := TraceStep{
		NodeID:         id,
		Kind:           node.Kind(),
		DurationMicros: d.Microseconds(),
	}
	if !res.done {
		ts.ChosenNext = res.next
	}
	for _, e := range node.Edges() {
		ts.Edges = append(ts.Edges, EdgeTrace{
			To:    e.Target,
			Label: e.Label,
			Taken: !res.done && e.Target == res.next,
		})
	}
	t.Steps = append(t.Steps, ts)
}
