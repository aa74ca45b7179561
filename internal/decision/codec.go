package decision

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Record is one serialized node: the triple a storage collaborator
// persists as a row. Payload is a self-describing JSON encoding of the
// variant's constructor parameters. There is no versioning field; the
// kind tag set is the schema.
type Record struct {
	ID      NodeID          `json:"node_id"`
	Kind    string          `json:"node_type"`
	Payload json.RawMessage `json:"node_state"`
}

type terminalState struct {
	Value any `json:"value"`
}

type equalsState struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Match   NodeID `json:"match"`
	NoMatch NodeID `json:"no_match"`
}

type cutoffState struct {
	Field          string `json:"field"`
	Cutoff         any    `json:"cutoff"`
	Less           NodeID `json:"less"`
	GreaterOrEqual NodeID `json:"greater_or_equal"`
}

type setState struct {
	Field  string `json:"field"`
	Values []any  `json:"values"`
	In     NodeID `json:"in"`
	NotIn  NodeID `json:"not_in"`
}

type enumBranchState struct {
	Value  any    `json:"value"`
	Target NodeID `json:"target"`
}

type enumState struct {
	Field    string            `json:"field"`
	Branches []enumBranchState `json:"branches"`
	Default  NodeID            `json:"default"`
}

type rolloutState struct {
	Rate    float64 `json:"rate"`
	Inside  NodeID  `json:"inside"`
	Outside NodeID  `json:"outside"`
}

// decoders is the closed kind→constructor registry. Adding a node
// variant means adding its entry here and its case in encodeNode.
var decoders = map[string]func(json.RawMessage) (Node, error){
	KindTerminal: func(payload json.RawMessage) (Node, error) {
		var s terminalState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return NewTerminal(s.Value), nil
	},
	KindEqualsBranch: func(payload json.RawMessage) (Node, error) {
		var s equalsState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return NewEqualsBranch(s.Field, s.Value, s.Match, s.NoMatch), nil
	},
	KindOrderedCutoff: func(payload json.RawMessage) (Node, error) {
		var s cutoffState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return NewOrderedCutoff(s.Field, s.Cutoff, s.Less, s.GreaterOrEqual), nil
	},
	KindSetMembership: func(payload json.RawMessage) (Node, error) {
		var s setState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		if s.Values == nil {
			s.Values = []any{}
		}
		return NewSetMembership(s.Field, s.Values, s.In, s.NotIn), nil
	},
	KindEnumerated: func(payload json.RawMessage) (Node, error) {
		var s enumState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		branches := make([]EnumBranch, len(s.Branches))
		for i, b := range s.Branches {
			branches[i] = EnumBranch{Value: b.Value, Target: b.Target}
		}
		return NewEnumerated(s.Field, branches, s.Default), nil
	},
	KindProbabilistic: func(payload json.RawMessage) (Node, error) {
		var s rolloutState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return NewProbabilistic(s.Rate, s.Inside, s.Outside), nil
	},
}

// Encode serializes a graph to an ordered record list. The start
// node's record comes first — that is how Decode recovers the start —
// and the remaining records follow in sorted id order, so encoding is
// deterministic.
func Encode(g *Graph) ([]Record, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	ordered := make([]NodeID, 0, g.Len())
	ordered = append(ordered, g.Start())
	for _, id := range g.IDs() {
		if id != g.Start() {
			ordered = append(ordered, id)
		}
	}

	records := make([]Record, 0, len(ordered))
	for _, id := range ordered {
		node, _ := g.Node(id)
		kind, payload, err := encodeNode(node)
		if err != nil {
			return nil, &DecodingError{ID: id, Kind: kind, Err: err}
		}
		records = append(records, Record{ID: id, Kind: kind, Payload: payload})
	}
	return records, nil
}

func encodeNode(n Node) (string, json.RawMessage, error) {
	var state any
	switch nn := n.(type) {
	case *Terminal:
		state = terminalState{Value: nn.Value}
	case *EqualsBranch:
		state = equalsState{Field: nn.Field, Value: nn.Value, Match: nn.Match, NoMatch: nn.NoMatch}
	case *OrderedCutoff:
		state = cutoffState{Field: nn.Field, Cutoff: nn.Cutoff, Less: nn.Less, GreaterOrEqual: nn.GreaterOrEqual}
	case *SetMembership:
		state = setState{Field: nn.Field, Values: nn.Values, In: nn.In, NotIn: nn.NotIn}
	case *Enumerated:
		branches := make([]enumBranchState, len(nn.Branches))
		for i, b := range nn.Branches {
			branches[i] = enumBranchState{Value: b.Value, Target: b.Target}
		}
		state = enumState{Field: nn.Field, Branches: branches, Default: nn.Default}
	case *Probabilistic:
		state = rolloutState{Rate: nn.Rate, Inside: nn.Inside, Outside: nn.Outside}
	default:
		return "", nil, fmt.Errorf("unknown node type %T", n)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return n.Kind(), nil, err
	}
	return n.Kind(), payload, nil
}

// Decode reconstructs a graph from an ordered record list. The first
// record designates the start node. Unknown kinds, malformed payloads
// and duplicate ids fail with a DecodingError; dangling references
// surface from graph construction.
func Decode(records []Record) (*Graph, error) {
	if len(records) == 0 {
		return nil, errors.New("no records")
	}

	nodes := make(map[NodeID]Node, len(records))
	for _, rec := range records {
		if _, dup := nodes[rec.ID]; dup {
			return nil, &DecodingError{ID: rec.ID, Kind: rec.Kind, Err: errors.New("duplicate node id")}
		}
		decode, ok := decoders[rec.Kind]
		if !ok {
			return nil, &DecodingError{ID: rec.ID, Kind: rec.Kind, Err: errors.New("unknown node type")}
		}
		node, err := decode(rec.Payload)
		if err != nil {
			return nil, &DecodingError{ID: rec.ID, Kind: rec.Kind, Err: err}
		}
		nodes[rec.ID] = node
	}
	return New(records[0].ID, nodes)
}
