package decision

import "fmt"

// MissingFieldError reports a query that lacks a field some visited
// node needed to make its decision. A malformed query is a caller bug,
// so the error surfaces instead of being retried.
type MissingFieldError struct {
	Field string
	Node  NodeID
}

func (e *MissingFieldError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("query missing field %q", e.Field)
	}
	return fmt.Sprintf("query missing field %q required by node %q", e.Field, e.Node)
}

// DanglingReferenceError reports an edge (or the start designation)
// pointing at a node id that does not exist in the graph. Detected
// eagerly at construction.
type DanglingReferenceError struct {
	From   NodeID
	Target NodeID
}

func (e *DanglingReferenceError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("start node %q does not exist", e.Target)
	}
	return fmt.Sprintf("node %q references unknown node %q", e.From, e.Target)
}

// CycleDetectedError reports a traversal that re-entered a node it had
// already visited. A cyclic graph violates the evaluator contract;
// failing beats looping forever.
type CycleDetectedError struct {
	Node NodeID
	Path []NodeID
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected at node %q (path %v)", e.Node, e.Path)
}

// DecodingError reports an unknown node kind or malformed payload in a
// serialized record. The caller decides whether to abort or skip.
type DecodingError struct {
	ID   NodeID
	Kind string
	Err  error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode node %q (%s): %v", e.ID, e.Kind, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }
