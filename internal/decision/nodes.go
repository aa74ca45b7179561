package decision

import (
	"fmt"

	"github.com/mallornproject/mallorn/internal/decision/constraint"
)

// Node kind tags. These double as the on-disk node_type schema, so
// renaming one is a breaking change for stored graphs.
const (
	KindTerminal      = "terminal"
	KindEqualsBranch  = "equals"
	KindOrderedCutoff = "cutoff"
	KindSetMembership = "set"
	KindEnumerated    = "enum"
	KindProbabilistic = "rollout"
)

// Terminal holds a final outcome value and ends traversal. It is the
// only variant without out-edges.
type Terminal struct {
	Value any
}

func NewTerminal(value any) *Terminal {
	return &Terminal{Value: constraint.Normalize(value)}
}

func (n *Terminal) Kind() string  { return KindTerminal }
func (n *Terminal) Label() string { return fmt.Sprintf("outcome %v", n.Value) }
func (n *Terminal) Edges() []Edge { return nil }

func (n *Terminal) decide(Query, Roller) (step, error) {
	return step{value: n.Value, done: true}, nil
}

// EqualsBranch routes on an exact match of one field, e.g. product or
// an ad hoc flag such as JAWS.
type EqualsBranch struct {
	Field   string
	Value   any
	Match   NodeID
	NoMatch NodeID
}

func NewEqualsBranch(field string, value any, match, noMatch NodeID) *EqualsBranch {
	return &EqualsBranch{Field: field, Value: constraint.Normalize(value), Match: match, NoMatch: noMatch}
}

func (n *EqualsBranch) Kind() string  { return KindEqualsBranch }
func (n *EqualsBranch) Label() string { return condLabel(n.Field, constraint.Equals{Value: n.Value}) + "?" }

func (n *EqualsBranch) Edges() []Edge {
	return []Edge{
		edge(n.Match, n.Field, constraint.Equals{Value: n.Value}),
		edge(n.NoMatch, n.Field, constraint.NotEquals{Value: n.Value}),
	}
}

func (n *EqualsBranch) decide(q Query, _ Roller) (step, error) {
	v, err := fieldValue(q, n.Field)
	if err != nil {
		return step{}, err
	}
	if constraint.Equal(v, n.Value) {
		return step{next: n.Match}, nil
	}
	return step{next: n.NoMatch}, nil
}

// OrderedCutoff routes on an ordered field: values strictly below the
// cutoff go one way, everything else the other. Version strings compare
// lexicographically.
type OrderedCutoff struct {
	Field          string
	Cutoff         any
	Less           NodeID
	GreaterOrEqual NodeID
}

func NewOrderedCutoff(field string, cutoff any, less, greaterOrEqual NodeID) *OrderedCutoff {
	return &OrderedCutoff{Field: field, Cutoff: constraint.Normalize(cutoff), Less: less, GreaterOrEqual: greaterOrEqual}
}

func (n *OrderedCutoff) Kind() string  { return KindOrderedCutoff }
func (n *OrderedCutoff) Label() string { return condLabel(n.Field, constraint.NewInterval(nil, n.Cutoff)) + "?" }

func (n *OrderedCutoff) Edges() []Edge {
	return []Edge{
		edge(n.Less, n.Field, constraint.NewInterval(nil, n.Cutoff)),
		edge(n.GreaterOrEqual, n.Field, constraint.NewInterval(n.Cutoff, nil)),
	}
}

func (n *OrderedCutoff) decide(q Query, _ Roller) (step, error) {
	v, err := fieldValue(q, n.Field)
	if err != nil {
		return step{}, err
	}
	if constraint.Less(v, n.Cutoff) {
		return step{next: n.Less}, nil
	}
	return step{next: n.GreaterOrEqual}, nil
}

// SetMembership routes on membership of one field in a fixed value
// set, e.g. the locales receiving a "what's new" page. Values are kept
// sorted and deduplicated.
type SetMembership struct {
	Field  string
	Values []any
	In     NodeID
	NotIn  NodeID
}

func NewSetMembership(field string, values []any, in, notIn NodeID) *SetMembership {
	return &SetMembership{Field: field, Values: constraint.NewInSet(values...).Values, In: in, NotIn: notIn}
}

func (n *SetMembership) Kind() string  { return KindSetMembership }
func (n *SetMembership) Label() string { return fmt.Sprintf("%s in set (%d values)?", n.Field, len(n.Values)) }

func (n *SetMembership) Edges() []Edge {
	return []Edge{
		edge(n.In, n.Field, constraint.InSet{Values: n.values()}),
		edge(n.NotIn, n.Field, constraint.NotInSet{Values: n.values()}),
	}
}

func (n *SetMembership) values() []any {
	return append([]any{}, n.Values...)
}

func (n *SetMembership) decide(q Query, _ Roller) (step, error) {
	v, err := fieldValue(q, n.Field)
	if err != nil {
		return step{}, err
	}
	if constraint.ContainsValue(n.Values, v) {
		return step{next: n.In}, nil
	}
	return step{next: n.NotIn}, nil
}

// EnumBranch is one (value, target) arm of an Enumerated node.
type EnumBranch struct {
	Value  any
	Target NodeID
}

// Enumerated routes on exact match against a small fixed enumeration,
// e.g. the operating system. Unmatched values take the designated
// default target.
type Enumerated struct {
	Field    string
	Branches []EnumBranch
	Default  NodeID
}

func NewEnumerated(field string, branches []EnumBranch, def NodeID) *Enumerated {
	copied := make([]EnumBranch, len(branches))
	for i, b := range branches {
		copied[i] = EnumBranch{Value: constraint.Normalize(b.Value), Target: b.Target}
	}
	return &Enumerated{Field: field, Branches: copied, Default: def}
}

func (n *Enumerated) Kind() string  { return KindEnumerated }
func (n *Enumerated) Label() string { return n.Field + "?" }

func (n *Enumerated) Edges() []Edge {
	out := make([]Edge, 0, len(n.Branches)+1)
	values := make([]any, 0, len(n.Branches))
	for _, b := range n.Branches {
		out = append(out, edge(b.Target, n.Field, constraint.Equals{Value: b.Value}))
		values = append(values, b.Value)
	}
	out = append(out, edge(n.Default, n.Field, constraint.NewNotInSet(values...)))
	return out
}

func (n *Enumerated) decide(q Query, _ Roller) (step, error) {
	v, err := fieldValue(q, n.Field)
	if err != nil {
		return step{}, err
	}
	for _, b := range n.Branches {
		if constraint.Equal(v, b.Value) {
			return step{next: b.Target}, nil
		}
	}
	return step{next: n.Default}, nil
}

// Probabilistic routes on a random draw instead of a query field,
// sending a Rate fraction of traffic inside a gradual rollout. Both
// edges carry Any constraints: for reachability the branch taken is
// chance, not a property of the query.
type Probabilistic struct {
	Rate    float64
	Inside  NodeID
	Outside NodeID
}

func NewProbabilistic(rate float64, inside, outside NodeID) *Probabilistic {
	return &Probabilistic{Rate: rate, Inside: inside, Outside: outside}
}

func (n *Probabilistic) Kind() string  { return KindProbabilistic }
func (n *Probabilistic) Label() string { return fmt.Sprintf("rollout %.0f%%?", n.Rate*100) }

func (n *Probabilistic) Edges() []Edge {
	return []Edge{
		{Target: n.Inside, Cond: constraint.Any{}, Label: fmt.Sprintf("draw < %g", n.Rate)},
		{Target: n.Outside, Cond: constraint.Any{}, Label: fmt.Sprintf("draw >= %g", n.Rate)},
	}
}

func (n *Probabilistic) decide(_ Query, roll Roller) (step, error) {
	if roll == nil {
		return step{}, fmt.Errorf("probabilistic node requires a roller")
	}
	if roll.Roll() < n.Rate {
		return step{next: n.Inside}, nil
	}
	return step{next: n.Outside}, nil
}

func edge(target NodeID, field string, c constraint.Constraint) Edge {
	return Edge{Target: target, Field: field, Cond: c, Label: condLabel(field, c)}
}

func condLabel(field string, c constraint.Constraint) string {
	return field + " " + c.String()
}
