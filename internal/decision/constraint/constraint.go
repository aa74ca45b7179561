// Package constraint implements the query algebra used by the decision
// engine: per-field constraints, field-wise intersection of constraint
// queries (regions), and axis-aligned region subtraction.
package constraint

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Constraint describes the acceptable values of a single query field.
// The set of implementations is closed: Any, Equals, NotEquals,
// Interval, InSet and NotInSet.
type Constraint interface {
	fmt.Stringer
	isConstraint()
}

// Any accepts every value.
type Any struct{}

// Equals accepts exactly one value.
type Equals struct{ Value any }

// NotEquals accepts everything except one value.
type NotEquals struct{ Value any }

// Interval accepts values in the half-open range [Low, High). A nil
// bound is unbounded. Excluded holds in-range values carved out by
// intersection with NotEquals/NotInSet; constructors never set it.
type Interval struct {
	Low      any
	High     any
	Excluded []any
}

// InSet accepts any member of Values. Values is kept sorted and
// deduplicated so that equal sets compare equal and serialize
// deterministically.
type InSet struct{ Values []any }

// NotInSet accepts everything outside Values.
type NotInSet struct{ Values []any }

func (Any) isConstraint()       {}
func (Equals) isConstraint()    {}
func (NotEquals) isConstraint() {}
func (Interval) isConstraint()  {}
func (InSet) isConstraint()     {}
func (NotInSet) isConstraint()  {}

// NewInSet builds an InSet with normalized, sorted, deduplicated values.
func NewInSet(values ...any) InSet {
	return InSet{Values: normalizeList(values)}
}

// NewNotInSet builds a NotInSet with normalized, sorted, deduplicated values.
func NewNotInSet(values ...any) NotInSet {
	return NotInSet{Values: normalizeList(values)}
}

// NewInterval builds a half-open interval [low, high); nil bounds are
// unbounded.
func NewInterval(low, high any) Interval {
	return Interval{Low: Normalize(low), High: Normalize(high)}
}

// Normalize maps every numeric type onto float64 so that values compare
// equal after a JSON round trip. Strings and bools pass through.
func Normalize(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func normalizeList(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, Normalize(v))
	}
	sort.Slice(out, func(i, j int) bool { return compareValues(out[i], out[j]) < 0 })
	dedup := out[:0]
	for i, v := range out {
		if i == 0 || compareValues(dedup[len(dedup)-1], v) != 0 {
			dedup = append(dedup, v)
		}
	}
	return dedup
}

// compareValues is a total order over normalized scalar values: bools
// sort before numbers, numbers before strings. Within a kind the
// natural order applies.
func compareValues(a, b any) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return strings.Compare(av, b.(string))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func kindRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

func valueEqual(a, b any) bool { return compareValues(a, b) == 0 }

// Equal reports whether two scalar values compare equal after
// normalization.
func Equal(a, b any) bool { return compareValues(Normalize(a), Normalize(b)) == 0 }

// Less reports whether a sorts before b in the total order used for
// ordered-domain comparisons (notably lexicographic version cutoffs).
func Less(a, b any) bool { return compareValues(Normalize(a), Normalize(b)) < 0 }

// ContainsValue reports whether v equals some member of values.
func ContainsValue(values []any, v any) bool { return valueIn(Normalize(v), values) }

func valueIn(v any, values []any) bool {
	for _, m := range values {
		if valueEqual(v, m) {
			return true
		}
	}
	return false
}

func mergeSets(a, b []any) []any {
	return normalizeList(append(append([]any{}, a...), b...))
}

func intersectSets(a, b []any) []any {
	out := make([]any, 0, len(a))
	for _, v := range a {
		if valueIn(v, b) {
			out = append(out, v)
		}
	}
	return out
}

func subtractSet(a, b []any) []any {
	out := make([]any, 0, len(a))
	for _, v := range a {
		if !valueIn(v, b) {
			out = append(out, v)
		}
	}
	return out
}

func (iv Interval) contains(v any) bool {
	if iv.Low != nil && compareValues(v, iv.Low) < 0 {
		return false
	}
	if iv.High != nil && compareValues(v, iv.High) >= 0 {
		return false
	}
	return !valueIn(v, iv.Excluded)
}

// inRange reports whether v falls inside [Low, High), ignoring Excluded.
func (iv Interval) inRange(v any) bool {
	if iv.Low != nil && compareValues(v, iv.Low) < 0 {
		return false
	}
	if iv.High != nil && compareValues(v, iv.High) >= 0 {
		return false
	}
	return true
}

// Satisfiable reports whether a constraint admits at least one value.
// Domains are treated as unbounded, so only empty sets and inverted
// intervals are unsatisfiable.
func Satisfiable(c Constraint) bool {
	switch cc := c.(type) {
	case InSet:
		return len(cc.Values) > 0
	case Interval:
		if cc.Low != nil && cc.High != nil && compareValues(cc.Low, cc.High) >= 0 {
			return false
		}
		return true
	default:
		return true
	}
}

// Intersect computes the conjunction of two constraints on the same
// field. The second return value is false when the conjunction admits
// no value at all.
func Intersect(a, b Constraint) (Constraint, bool) {
	if constraintRank(a) > constraintRank(b) {
		a, b = b, a
	}

	switch ac := a.(type) {
	case Any:
		if !Satisfiable(b) {
			return nil, false
		}
		return b, true

	case Equals:
		switch bc := b.(type) {
		case Equals:
			if valueEqual(ac.Value, bc.Value) {
				return ac, true
			}
		case NotEquals:
			if !valueEqual(ac.Value, bc.Value) {
				return ac, true
			}
		case Interval:
			if bc.contains(ac.Value) {
				return ac, true
			}
		case InSet:
			if valueIn(ac.Value, bc.Values) {
				return ac, true
			}
		case NotInSet:
			if !valueIn(ac.Value, bc.Values) {
				return ac, true
			}
		}
		return nil, false

	case NotEquals:
		switch bc := b.(type) {
		case NotEquals:
			if valueEqual(ac.Value, bc.Value) {
				return ac, true
			}
			return NewNotInSet(ac.Value, bc.Value), true
		case Interval:
			return intersectIntervalExclusions(bc, []any{ac.Value})
		case InSet:
			return checkSet(InSet{Values: subtractSet(bc.Values, []any{ac.Value})})
		case NotInSet:
			return NotInSet{Values: mergeSets(bc.Values, []any{ac.Value})}, true
		}

	case Interval:
		switch bc := b.(type) {
		case Interval:
			lo := ac.Low
			if bc.Low != nil && (lo == nil || compareValues(bc.Low, lo) > 0) {
				lo = bc.Low
			}
			hi := ac.High
			if bc.High != nil && (hi == nil || compareValues(bc.High, hi) < 0) {
				hi = bc.High
			}
			merged := Interval{Low: lo, High: hi}
			return intersectIntervalExclusions(merged, mergeSets(ac.Excluded, bc.Excluded))
		case InSet:
			kept := make([]any, 0, len(bc.Values))
			for _, v := range bc.Values {
				if ac.contains(v) {
					kept = append(kept, v)
				}
			}
			return checkSet(InSet{Values: kept})
		case NotInSet:
			return intersectIntervalExclusions(ac, bc.Values)
		}

	case InSet:
		switch bc := b.(type) {
		case InSet:
			return checkSet(InSet{Values: intersectSets(ac.Values, bc.Values)})
		case NotInSet:
			return checkSet(InSet{Values: subtractSet(ac.Values, bc.Values)})
		}

	case NotInSet:
		if bc, ok := b.(NotInSet); ok {
			return NotInSet{Values: mergeSets(ac.Values, bc.Values)}, true
		}
	}

	return nil, false
}

// intersectIntervalExclusions carves a set of excluded points out of an
// interval, keeping only points that actually fall in range.
func intersectIntervalExclusions(iv Interval, excluded []any) (Constraint, bool) {
	if !Satisfiable(iv) {
		return nil, false
	}
	kept := make([]any, 0, len(excluded)+len(iv.Excluded))
	for _, v := range mergeSets(iv.Excluded, excluded) {
		if iv.inRange(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return Interval{Low: iv.Low, High: iv.High}, true
	}
	return Interval{Low: iv.Low, High: iv.High, Excluded: kept}, true
}

func checkSet(s InSet) (Constraint, bool) {
	if len(s.Values) == 0 {
		return nil, false
	}
	return s, true
}

func constraintRank(c Constraint) int {
	switch c.(type) {
	case Any:
		return 0
	case Equals:
		return 1
	case NotEquals:
		return 2
	case Interval:
		return 3
	case InSet:
		return 4
	default:
		return 5
	}
}

// complement returns the constraints whose union accepts exactly the
// values c rejects. The result may be empty (complement of Any) or
// contain several pieces (complement of an interval).
func complement(c Constraint) []Constraint {
	switch cc := c.(type) {
	case Any:
		return nil
	case Equals:
		return []Constraint{NotEquals{Value: cc.Value}}
	case NotEquals:
		return []Constraint{Equals{Value: cc.Value}}
	case Interval:
		var out []Constraint
		if cc.Low != nil {
			out = append(out, Interval{High: cc.Low})
		}
		if cc.High != nil {
			out = append(out, Interval{Low: cc.High})
		}
		if len(cc.Excluded) > 0 {
			out = append(out, InSet{Values: append([]any{}, cc.Excluded...)})
		}
		return out
	case InSet:
		return []Constraint{NotInSet{Values: append([]any{}, cc.Values...)}}
	default:
		ns := c.(NotInSet)
		return []Constraint{InSet{Values: append([]any{}, ns.Values...)}}
	}
}

func formatValue(v any) string {
	switch vv := v.(type) {
	case string:
		return strconv.Quote(vv)
	case float64:
		return strconv.FormatFloat(vv, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return fmt.Sprint(v)
	}
}

func formatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func (Any) String() string         { return "any" }
func (c Equals) String() string    { return "== " + formatValue(c.Value) }
func (c NotEquals) String() string { return "!= " + formatValue(c.Value) }
func (c InSet) String() string     { return "in {" + formatValues(c.Values) + "}" }
func (c NotInSet) String() string  { return "not in {" + formatValues(c.Values) + "}" }

func (c Interval) String() string {
	var b strings.Builder
	switch {
	case c.Low == nil && c.High == nil:
		b.WriteString("any")
	case c.Low == nil:
		b.WriteString("< " + formatValue(c.High))
	case c.High == nil:
		b.WriteString(">= " + formatValue(c.Low))
	default:
		b.WriteString("[" + formatValue(c.Low) + ", " + formatValue(c.High) + ")")
	}
	if len(c.Excluded) > 0 {
		b.WriteString(" excluding {" + formatValues(c.Excluded) + "}")
	}
	return b.String()
}
