package constraint

import (
	"sort"
	"strings"
)

// Region is a conjunction of constraints across fields: one constraint
// per field, absent fields meaning Any. A Region describes a set of
// concrete queries; a slice of Regions is read as their union.
type Region map[string]Constraint

// Get returns the constraint for a field, defaulting to Any.
func (r Region) Get(field string) Constraint {
	if c, ok := r[field]; ok {
		return c
	}
	return Any{}
}

// Clone returns a shallow copy (constraints are immutable values).
func (r Region) Clone() Region {
	out := make(Region, len(r))
	for f, c := range r {
		out[f] = c
	}
	return out
}

// Fields returns the constrained field names in sorted order.
func (r Region) Fields() []string {
	out := make([]string, 0, len(r))
	for f := range r {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// set stores a constraint, dropping it when it is Any so that equal
// regions stay structurally equal.
func (r Region) set(field string, c Constraint) {
	if _, ok := c.(Any); ok {
		delete(r, field)
		return
	}
	r[field] = c
}

// IntersectRegions intersects two regions field by field. The second
// return value is false when any field's conjunction is unsatisfiable,
// in which case the region as a whole admits no query.
func IntersectRegions(a, b Region) (Region, bool) {
	out := a.Clone()
	for f, bc := range b {
		merged, ok := Intersect(out.Get(f), bc)
		if !ok {
			return nil, false
		}
		out.set(f, merged)
	}
	return out, true
}

// WithConstraint returns a copy of r narrowed by one extra per-field
// constraint, or false if the conjunction is unsatisfiable.
func (r Region) WithConstraint(field string, c Constraint) (Region, bool) {
	merged, ok := Intersect(r.Get(field), c)
	if !ok {
		return nil, false
	}
	out := r.Clone()
	out.set(field, merged)
	return out, true
}

// Subtract computes the queries matched by some region of a and no
// region of b, as a union of leftover regions. Fields are independent
// axes, so subtracting one region from another splits the minuend
// along each field the subtrahend constrains more tightly.
func Subtract(a, b []Region) []Region {
	frags := make([]Region, 0, len(a))
	for _, r := range a {
		frags = append(frags, r.Clone())
	}
	for _, sub := range b {
		var next []Region
		for _, frag := range frags {
			next = append(next, subtractRegion(frag, sub)...)
		}
		frags = next
		if len(frags) == 0 {
			break
		}
	}
	return frags
}

// subtractRegion returns the parts of a not covered by b. For each
// field b constrains, the piece of a lying outside b on that axis is
// emitted as its own fragment, and the walk continues inside the
// overlap. Fragments reduced to nothing are dropped.
func subtractRegion(a, b Region) []Region {
	if _, ok := IntersectRegions(a, b); !ok {
		return []Region{a}
	}

	var out []Region
	cur := a.Clone()
	for _, f := range b.Fields() {
		bc := b[f]
		ac := cur.Get(f)
		for _, piece := range complement(bc) {
			if left, ok := Intersect(ac, piece); ok {
				frag := cur.Clone()
				frag.set(f, left)
				out = append(out, frag)
			}
		}
		narrowed, ok := Intersect(ac, bc)
		if !ok {
			// a and b overlap as wholes, so every per-field
			// conjunction must be satisfiable.
			return out
		}
		cur.set(f, narrowed)
	}
	return out
}

func (r Region) String() string {
	if len(r) == 0 {
		return "{any query}"
	}
	parts := make([]string, 0, len(r))
	for _, f := range r.Fields() {
		parts = append(parts, f+" "+r[f].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
