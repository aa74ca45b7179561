package constraint

import (
	"reflect"
	"testing"
)

func TestIntersect_AnyIsIdentity(t *testing.T) {
	cases := []Constraint{
		Any{},
		Equals{Value: "Firefox"},
		NotEquals{Value: "56.0"},
		NewInterval(nil, "56"),
		NewInSet("de", "fr"),
		NewNotInSet("en-US"),
	}
	for _, c := range cases {
		got, ok := Intersect(Any{}, c)
		if !ok {
			t.Fatalf("Any ∩ %v: unexpectedly unsatisfiable", c)
		}
		if !reflect.DeepEqual(got, c) {
			t.Fatalf("Any ∩ %v = %v, want unchanged", c, got)
		}
	}
}

func TestIntersect_EqualsPairs(t *testing.T) {
	if got, ok := Intersect(Equals{Value: "a"}, Equals{Value: "a"}); !ok || !reflect.DeepEqual(got, Equals{Value: "a"}) {
		t.Fatalf("equal values: got %v ok=%v", got, ok)
	}
	if _, ok := Intersect(Equals{Value: "a"}, Equals{Value: "b"}); ok {
		t.Fatalf("distinct values should be unsatisfiable")
	}
	if got, ok := Intersect(Equals{Value: "a"}, NotEquals{Value: "b"}); !ok || !reflect.DeepEqual(got, Equals{Value: "a"}) {
		t.Fatalf("equals vs not-equals other: got %v ok=%v", got, ok)
	}
	if _, ok := Intersect(Equals{Value: "a"}, NotEquals{Value: "a"}); ok {
		t.Fatalf("equals vs not-equals same should be unsatisfiable")
	}
}

func TestIntersect_EqualsWithInterval(t *testing.T) {
	iv := NewInterval("50", "56")
	if got, ok := Intersect(Equals{Value: "55.0.3"}, iv); !ok || !reflect.DeepEqual(got, Equals{Value: "55.0.3"}) {
		t.Fatalf("value inside cutoff range: got %v ok=%v", got, ok)
	}
	if _, ok := Intersect(Equals{Value: "56.0"}, iv); ok {
		t.Fatalf("high bound is exclusive, 56.0 should be outside [50, 56)")
	}
	if _, ok := Intersect(Equals{Value: "4"}, iv); ok {
		t.Fatalf("lexicographic order puts \"4\" below \"50\"")
	}
}

func TestIntersect_Intervals(t *testing.T) {
	got, ok := Intersect(NewInterval(nil, "56"), NewInterval("50", nil))
	if !ok {
		t.Fatalf("overlapping intervals should be satisfiable")
	}
	if !reflect.DeepEqual(got, Interval{Low: "50", High: "56"}) {
		t.Fatalf("got %v, want [\"50\", \"56\")", got)
	}

	if _, ok := Intersect(NewInterval(nil, "50"), NewInterval("56", nil)); ok {
		t.Fatalf("disjoint intervals should be unsatisfiable")
	}
	if _, ok := Intersect(NewInterval("56", nil), NewInterval(nil, "56")); ok {
		t.Fatalf("touching half-open intervals share no point")
	}
}

func TestIntersect_Sets(t *testing.T) {
	got, ok := Intersect(NewInSet("de", "fr", "en-US"), NewInSet("fr", "pt-BR"))
	if !ok || !reflect.DeepEqual(got, NewInSet("fr")) {
		t.Fatalf("set intersection: got %v ok=%v", got, ok)
	}
	if _, ok := Intersect(NewInSet("de"), NewInSet("fr")); ok {
		t.Fatalf("disjoint sets should be unsatisfiable")
	}

	got, ok = Intersect(NewInSet("de", "fr"), NewNotInSet("de"))
	if !ok || !reflect.DeepEqual(got, NewInSet("fr")) {
		t.Fatalf("set minus exclusions: got %v ok=%v", got, ok)
	}
	if _, ok := Intersect(NewInSet("de"), NewNotInSet("de")); ok {
		t.Fatalf("fully excluded set should be unsatisfiable")
	}

	got, ok = Intersect(NewNotInSet("de"), NewNotInSet("fr", "de"))
	if !ok || !reflect.DeepEqual(got, NewNotInSet("de", "fr")) {
		t.Fatalf("exclusion union: got %v ok=%v", got, ok)
	}
}

func TestIntersect_NotEqualsPairs(t *testing.T) {
	got, ok := Intersect(NotEquals{Value: "a"}, NotEquals{Value: "a"})
	if !ok || !reflect.DeepEqual(got, NotEquals{Value: "a"}) {
		t.Fatalf("same exclusion: got %v ok=%v", got, ok)
	}
	got, ok = Intersect(NotEquals{Value: "b"}, NotEquals{Value: "a"})
	if !ok || !reflect.DeepEqual(got, NewNotInSet("a", "b")) {
		t.Fatalf("distinct exclusions collapse to a set: got %v ok=%v", got, ok)
	}
}

func TestIntersect_IntervalWithExclusions(t *testing.T) {
	got, ok := Intersect(NewInterval(nil, "56"), NotEquals{Value: "55.0.3"})
	if !ok {
		t.Fatalf("expected satisfiable")
	}
	want := Interval{High: "56", Excluded: []any{"55.0.3"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// Exclusions outside the range are dropped.
	got, ok = Intersect(NewInterval(nil, "56"), NotEquals{Value: "57.0"})
	if !ok || !reflect.DeepEqual(got, Interval{High: "56"}) {
		t.Fatalf("out-of-range exclusion should vanish: got %v ok=%v", got, ok)
	}

	// An excluded point no longer matches an exact-value probe.
	if _, ok := Intersect(want, Equals{Value: "55.0.3"}); ok {
		t.Fatalf("excluded point should not satisfy the interval")
	}
	if _, ok = Intersect(want, Equals{Value: "55.0"}); !ok {
		t.Fatalf("non-excluded in-range point should satisfy the interval")
	}
}

func TestIntersect_Commutative(t *testing.T) {
	cs := []Constraint{
		Any{},
		Equals{Value: "55.0.3"},
		NotEquals{Value: "55.0.3"},
		NewInterval(nil, "56"),
		NewInterval("50", "58"),
		NewInSet("50", "55.0.3", "57.1"),
		NewNotInSet("55.0.3"),
	}
	for _, a := range cs {
		for _, b := range cs {
			x, okx := Intersect(a, b)
			y, oky := Intersect(b, a)
			if okx != oky || !reflect.DeepEqual(x, y) {
				t.Fatalf("%v ∩ %v = (%v, %v) but reversed = (%v, %v)", a, b, x, okx, y, oky)
			}
		}
	}
}

func TestIntersect_SelfSatisfiability(t *testing.T) {
	cs := []Constraint{
		Any{},
		Equals{Value: "a"},
		NewInterval("50", "56"),
		NewInSet("de"),
		InSet{}, // empty set: unsatisfiable
	}
	for _, c := range cs {
		_, ok := Intersect(c, c)
		if ok != Satisfiable(c) {
			t.Fatalf("%v: self-intersection ok=%v but Satisfiable=%v", c, ok, Satisfiable(c))
		}
	}
}

func TestNewInSet_SortsAndDeduplicates(t *testing.T) {
	got := NewInSet("fr", "de", "fr", 56, true)
	want := InSet{Values: []any{true, float64(56), "de", "fr"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestNormalize_NumbersCollapseToFloat64(t *testing.T) {
	if Normalize(32) != float64(32) {
		t.Fatalf("int should normalize to float64")
	}
	if Normalize(int64(64)) != float64(64) {
		t.Fatalf("int64 should normalize to float64")
	}
	if Normalize("56") != "56" {
		t.Fatalf("strings pass through")
	}
}
