package decision

import (
	"reflect"
	"testing"

	"github.com/mallornproject/mallorn/internal/decision/constraint"
)

func TestQueriesReaching_SingleMatcher(t *testing.T) {
	g := mustGraph(t, "start", map[NodeID]Node{
		"start":        NewEqualsBranch("JAWS", "1", "incompatible", "ok"),
		"incompatible": NewTerminal("incompatible"),
		"ok":           NewTerminal("ok"),
	})

	regions, err := NewAnalyzer().QueriesReaching(g, "incompatible")
	if err != nil {
		t.Fatal(err)
	}
	want := []constraint.Region{{"JAWS": constraint.Equals{Value: "1"}}}
	if !reflect.DeepEqual(regions, want) {
		t.Fatalf("got %v, want %v", regions, want)
	}
}

func TestQueriesReaching_StartIsEveryQuery(t *testing.T) {
	g := mustGraph(t, "start", map[NodeID]Node{
		"start": NewTerminal("x"),
	})
	regions, err := NewAnalyzer().QueriesReaching(g, "start")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 || len(regions[0]) != 0 {
		t.Fatalf("root should be reached by the unconstrained region, got %v", regions)
	}
}

func TestQueriesReaching_UnknownTarget(t *testing.T) {
	g := mustGraph(t, "start", map[NodeID]Node{"start": NewTerminal("x")})
	if _, err := NewAnalyzer().QueriesReaching(g, "nope"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
}

func TestQueriesReaching_AccumulatesAlongPath(t *testing.T) {
	g := mustGraph(t, "start", map[NodeID]Node{
		"start":  NewEqualsBranch("product", "Firefox", "cutoff", "other"),
		"cutoff": NewOrderedCutoff("version", "56", "locale", "other"),
		"locale": NewSetMembership("locale", []any{"de", "fr"}, "hit", "other"),
		"hit":    NewTerminal("hit"),
		"other":  NewTerminal("other"),
	})

	regions, err := NewAnalyzer().QueriesReaching(g, "hit")
	if err != nil {
		t.Fatal(err)
	}
	want := []constraint.Region{{
		"product": constraint.Equals{Value: "Firefox"},
		"version": constraint.Interval{High: "56"},
		"locale":  constraint.NewInSet("de", "fr"),
	}}
	if !reflect.DeepEqual(regions, want) {
		t.Fatalf("got %v, want %v", regions, want)
	}
}

func TestQueriesReaching_PrunesUnsatisfiablePaths(t *testing.T) {
	// The inner cutoff's ">= 57" edge conflicts with the outer "< 56"
	// edge, so the terminal behind it is unreachable on that path.
	g := mustGraph(t, "start", map[NodeID]Node{
		"start": NewOrderedCutoff("version", "56", "inner", "other"),
		"inner": NewOrderedCutoff("version", "57", "other", "dead"),
		"dead":  NewTerminal("dead"),
		"other": NewTerminal("other"),
	})

	regions, err := NewAnalyzer().QueriesReaching(g, "dead")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 0 {
		t.Fatalf("expected no regions, got %v", regions)
	}
}

func TestQueriesReaching_ProbabilisticContributesNoConstraint(t *testing.T) {
	g := mustGraph(t, "start", map[NodeID]Node{
		"start":   NewEqualsBranch("product", "Firefox", "roll", "other"),
		"roll":    NewProbabilistic(0.25, "inside", "outside"),
		"inside":  NewTerminal("inside"),
		"outside": NewTerminal("outside"),
		"other":   NewTerminal("other"),
	})

	for _, target := range []NodeID{"inside", "outside"} {
		regions, err := NewAnalyzer().QueriesReaching(g, target)
		if err != nil {
			t.Fatal(err)
		}
		want := []constraint.Region{{"product": constraint.Equals{Value: "Firefox"}}}
		if !reflect.DeepEqual(regions, want) {
			t.Fatalf("%s: got %v, want %v", target, regions, want)
		}
	}
}

func TestQueriesReaching_MultipleInboundPaths(t *testing.T) {
	// Both locale matchers route misses to the same terminal, so it is
	// reachable through two distinct regions.
	g := mustGraph(t, "start", map[NodeID]Node{
		"start": NewOrderedCutoff("version", "56", "old", "new"),
		"old":   NewSetMembership("locale", []any{"fr"}, "wnp", "nownp"),
		"new":   NewSetMembership("locale", []any{"fr"}, "wnp", "nownp"),
		"wnp":   NewTerminal("wnp"),
		"nownp": NewTerminal("nownp"),
	})

	regions, err := NewAnalyzer().QueriesReaching(g, "nownp")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %v", regions)
	}
}

func TestQueriesReaching_DepthLimit(t *testing.T) {
	g := mustGraph(t, "start", map[NodeID]Node{
		"start": NewEqualsBranch("a", "1", "mid", "mid"),
		"mid":   NewEqualsBranch("b", "1", "deep", "deep"),
		"deep":  NewTerminal("deep"),
	})
	if _, err := NewAnalyzer(WithMaxDepth(1)).QueriesReaching(g, "deep"); err == nil {
		t.Fatalf("expected depth limit error")
	}
}

// Reachability soundness on the routing sample: queries that evaluate
// to an outcome must satisfy one of the regions reported for that
// outcome's terminal.
func TestQueriesReaching_AgreesWithEvaluation(t *testing.T) {
	g := SampleGraph()
	e := NewEngine()
	analyzer := NewAnalyzer()

	cases := []struct {
		query    Query
		terminal NodeID
		outcome  string
	}{
		{
			Query{"product": "Thunderbird"},
			"fennec", "Newest Fennec",
		},
		{
			Query{"product": "Firefox", "os": "linux", "version": "55.0", "locale": "fr"},
			"bz2-wnp", "firefox57-bz2-wnp",
		},
		{
			Query{"product": "Firefox", "os": "windows", "cpuarch": 64, "osarch": 64, "version": "57.0", "locale": "xx", "JAWS": "1"},
			"jaws-incompatible", "firefox56.0.2-jaws-incompatible",
		},
	}

	for _, tc := range cases {
		out, err := e.Evaluate(g, tc.query)
		if err != nil {
			t.Fatal(err)
		}
		if out != tc.outcome {
			t.Fatalf("query %v: expected %q, got %#v", tc.query, tc.outcome, out)
		}

		regions, err := analyzer.QueriesReaching(g, tc.terminal)
		if err != nil {
			t.Fatal(err)
		}
		matched := false
		for _, r := range regions {
			ok, err := r.Matches(tc.query)
			if err != nil {
				// Regions constraining fields the query omits cannot
				// match it; other regions may still.
				continue
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			t.Fatalf("query %v should satisfy some region reaching %q, got %v", tc.query, tc.terminal, regions)
		}
	}
}
