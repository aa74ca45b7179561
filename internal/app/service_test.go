package app

import (
	"errors"
	"testing"

	"github.com/mallornproject/mallorn/internal/decision"
	"github.com/mallornproject/mallorn/internal/store"
)

type fakeStore struct {
	saved     map[string]*decision.Graph
	loadCalls int
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]*decision.Graph{}}
}

func (f *fakeStore) SaveGraph(g *decision.Graph, description string) (string, error) {
	f.nextID++
	id := string(rune('a' + f.nextID - 1))
	f.saved[id] = g
	return id, nil
}

func (f *fakeStore) LoadGraph(revisionID string) (*decision.Graph, error) {
	f.loadCalls++
	g, ok := f.saved[revisionID]
	if !ok {
		return nil, store.ErrRevisionNotFound
	}
	return g, nil
}

func (f *fakeStore) Revisions() ([]store.Revision, error) {
	return nil, nil
}

type passthroughCache struct {
	calls int
	items map[string]*decision.Graph
}

func (c *passthroughCache) GetOrCompute(key string, fn func() (*decision.Graph, error)) (*decision.Graph, error) {
	c.calls++
	if c.items == nil {
		c.items = map[string]*decision.Graph{}
	}
	if g, ok := c.items[key]; ok {
		return g, nil
	}
	g, err := fn()
	if err != nil {
		return nil, err
	}
	c.items[key] = g
	return g, nil
}

func newTestService(st GraphStore, c GraphCache) *Service {
	return NewService(decision.NewEngine(), decision.NewAnalyzer(), st, c)
}

func TestService_EvaluateRoutesQueries(t *testing.T) {
	s := newTestService(newFakeStore(), &passthroughCache{})
	out, err := s.Evaluate(decision.SampleGraph(), decision.Query{"product": "Thunderbird"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Newest Fennec" {
		t.Fatalf("expected fennec outcome, got %#v", out)
	}
}

func TestService_ExplainPairsRegionsWithExpressions(t *testing.T) {
	g, err := decision.New("start", map[decision.NodeID]decision.Node{
		"start": decision.NewEqualsBranch("JAWS", "1", "bad", "ok"),
		"bad":   decision.NewTerminal("incompatible"),
		"ok":    decision.NewTerminal("ok"),
	})
	if err != nil {
		t.Fatal(err)
	}

	s := newTestService(newFakeStore(), &passthroughCache{})
	explanations, err := s.Explain(g, "bad")
	if err != nil {
		t.Fatal(err)
	}
	if len(explanations) != 1 {
		t.Fatalf("expected 1 explanation, got %d", len(explanations))
	}
	if explanations[0].Expr != `JAWS == "1"` {
		t.Fatalf("unexpected expression %q", explanations[0].Expr)
	}
}

func TestService_SaveLoadUsesCache(t *testing.T) {
	st := newFakeStore()
	c := &passthroughCache{}
	s := newTestService(st, c)

	g := decision.SampleGraph()
	id, err := s.Save(g, "v1")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		loaded, err := s.Load(id)
		if err != nil {
			t.Fatal(err)
		}
		if !loaded.Equal(g) {
			t.Fatalf("loaded graph differs")
		}
	}
	if st.loadCalls != 1 {
		t.Fatalf("expected a single store load through the cache, got %d", st.loadCalls)
	}
}

func TestService_LoadUnknownRevision(t *testing.T) {
	s := newTestService(newFakeStore(), &passthroughCache{})
	if _, err := s.Load("missing"); !errors.Is(err, store.ErrRevisionNotFound) {
		t.Fatalf("expected ErrRevisionNotFound, got %v", err)
	}
}

func TestService_DiffRevisions(t *testing.T) {
	st := newFakeStore()
	s := newTestService(st, &passthroughCache{})

	oldG, err := decision.New("start", map[decision.NodeID]decision.Node{
		"start": decision.NewOrderedCutoff("version", "56", "old", "new"),
		"old":   decision.NewTerminal("serve-old"),
		"new":   decision.NewTerminal("serve-new"),
	})
	if err != nil {
		t.Fatal(err)
	}
	newG, err := oldG.WithNode("start", decision.NewOrderedCutoff("version", "57", "old", "new"))
	if err != nil {
		t.Fatal(err)
	}

	oldID, err := s.Save(oldG, "before")
	if err != nil {
		t.Fatal(err)
	}
	newID, err := s.Save(newG, "after")
	if err != nil {
		t.Fatal(err)
	}

	changes, err := s.DiffRevisions(oldID, newID)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %v", changes)
	}
}

func TestService_NoStoreConfigured(t *testing.T) {
	s := newTestService(nil, nil)
	if _, err := s.Save(decision.SampleGraph(), "x"); err == nil {
		t.Fatalf("expected error without a store")
	}
	if _, err := s.Load("x"); err == nil {
		t.Fatalf("expected error without a store")
	}
}
