package integration_test

import (
	"path/filepath"
	"testing"

	"github.com/mallornproject/mallorn/internal/app"
	"github.com/mallornproject/mallorn/internal/decision"
	"github.com/mallornproject/mallorn/internal/decision/cache"
	"github.com/mallornproject/mallorn/internal/store"
)

// End-to-end: save the sample graph to SQLite, load it back through
// the cache, evaluate a known query, then diff against a modified
// revision.
func TestService_Store_Integration(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "mallorn.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	svc := app.NewService(
		decision.NewEngine(),
		decision.NewAnalyzer(),
		st,
		cache.NewInMemory(16),
	)

	g := decision.SampleGraph()
	oldID, err := svc.Save(g, "initial routing")
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := svc.Load(oldID)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Equal(g) {
		t.Fatalf("stored graph does not round-trip")
	}

	outcome, err := svc.Evaluate(loaded, decision.Query{
		"product": "Firefox",
		"os":      "windows",
		"cpuarch": 64,
		"osarch":  32,
		"version": "56.0.1",
		"locale":  "fr",
		"JAWS":    "0",
	})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != "firefox57-lzma-wnp" {
		t.Fatalf("unexpected outcome %#v", outcome)
	}

	modified, err := g.WithNode("unix-cutoff",
		decision.NewOrderedCutoff("version", "57", "unix-old-locale", "unix-new-locale"))
	if err != nil {
		t.Fatal(err)
	}
	newID, err := svc.Save(modified, "move unix cutoff to 57")
	if err != nil {
		t.Fatal(err)
	}

	changes, err := svc.DiffRevisions(oldID, newID)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) == 0 {
		t.Fatalf("expected outcome changes after moving the cutoff")
	}
	for _, ch := range changes {
		if len(ch.Regions) == 0 {
			t.Fatalf("change with no regions: %+v", ch)
		}
	}

	revisions, err := svc.Revisions()
	if err != nil {
		t.Fatal(err)
	}
	if len(revisions) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revisions))
	}
}
