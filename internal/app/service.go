// Package app wires the decision engine, analyses, revision store and
// graph cache behind one facade.
package app

import (
	"fmt"

	"github.com/mallornproject/mallorn/internal/decision"
	"github.com/mallornproject/mallorn/internal/decision/constraint"
	"github.com/mallornproject/mallorn/internal/store"
)

type GraphStore interface {
	SaveGraph(g *decision.Graph, description string) (string, error)
	LoadGraph(revisionID string) (*decision.Graph, error)
	Revisions() ([]store.Revision, error)
}

type GraphCache interface {
	GetOrCompute(key string, fn func() (*decision.Graph, error)) (*decision.Graph, error)
}

// Explanation is one reachability answer in both machine and human
// form: the constraint region and its rendered boolean expression.
type Explanation struct {
	Region constraint.Region `json:"region"`
	Expr   string            `json:"expr"`
}

type Service struct {
	engine   *decision.Engine
	analyzer *decision.Analyzer
	store    GraphStore
	cache    GraphCache
}

func NewService(engine *decision.Engine, analyzer *decision.Analyzer, graphStore GraphStore, graphCache GraphCache) *Service {
	return &Service{engine: engine, analyzer: analyzer, store: graphStore, cache: graphCache}
}

func (s *Service) Evaluate(g *decision.Graph, q decision.Query) (any, error) {
	return s.engine.Evaluate(g, q)
}

func (s *Service) EvaluateWithTrace(g *decision.Graph, q decision.Query) (any, *decision.EvaluationTrace, error) {
	return s.engine.EvaluateWithTrace(g, q)
}

// Explain returns the query regions that reach the target node, each
// paired with a display expression.
func (s *Service) Explain(g *decision.Graph, target decision.NodeID) ([]Explanation, error) {
	regions, err := s.analyzer.QueriesReaching(g, target)
	if err != nil {
		return nil, err
	}
	out := make([]Explanation, len(regions))
	for i, r := range regions {
		out[i] = Explanation{Region: r, Expr: r.ExprString()}
	}
	return out, nil
}

func (s *Service) Diff(oldGraph, newGraph *decision.Graph) ([]decision.Change, error) {
	return s.analyzer.Diff(oldGraph, newGraph)
}

// DiffRevisions loads two stored revisions (through the cache) and
// diffs them.
func (s *Service) DiffRevisions(oldID, newID string) ([]decision.Change, error) {
	oldGraph, err := s.Load(oldID)
	if err != nil {
		return nil, fmt.Errorf("load old revision: %w", err)
	}
	newGraph, err := s.Load(newID)
	if err != nil {
		return nil, fmt.Errorf("load new revision: %w", err)
	}
	return s.analyzer.Diff(oldGraph, newGraph)
}

// Save stores the graph as a new revision.
func (s *Service) Save(g *decision.Graph, description string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("no store configured")
	}
	return s.store.SaveGraph(g, description)
}

// Load fetches a revision, decoding at most once per id thanks to the
// cache. Revisions are immutable, so cached graphs never go stale.
func (s *Service) Load(revisionID string) (*decision.Graph, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	if s.cache == nil {
		return s.store.LoadGraph(revisionID)
	}
	return s.cache.GetOrCompute(revisionID, func() (*decision.Graph, error) {
		return s.store.LoadGraph(revisionID)
	})
}

// Revisions lists the stored graph versions.
func (s *Service) Revisions() ([]store.Revision, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	return s.store.Revisions()
}
