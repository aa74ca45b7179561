package decision

import (
	"sort"

	"github.com/mallornproject/mallorn/internal/decision/constraint"
)

// Change reports one population shift between two graph versions: the
// query regions that stopped reaching an outcome (Old set, New nil) or
// started reaching it (Old nil, New set).
type Change struct {
	Node    NodeID
	Regions []constraint.Region
	Old     any
	New     any
}

// Diff compares outcome reachability between two graph versions. For
// every terminal node present in either graph it reports the queries
// that lost the outcome and the queries that gained it; entries whose
// region set is empty are omitted. Matching is by terminal NodeID, so
// a terminal renumbered between versions is under-reported — a known
// limitation of identity-based matching.
func (a *Analyzer) Diff(oldGraph, newGraph *Graph) ([]Change, error) {
	oldTerminals := oldGraph.Terminals()
	newTerminals := newGraph.Terminals()

	ids := make([]NodeID, 0, len(oldTerminals)+len(newTerminals))
	seen := map[NodeID]bool{}
	for id := range oldTerminals {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range newTerminals {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var changes []Change
	for _, id := range ids {
		var oldRegions, newRegions []constraint.Region
		oldValue, inOld := oldTerminals[id]
		newValue, inNew := newTerminals[id]

		if inOld {
			regions, err := a.QueriesReaching(oldGraph, id)
			if err != nil {
				return nil, err
			}
			oldRegions = regions
		}
		if inNew {
			regions, err := a.QueriesReaching(newGraph, id)
			if err != nil {
				return nil, err
			}
			newRegions = regions
		}

		if lost := constraint.Subtract(oldRegions, newRegions); len(lost) > 0 {
			changes = append(changes, Change{Node: id, Regions: lost, Old: oldValue})
		}
		if gained := constraint.Subtract(newRegions, oldRegions); len(gained) > 0 {
			changes = append(changes, Change{Node: id, Regions: gained, New: newValue})
		}
	}
	return changes, nil
}
