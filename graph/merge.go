package graph

import "sort"

// MergeAnalysis describes what a single merge commit brings into the
// target lineage. Computed once per merge per analysis run and never
// mutated afterwards.
type MergeAnalysis struct {
	MergeHash string `json:"mergeHash"`

	// Introduced holds the commits reachable from the merge but not from
	// its first parent, excluding the merge itself. Sorted for
	// deterministic output.
	Introduced []string `json:"introduced"`

	// IsComplete is true iff every introduced commit is already present
	// in the target branch.
	IsComplete bool `json:"isComplete"`

	// Missing lists the introduced commits absent from the target branch.
	// Empty exactly when IsComplete is true.
	Missing []string `json:"missing,omitempty"`
}

// Covers reports whether the hash is the merge itself or one of the
// commits it introduces.
func (m *MergeAnalysis) Covers(hash string) bool {
	if hash == m.MergeHash {
		return true
	}
	for _, h := range m.Introduced {
		if h == hash {
			return true
		}
	}
	return false
}

// AnalyzeMerges analyzes every merge commit in the graph against the
// target-branch commit set, in graph order.
//
// Only the first two parents feed the analysis: the first parent is the
// lineage the merge landed on, the second the lineage it brought in.
// Additional octopus parents are ignored.
func AnalyzeMerges(g *Graph, targetSet map[string]struct{}) []MergeAnalysis {
	var analyses []MergeAnalysis
	for _, merge := range g.Merges() {
		analyses = append(analyses, AnalyzeMerge(g, merge, targetSet))
	}
	return analyses
}

// AnalyzeMerge computes the introduced set, completeness, and missing
// commits for one merge commit.
func AnalyzeMerge(g *Graph, merge *Commit, targetSet map[string]struct{}) MergeAnalysis {
	var reachable map[string]struct{}
	if len(merge.Parents) >= 2 {
		reachable = g.Reachable(merge.Parents[1])
	} else {
		reachable = g.Reachable(merge.Hash)
	}
	delete(reachable, merge.Hash)

	// Everything the first-parent lineage already had is not introduced
	// by this merge. First parents outside the graph are on the target
	// branch already and contribute nothing.
	if len(merge.Parents) > 0 {
		for hash := range g.Reachable(merge.Parents[0]) {
			delete(reachable, hash)
		}
	}

	introduced := make([]string, 0, len(reachable))
	for hash := range reachable {
		introduced = append(introduced, hash)
	}
	sort.Strings(introduced)

	var missing []string
	for _, hash := range introduced {
		if _, ok := targetSet[hash]; !ok {
			missing = append(missing, hash)
		}
	}

	return MergeAnalysis{
		MergeHash:  merge.Hash,
		Introduced: introduced,
		IsComplete: len(missing) == 0,
		Missing:    missing,
	}
}
