package graph

import (
	"strings"
	"testing"
	"time"
)

func h(c byte) string { return strings.Repeat(string(c), 40) }

func commit(hash string, parents ...string) *Commit {
	return &Commit{
		Hash:      hash,
		Parents:   parents,
		Author:    "Alice",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
}

// linear builds main -> a -> b -> c (c newest), added in log order.
func linear() *Graph {
	g := New("develop", "release")
	g.Add(commit(h('c'), h('b')))
	g.Add(commit(h('b'), h('a')))
	g.Add(commit(h('a'), h('0'))) // parent outside the graph
	return g
}

func TestCommitHelpers(t *testing.T) {
	c := commit(h('a'), h('b'), h('c'))
	c.Message = "subject line\n\nbody"

	if c.ShortHash() != strings.Repeat("a", 8) {
		t.Errorf("ShortHash = %q", c.ShortHash())
	}
	if !c.IsMerge() {
		t.Error("two parents should be a merge")
	}
	if c.Subject() != "subject line" {
		t.Errorf("Subject = %q", c.Subject())
	}
}

func TestAddAndOrder(t *testing.T) {
	g := linear()

	if g.Len() != 3 {
		t.Fatalf("Len = %d", g.Len())
	}
	commits := g.Commits()
	if commits[0].Hash != h('c') || commits[2].Hash != h('a') {
		t.Error("Commits should preserve log order")
	}

	// Re-adding an existing hash is a no-op.
	g.Add(commit(h('c')))
	if g.Len() != 3 {
		t.Errorf("duplicate add changed Len to %d", g.Len())
	}

	children := g.Children(h('b'))
	if len(children) != 1 || children[0] != h('c') {
		t.Errorf("Children(b) = %v", children)
	}
}

func TestReachable(t *testing.T) {
	g := linear()

	reach := g.Reachable(h('c'))
	if len(reach) != 3 {
		t.Fatalf("Reachable(c) = %d commits, want 3", len(reach))
	}

	reach = g.Reachable(h('a'))
	if len(reach) != 1 {
		t.Errorf("Reachable(a) = %d commits, want 1", len(reach))
	}

	// Unknown hashes are boundaries.
	if len(g.Reachable(h('0'))) != 0 {
		t.Error("Reachable of a hash outside the graph should be empty")
	}
}

func TestDescendantsFirstParentOnly(t *testing.T) {
	// a <- b and a <- e, with merge f (first parent b, second parent e).
	g := New("develop", "release")
	g.Add(commit(h('f'), h('b'), h('e')))
	g.Add(commit(h('e'), h('a')))
	g.Add(commit(h('b'), h('a')))
	g.Add(commit(h('a')))

	all := g.Descendants(h('a'), false)
	if len(all) != 4 {
		t.Fatalf("Descendants(a) = %d, want 4", len(all))
	}

	firstParent := g.Descendants(h('a'), true)
	// The merge is reached via a -> b -> f, all first-parent edges.
	if _, ok := firstParent[h('f')]; !ok {
		t.Error("merge should be reachable along first-parent edges via b")
	}

	lineage := g.Descendants(h('e'), true)
	if _, ok := lineage[h('f')]; ok {
		t.Error("merge must not be a first-parent descendant of its second parent")
	}
}

func TestMerges(t *testing.T) {
	g := New("develop", "release")
	g.Add(commit(h('f'), h('b'), h('e')))
	g.Add(commit(h('b'), h('a')))

	merges := g.Merges()
	if len(merges) != 1 || merges[0].Hash != h('f') {
		t.Fatalf("Merges = %v", merges)
	}
}

// featureMergeGraph models the common shape: feature commits a and b are
// merged into the source mainline by m, whose first parent p is on the
// mainline.
func featureMergeGraph() *Graph {
	g := New("develop", "release")
	g.Add(commit(h('f'), h('d'), h('b')))  // merge, first parent on the mainline
	g.Add(commit(h('b'), h('a')))          // feature second commit
	g.Add(commit(h('a'), h('9')))          // feature first commit
	g.Add(commit(h('d'), h('9')))          // mainline commit
	return g
}

func TestAnalyzeMergeIntroduced(t *testing.T) {
	g := featureMergeGraph()
	m := g.Get(h('f'))

	analysis := AnalyzeMerge(g, m, nil)
	if analysis.MergeHash != h('f') {
		t.Errorf("MergeHash = %q", analysis.MergeHash)
	}
	if len(analysis.Introduced) != 2 {
		t.Fatalf("Introduced = %v, want the two feature commits", analysis.Introduced)
	}
	if analysis.Introduced[0] != h('a') || analysis.Introduced[1] != h('b') {
		t.Errorf("Introduced = %v", analysis.Introduced)
	}

	// The merge itself and its first-parent lineage are never introduced.
	for _, hash := range analysis.Introduced {
		if hash == h('f') || hash == h('d') {
			t.Errorf("Introduced contains %s", hash[:8])
		}
	}
}

func TestAnalyzeMergeCompleteness(t *testing.T) {
	g := featureMergeGraph()
	m := g.Get(h('f'))

	// Neither feature commit in the target: incomplete, both missing.
	analysis := AnalyzeMerge(g, m, map[string]struct{}{})
	if analysis.IsComplete {
		t.Error("IsComplete should be false with empty target set")
	}
	if len(analysis.Missing) != 2 {
		t.Errorf("Missing = %v", analysis.Missing)
	}

	// One present: still incomplete.
	analysis = AnalyzeMerge(g, m, map[string]struct{}{h('a'): {}})
	if analysis.IsComplete {
		t.Error("IsComplete should be false with a partial target set")
	}
	if len(analysis.Missing) != 1 || analysis.Missing[0] != h('b') {
		t.Errorf("Missing = %v", analysis.Missing)
	}

	// Both present: complete, and Missing is empty exactly then.
	analysis = AnalyzeMerge(g, m, map[string]struct{}{h('a'): {}, h('b'): {}})
	if !analysis.IsComplete {
		t.Error("IsComplete should be true when all introduced commits are in target")
	}
	if len(analysis.Missing) != 0 {
		t.Errorf("Missing = %v, want empty", analysis.Missing)
	}
}

func TestMergeAnalysisCovers(t *testing.T) {
	m := MergeAnalysis{MergeHash: h('f'), Introduced: []string{h('a'), h('b')}}

	if !m.Covers(h('f')) || !m.Covers(h('a')) {
		t.Error("Covers should include the merge and its introduced commits")
	}
	if m.Covers(h('d')) {
		t.Error("Covers should exclude unrelated commits")
	}
}

func TestAnalyzeMergesOrder(t *testing.T) {
	g := featureMergeGraph()

	analyses := AnalyzeMerges(g, nil)
	if len(analyses) != 1 {
		t.Fatalf("got %d analyses, want 1", len(analyses))
	}
}

func TestAnalyzeMergeOctopusFirstTwoParents(t *testing.T) {
	g := New("develop", "release")
	// Octopus merge m of mainline d plus two side lineages b and c.
	g.Add(commit(h('m'), h('d'), h('b'), h('c')))
	g.Add(commit(h('c'), h('0')))
	g.Add(commit(h('b'), h('0')))
	g.Add(commit(h('d'), h('0')))

	analysis := AnalyzeMerge(g, g.Get(h('m')), nil)
	if len(analysis.Introduced) != 1 || analysis.Introduced[0] != h('b') {
		t.Errorf("Introduced = %v, want only the second-parent lineage", analysis.Introduced)
	}
	for _, hash := range analysis.Introduced {
		if hash == h('c') {
			t.Error("third-parent lineage must not be introduced")
		}
	}
}
