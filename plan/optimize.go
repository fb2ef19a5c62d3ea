package plan

import (
	"fmt"
	"sort"

	"github.com/randalmurphal/promote/conflict"
	"github.com/randalmurphal/promote/graph"
)

// descriptionSubjectLen truncates commit subjects in step descriptions.
const descriptionSubjectLen = 60

// Optimizer builds cherry-pick plans from a selection, the merge
// analyses, the conflict predictions, and the graph.
type Optimizer struct {
	overrides  map[string]bool
	fileScores map[string]int
}

// OptimizerOption configures an Optimizer.
type OptimizerOption func(*Optimizer)

// NewOptimizer creates an optimizer.
func NewOptimizer(opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{overrides: make(map[string]bool)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMergeOverride forces a merge to be planned as a single -m 1 pick
// even when its introduced set is incomplete in the target.
func WithMergeOverride(mergeHash string) OptimizerOption {
	return func(o *Optimizer) {
		o.overrides[mergeHash] = true
	}
}

// WithPredictions feeds the conflict predictions into the plan. Each
// ticket group carries the highest predicted score among the files its
// commits touch.
func WithPredictions(predictions []conflict.Prediction) OptimizerOption {
	return func(o *Optimizer) {
		o.fileScores = make(map[string]int, len(predictions))
		for _, p := range predictions {
			o.fileScores[p.File] = p.Score
		}
	}
}

// Build produces the ordered plan for the selected commits.
//
// Merges whose introduced set intersects the selection and is complete in
// the target (or overridden) become MergeCommit steps and absorb the
// commits they cover. The remainder is grouped by primary ticket
// (extracted, else inferred, else NO_TICKET), groups are ordered by a
// stable key sort with NO_TICKET last, and within each group maximal runs
// of graph-adjacent commits collapse into range steps. No commit hash
// appears in more than one step.
func (o *Optimizer) Build(g *graph.Graph, selection []*graph.Commit, merges []graph.MergeAnalysis) *Plan {
	p := &Plan{
		SourceBranch:    g.SourceBranch,
		TargetBranch:    g.TargetBranch,
		CheckoutCommand: checkoutCommand(g.TargetBranch),
	}

	selected := make(map[string]*graph.Commit, len(selection))
	for _, c := range selection {
		selected[c.Hash] = c
	}

	covered := make(map[string]struct{})
	mainline := firstParentLineage(g)

	// Decide merge steps newest-first so an outer merge absorbs any nested
	// merge it already covers; the surviving steps are emitted oldest-first
	// for replay. A merge whose hash or introduced commits are already
	// covered never becomes a second step.
	ordered := make([]graph.MergeAnalysis, len(merges))
	copy(ordered, merges)
	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := g.Get(ordered[i].MergeHash), g.Get(ordered[j].MergeHash)
		if ci == nil || cj == nil {
			return ordered[i].MergeHash > ordered[j].MergeHash
		}
		return cj.Timestamp.Before(ci.Timestamp)
	})

	var mergeSteps []Step
	for _, m := range ordered {
		if !m.IsComplete && !o.overrides[m.MergeHash] {
			continue
		}
		if !intersectsSelection(m, selected) {
			continue
		}
		if anyCovered(m, covered) {
			continue
		}

		merge := g.Get(m.MergeHash)
		if merge == nil {
			continue
		}

		step := Step{
			Kind:        MergeCommit,
			Hashes:      []string{m.MergeHash},
			Description: fmt.Sprintf("merge %s: %s", merge.ShortHash(), truncate(merge.Subject(), descriptionSubjectLen)),
			Command:     mergeCommand(m.MergeHash),
		}
		if _, onMainline := mainline[m.MergeHash]; !onMainline {
			step.EmptyProne = true
			step.EmptyReason = fmt.Sprintf(
				"merge %s originally landed on a different lineage than %s; picking it with -m 1 may produce an empty commit",
				merge.ShortHash(), g.SourceBranch,
			)
			step.AltCommand = mergeAltCommand(m.MergeHash)
		}
		mergeSteps = append(mergeSteps, step)

		covered[m.MergeHash] = struct{}{}
		for _, hash := range m.Introduced {
			covered[hash] = struct{}{}
		}
	}
	for i := len(mergeSteps) - 1; i >= 0; i-- {
		p.MergeSteps = append(p.MergeSteps, mergeSteps[i])
	}

	// Group the remaining selection by primary ticket.
	groups := make(map[string][]*graph.Commit)
	for _, c := range selection {
		if _, done := covered[c.Hash]; done {
			continue
		}
		key := primaryTicket(c)
		groups[key] = append(groups[key], c)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	// Stable key sort with the NO_TICKET bucket last. Dependency-aware
	// group ordering is a planned enhancement; see DESIGN.md.
	sort.SliceStable(keys, func(i, j int) bool {
		if (keys[i] == NoTicket) != (keys[j] == NoTicket) {
			return keys[j] == NoTicket
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		commits := groups[key]
		sort.SliceStable(commits, func(i, j int) bool {
			return commits[i].Timestamp.Before(commits[j].Timestamp)
		})

		group := TicketGroup{Ticket: key}
		for _, c := range commits {
			group.Commits = append(group.Commits, c.Hash)
			for _, f := range c.Files {
				if score := o.fileScores[f]; score > group.RiskScore {
					group.RiskScore = score
				}
			}
		}
		group.Steps = collapseRuns(key, commits)
		p.Groups = append(p.Groups, group)
	}

	return p
}

// collapseRuns turns a chronological commit list into steps, collapsing
// maximal runs of graph-adjacent commits into ranges. Merge commits never
// join a range and are picked with -m 1, since a plain pick of a merge
// fails outright.
func collapseRuns(ticket string, commits []*graph.Commit) []Step {
	var steps []Step

	for i := 0; i < len(commits); {
		j := i
		for j+1 < len(commits) && !commits[j].IsMerge() && !commits[j+1].IsMerge() && isAdjacent(commits[j], commits[j+1]) {
			j++
		}

		if j == i {
			c := commits[i]
			step := Step{
				Kind:        SingleCommit,
				Hashes:      []string{c.Hash},
				Description: fmt.Sprintf("%s: %s", ticket, truncate(c.Subject(), descriptionSubjectLen)),
				Command:     singleCommand(c.Hash),
			}
			if c.IsMerge() {
				step.Kind = MergeCommit
				step.Command = mergeCommand(c.Hash)
			}
			steps = append(steps, step)
		} else {
			run := commits[i : j+1]
			hashes := make([]string, len(run))
			for k, c := range run {
				hashes[k] = c.Hash
			}
			steps = append(steps, Step{
				Kind:   CommitRange,
				Hashes: hashes,
				Description: fmt.Sprintf("%s: %d commits, %s through %s",
					ticket, len(run), run[0].ShortHash(), run[len(run)-1].ShortHash()),
				Command: rangeCommand(run[0].Hash, run[len(run)-1].Hash),
			})
		}
		i = j + 1
	}
	return steps
}

// isAdjacent reports whether next directly extends prev in the graph.
func isAdjacent(prev, next *graph.Commit) bool {
	return len(next.Parents) > 0 && next.Parents[0] == prev.Hash
}

// primaryTicket picks the grouping key: first extracted ticket, else the
// inferred one, else the NO_TICKET bucket.
func primaryTicket(c *graph.Commit) string {
	if len(c.Tickets) > 0 {
		return c.Tickets[0]
	}
	if c.InferredTicket != "" {
		return c.InferredTicket
	}
	return NoTicket
}

// anyCovered reports whether the merge or any commit it introduces is
// already covered by an emitted step.
func anyCovered(m graph.MergeAnalysis, covered map[string]struct{}) bool {
	if _, ok := covered[m.MergeHash]; ok {
		return true
	}
	for _, hash := range m.Introduced {
		if _, ok := covered[hash]; ok {
			return true
		}
	}
	return false
}

// intersectsSelection reports whether the merge or anything it introduces
// is in the selection.
func intersectsSelection(m graph.MergeAnalysis, selected map[string]*graph.Commit) bool {
	if _, ok := selected[m.MergeHash]; ok {
		return true
	}
	for _, hash := range m.Introduced {
		if _, ok := selected[hash]; ok {
			return true
		}
	}
	return false
}

// firstParentLineage returns the first-parent chain of the source branch
// tip within the graph. Merges on this chain originally landed on the
// branch being promoted.
func firstParentLineage(g *graph.Graph) map[string]struct{} {
	lineage := make(map[string]struct{})

	// The source tip is the commit with no children in the graph that is
	// reachable along first parents from the log head; topological log
	// order puts it first.
	commits := g.Commits()
	if len(commits) == 0 {
		return lineage
	}

	current := commits[0]
	for current != nil {
		lineage[current.Hash] = struct{}{}
		if len(current.Parents) == 0 {
			break
		}
		current = g.Get(current.Parents[0])
	}
	return lineage
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
