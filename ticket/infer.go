package ticket

import (
	"fmt"
	"sort"
	"time"

	"github.com/randalmurphal/promote/graph"
)

// Signal confidence caps. Every suggestion a signal produces stays within
// its cap; merge co-membership is trusted the most.
const (
	MergeContextCap = 95
	TemporalCap     = 70
	FileOverlapCap  = 60
)

// mergeContextBoost is added to the dominant-ticket share before capping.
// Co-membership in a merge is a stronger signal than any share alone.
const mergeContextBoost = 20

// DefaultWindow is the temporal clustering window.
const DefaultWindow = 4 * time.Hour

// topPerSignal limits how many candidates each signal contributes before
// aggregation.
const topPerSignal = 3

// Suggestion is one ranked ticket assignment proposal for an orphan.
type Suggestion struct {
	Ticket     string   `json:"ticket"`
	Confidence int      `json:"confidence"` // 0-100
	Reasons    []string `json:"reasons"`
}

// Inferrer proposes ticket assignments for orphan commits. It reads the
// graph, ticket map, and merge analyses but never mutates them; its only
// output is each orphan's suggestion list.
type Inferrer struct {
	window time.Duration
}

// NewInferrer creates an inference engine with the default 4-hour
// temporal window.
func NewInferrer(opts ...InferrerOption) *Inferrer {
	inf := &Inferrer{window: DefaultWindow}
	for _, opt := range opts {
		opt(inf)
	}
	return inf
}

// InferrerOption configures an Inferrer.
type InferrerOption func(*Inferrer)

// WithWindow overrides the temporal clustering window.
func WithWindow(window time.Duration) InferrerOption {
	return func(inf *Inferrer) {
		inf.window = window
	}
}

// Populate fills the suggestion list of every orphan in place.
func (inf *Inferrer) Populate(g *graph.Graph, tickets *Map, merges []graph.MergeAnalysis, orphans []*Orphan) {
	for _, o := range orphans {
		o.Suggestions = inf.Suggest(g, tickets, merges, o.Commit)
	}
}

// Suggest combines the three signals for one orphan and returns the
// aggregated suggestions sorted by descending confidence. Suggestions
// sharing a ticket key keep the maximum confidence and the union of
// reason tags.
func (inf *Inferrer) Suggest(g *graph.Graph, tickets *Map, merges []graph.MergeAnalysis, orphan *graph.Commit) []Suggestion {
	var candidates []Suggestion
	candidates = append(candidates, topN(inf.mergeContext(g, merges, orphan), topPerSignal)...)
	candidates = append(candidates, topN(inf.temporal(g, orphan), topPerSignal)...)
	candidates = append(candidates, topN(inf.fileOverlap(tickets, orphan), topPerSignal)...)

	merged := make(map[string]*Suggestion)
	var order []string
	for _, cand := range candidates {
		existing, ok := merged[cand.Ticket]
		if !ok {
			c := cand
			merged[cand.Ticket] = &c
			order = append(order, cand.Ticket)
			continue
		}
		if cand.Confidence > existing.Confidence {
			existing.Confidence = cand.Confidence
		}
		existing.Reasons = unionReasons(existing.Reasons, cand.Reasons)
	}

	out := make([]Suggestion, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Ticket < out[j].Ticket
	})
	return out
}

// mergeContext scores tickets carried by the other commits introduced by
// whichever merges also introduce the orphan.
func (inf *Inferrer) mergeContext(g *graph.Graph, merges []graph.MergeAnalysis, orphan *graph.Commit) []Suggestion {
	var suggestions []Suggestion

	for i := range merges {
		m := &merges[i]
		if !contains(m.Introduced, orphan.Hash) {
			continue
		}

		counts := make(map[string]int)
		others := 0
		for _, hash := range m.Introduced {
			if hash == orphan.Hash {
				continue
			}
			c := g.Get(hash)
			if c == nil {
				continue
			}
			others++
			for _, key := range c.Tickets {
				counts[key]++
			}
		}
		if others == 0 {
			continue
		}

		ticket, count := dominant(counts)
		if ticket == "" {
			continue
		}

		share := count * 100 / others
		confidence := min(MergeContextCap, share+mergeContextBoost)
		suggestions = append(suggestions, Suggestion{
			Ticket:     ticket,
			Confidence: confidence,
			Reasons: []string{fmt.Sprintf(
				"introduced by merge %.8s alongside %d of %d commits on %s",
				m.MergeHash, count, others, ticket,
			)},
		})
	}
	return suggestions
}

// temporal scores tickets from same-author commits close in time to the
// orphan, weighted by proximity.
func (inf *Inferrer) temporal(g *graph.Graph, orphan *graph.Commit) []Suggestion {
	scores := make(map[string]float64)

	for _, c := range g.Commits() {
		if c.Hash == orphan.Hash || c.Author != orphan.Author || len(c.Tickets) == 0 {
			continue
		}
		apart := orphan.Timestamp.Sub(c.Timestamp)
		if apart < 0 {
			apart = -apart
		}
		if apart > inf.window {
			continue
		}
		weight := 1 / (1 + apart.Minutes()/60)
		for _, key := range c.Tickets {
			scores[key] += weight
		}
	}

	var suggestions []Suggestion
	for key, score := range scores {
		confidence := min(TemporalCap, int(score*40))
		if confidence <= 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Ticket:     key,
			Confidence: confidence,
			Reasons: []string{fmt.Sprintf(
				"same author committed on %s within %s", key, inf.window,
			)},
		})
	}
	return suggestions
}

// fileOverlap scores tickets whose commits touch the same files as the
// orphan.
func (inf *Inferrer) fileOverlap(tickets *Map, orphan *graph.Commit) []Suggestion {
	if len(orphan.Files) == 0 {
		return nil
	}

	orphanFiles := make(map[string]struct{}, len(orphan.Files))
	for _, f := range orphan.Files {
		orphanFiles[f] = struct{}{}
	}

	var suggestions []Suggestion
	for _, key := range tickets.Keys() {
		shared := make(map[string]struct{})
		for _, c := range tickets.Commits(key) {
			for _, f := range c.Files {
				if _, ok := orphanFiles[f]; ok {
					shared[f] = struct{}{}
				}
			}
		}
		if len(shared) == 0 {
			continue
		}

		ratio := float64(len(shared)) / float64(len(orphanFiles))
		confidence := min(FileOverlapCap, int(ratio*80))
		if confidence <= 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Ticket:     key,
			Confidence: confidence,
			Reasons: []string{fmt.Sprintf(
				"%d of %d modified files overlap with %s", len(shared), len(orphanFiles), key,
			)},
		})
	}
	return suggestions
}

// topN keeps the n highest-confidence suggestions, ties broken by key for
// determinism.
func topN(suggestions []Suggestion, n int) []Suggestion {
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].Ticket < suggestions[j].Ticket
	})
	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions
}

func dominant(counts map[string]int) (string, int) {
	best := ""
	bestCount := 0
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best = key
			bestCount = count
		}
	}
	return best, bestCount
}

func unionReasons(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	for _, r := range a {
		seen[r] = struct{}{}
	}
	for _, r := range b {
		if _, ok := seen[r]; !ok {
			a = append(a, r)
			seen[r] = struct{}{}
		}
	}
	return a
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
