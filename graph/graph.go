package graph

import (
	"time"
)

// ShortHashLen is the prefix length used for short hashes and cache keys.
const ShortHashLen = 8

// Commit is one commit in the divergence graph.
//
// Identity fields are immutable once parsed. The ticket annotations are
// each written by exactly one pipeline stage: Tickets by extraction,
// InferredTicket and InferredConfidence by the inference engine.
type Commit struct {
	Hash        string    `json:"hash"`
	Parents     []string  `json:"parents"`
	Message     string    `json:"message"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail"`
	Timestamp   time.Time `json:"timestamp"`
	Files       []string  `json:"files"`

	// Annotations.
	Tickets            []string `json:"tickets,omitempty"`
	InferredTicket     string   `json:"inferredTicket,omitempty"`
	InferredConfidence int      `json:"inferredConfidence,omitempty"` // 0-100
}

// ShortHash returns the fixed-length hash prefix used in plans and keys.
func (c *Commit) ShortHash() string {
	if len(c.Hash) < ShortHashLen {
		return c.Hash
	}
	return c.Hash[:ShortHashLen]
}

// IsMerge reports whether the commit has more than one parent.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// Subject returns the first line of the commit message.
func (c *Commit) Subject() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// Graph holds the commits reachable from the source branch but not from
// the target branch, indexed by hash, together with the derived children
// map. The graph owns its Commit values.
type Graph struct {
	SourceBranch string
	TargetBranch string

	commits  map[string]*Commit
	children map[string][]string
	order    []string // insertion order, newest first (log order)
}

// New creates an empty graph for the given branch pair.
func New(source, target string) *Graph {
	return &Graph{
		SourceBranch: source,
		TargetBranch: target,
		commits:      make(map[string]*Commit),
		children:     make(map[string][]string),
	}
}

// Add inserts a commit and records it as a child of each of its parents.
// Duplicate hashes are ignored.
func (g *Graph) Add(c *Commit) {
	if _, exists := g.commits[c.Hash]; exists {
		return
	}
	g.commits[c.Hash] = c
	g.order = append(g.order, c.Hash)
	for _, parent := range c.Parents {
		g.children[parent] = append(g.children[parent], c.Hash)
	}
}

// Get returns the commit for the hash, or nil if not contained.
func (g *Graph) Get(hash string) *Commit {
	return g.commits[hash]
}

// Contains reports whether the hash is in the graph.
func (g *Graph) Contains(hash string) bool {
	_, ok := g.commits[hash]
	return ok
}

// Len returns the number of commits in the graph.
func (g *Graph) Len() int {
	return len(g.commits)
}

// Commits returns all commits in graph (log) order.
func (g *Graph) Commits() []*Commit {
	out := make([]*Commit, 0, len(g.order))
	for _, hash := range g.order {
		out = append(out, g.commits[hash])
	}
	return out
}

// Children returns the hashes of the contained commits that list the
// given hash as a parent.
func (g *Graph) Children(hash string) []string {
	return g.children[hash]
}

// Merges returns the merge commits in graph order.
func (g *Graph) Merges() []*Commit {
	var merges []*Commit
	for _, hash := range g.order {
		if c := g.commits[hash]; c.IsMerge() {
			merges = append(merges, c)
		}
	}
	return merges
}

// Reachable returns the set of contained commits reachable from the hash
// by following parent links, including the starting commit. Hashes not
// contained in the graph are boundaries and are not traversed.
func (g *Graph) Reachable(hash string) map[string]struct{} {
	seen := make(map[string]struct{})
	if !g.Contains(hash) {
		return seen
	}

	queue := []string{hash}
	seen[hash] = struct{}{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, parent := range g.commits[current].Parents {
			if _, ok := seen[parent]; ok {
				continue
			}
			if !g.Contains(parent) {
				continue
			}
			seen[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}
	return seen
}

// Descendants returns the set of contained commits reachable from the
// hash by following the children map, including the starting commit.
//
// When firstParentOnly is set, the traversal only continues into a child
// whose first parent is the current commit, which isolates a single
// first-parent lineage.
func (g *Graph) Descendants(hash string, firstParentOnly bool) map[string]struct{} {
	seen := make(map[string]struct{})
	queue := []string{hash}
	if g.Contains(hash) {
		seen[hash] = struct{}{}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range g.children[current] {
			if _, ok := seen[child]; ok {
				continue
			}
			if firstParentOnly {
				c := g.commits[child]
				if c == nil || len(c.Parents) == 0 || c.Parents[0] != current {
					continue
				}
			}
			seen[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return seen
}
