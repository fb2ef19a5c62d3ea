package graph

import (
	"github.com/randalmurphal/promote/git"
)

// Build constructs the divergence graph for source..target from the
// repository, along with the full target-branch commit set used for merge
// completeness checks. Malformed log records are skipped and returned as
// warnings.
func Build(gc *git.Context, source, target string) (*Graph, map[string]struct{}, []string, error) {
	entries, warnings, err := gc.CommitsBetween(target, source)
	if err != nil {
		return nil, nil, nil, err
	}

	targetSet, err := gc.BranchCommitSet(target)
	if err != nil {
		return nil, nil, nil, err
	}

	return FromEntries(source, target, entries), targetSet, warnings, nil
}

// FromEntries builds a graph from already-parsed log entries.
func FromEntries(source, target string, entries []git.LogEntry) *Graph {
	g := New(source, target)
	for _, e := range entries {
		g.Add(&Commit{
			Hash:        e.Hash,
			Parents:     e.Parents,
			Message:     e.Message,
			Author:      e.Author,
			AuthorEmail: e.AuthorEmail,
			Timestamp:   e.Timestamp,
			Files:       e.Files,
		})
	}
	return g
}
