package ticket

import (
	"strings"

	"github.com/randalmurphal/promote/graph"
)

// Orphan classification reasons, checked in order. Only the first match
// is recorded.
const (
	ReasonMistypedTicket = "looks like a mistyped ticket reference but failed the similarity threshold"
	ReasonShortMessage   = "commit message too short to carry a ticket reference"
	ReasonWorkInProgress = "work-in-progress commit"
	ReasonNoReference    = "no ticket reference found"
)

// MinMessageLen is the message length below which an orphan is classified
// as too short.
const MinMessageLen = 10

var wipMarkers = []string{"wip", "temp", "tmp"}

// Orphan is a commit with no extracted ticket, a reason for the miss, and
// a ranked suggestion list populated lazily by the inference engine (the
// only writer).
type Orphan struct {
	Commit      *graph.Commit `json:"commit"`
	Reason      string        `json:"reason"`
	Suggestions []Suggestion  `json:"suggestions,omitempty"`
}

// DetectOrphans returns the commits that appear in the graph but in no
// ticket's commit list, in graph order, each with a classification reason.
func DetectOrphans(g *graph.Graph, tickets *Map) []*Orphan {
	var orphans []*Orphan
	for _, c := range g.Commits() {
		if tickets.HasCommit(c.Hash) {
			continue
		}
		orphans = append(orphans, &Orphan{
			Commit: c,
			Reason: classify(c.Message),
		})
	}
	return orphans
}

func classify(message string) string {
	trimmed := strings.TrimSpace(message)

	if LooksLikeReference(trimmed) {
		return ReasonMistypedTicket
	}
	if len(trimmed) < MinMessageLen {
		return ReasonShortMessage
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range wipMarkers {
		if strings.HasPrefix(lower, marker) {
			return ReasonWorkInProgress
		}
	}
	return ReasonNoReference
}
