package ticket

import (
	"testing"

	"github.com/randalmurphal/promote/graph"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "mistyped reference wins over length",
			message: "JERA-123!",
			want:    ReasonMistypedTicket,
		},
		{
			name:    "short message",
			message: "fixup",
			want:    ReasonShortMessage,
		},
		{
			name:    "wip marker",
			message: "WIP: session refactor",
			want:    ReasonWorkInProgress,
		},
		{
			name:    "temp marker",
			message: "temp commit before rebase",
			want:    ReasonWorkInProgress,
		},
		{
			name:    "plain message",
			message: "refactor session handling",
			want:    ReasonNoReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.message); got != tt.want {
				t.Errorf("classify(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestDetectOrphans(t *testing.T) {
	g := graph.New("develop", "release")
	g.Add(msgCommit(h('c'), "wip"))
	g.Add(msgCommit(h('b'), "refactor session handling"))
	g.Add(msgCommit(h('a'), "HSAMED-1: fix login"))

	e := NewExtractor([]string{"HSAMED"})
	tickets := e.Extract(g)

	orphans := DetectOrphans(g, tickets)
	if len(orphans) != 2 {
		t.Fatalf("got %d orphans, want 2", len(orphans))
	}

	// Graph order preserved.
	if orphans[0].Commit.Hash != h('c') || orphans[1].Commit.Hash != h('b') {
		t.Errorf("orphan order = %s, %s",
			orphans[0].Commit.ShortHash(), orphans[1].Commit.ShortHash())
	}
	if orphans[0].Reason != ReasonShortMessage {
		t.Errorf("reason = %q", orphans[0].Reason)
	}
	if orphans[1].Reason != ReasonNoReference {
		t.Errorf("reason = %q", orphans[1].Reason)
	}
}
