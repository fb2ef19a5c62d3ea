package graph

import (
	"strings"
	"testing"
	"time"

	"github.com/randalmurphal/promote/git"
)

func TestFromEntries(t *testing.T) {
	entries := []git.LogEntry{
		{
			Hash:      h('b'),
			Parents:   []string{h('a')},
			Author:    "Alice",
			Timestamp: time.Unix(1700000100, 0).UTC(),
			Message:   "HSAMED-4821: follow-up",
			Files:     []string{"b.go"},
		},
		{
			Hash:      h('a'),
			Parents:   []string{h('9')},
			Author:    "Alice",
			Timestamp: time.Unix(1700000000, 0).UTC(),
			Message:   "HSAMED-4821: fix login",
			Files:     []string{"a.go"},
		},
	}

	g := FromEntries("develop", "release", entries)
	if g.SourceBranch != "develop" || g.TargetBranch != "release" {
		t.Errorf("branches = %q / %q", g.SourceBranch, g.TargetBranch)
	}
	if g.Len() != 2 {
		t.Fatalf("Len = %d", g.Len())
	}

	c := g.Get(h('b'))
	if c == nil {
		t.Fatal("missing commit b")
	}
	if c.Author != "Alice" || len(c.Files) != 1 || c.Files[0] != "b.go" {
		t.Errorf("commit fields not carried over: %+v", c)
	}
	if !strings.HasPrefix(c.Message, "HSAMED-4821") {
		t.Errorf("message = %q", c.Message)
	}

	commits := g.Commits()
	if commits[0].Hash != h('b') {
		t.Error("log order not preserved")
	}
}

func TestFromEntriesEmpty(t *testing.T) {
	g := FromEntries("develop", "release", nil)
	if g.Len() != 0 {
		t.Errorf("Len = %d, want 0", g.Len())
	}
}
