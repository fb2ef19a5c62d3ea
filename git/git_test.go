package git

import (
	"errors"
	"strings"
	"testing"

	"github.com/randalmurphal/promote/testutil"
)

var errExit = errors.New("exit status 128")

// newScriptedContext builds a Context backed by a scripted runner that
// already answers the repository validation probe.
func newScriptedContext(t *testing.T, runner *testutil.ScriptRunner) *Context {
	t.Helper()
	runner.On("rev-parse --git-dir", ".git", nil)
	gc, err := NewContext("/repo", WithRunner(runner))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return gc
}

func TestNewContextNotARepo(t *testing.T) {
	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --git-dir", "", errExit)

	_, err := NewContext("/not/a/repo", WithRunner(runner))
	if !errors.Is(err, ErrNotGitRepo) {
		t.Fatalf("err = %v, want ErrNotGitRepo", err)
	}
	if !IsRepoAccess(err) {
		t.Error("IsRepoAccess should be true for a missing repository")
	}
}

func TestResolveBranchLocal(t *testing.T) {
	sha := testHash('a')
	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --verify --quiet main^{commit}", sha, nil)
	gc := newScriptedContext(t, runner)

	ref, got, err := gc.ResolveBranch("main")
	if err != nil {
		t.Fatalf("ResolveBranch: %v", err)
	}
	if ref != "main" {
		t.Errorf("ref = %q, want %q", ref, "main")
	}
	if got != sha {
		t.Errorf("sha = %q, want %q", got, sha)
	}
}

func TestResolveBranchRemoteFallback(t *testing.T) {
	sha := testHash('b')
	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --verify --quiet feature/x^{commit}", "", errExit)
	runner.On("remote", "upstream\norigin", nil)
	runner.On("rev-parse --verify --quiet upstream/feature/x^{commit}", "", errExit)
	runner.On("rev-parse --verify --quiet origin/feature/x^{commit}", sha, nil)
	gc := newScriptedContext(t, runner)

	ref, got, err := gc.ResolveBranch("feature/x")
	if err != nil {
		t.Fatalf("ResolveBranch: %v", err)
	}
	if ref != "origin/feature/x" {
		t.Errorf("ref = %q, want tracking ref", ref)
	}
	if got != sha {
		t.Errorf("sha = %q, want %q", got, sha)
	}
}

func TestResolveBranchNotFound(t *testing.T) {
	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --verify --quiet ghost^{commit}", "", errExit)
	runner.On("remote", "origin", nil)
	runner.On("rev-parse --verify --quiet origin/ghost^{commit}", "", errExit)
	gc := newScriptedContext(t, runner)

	_, _, err := gc.ResolveBranch("ghost")
	if !errors.Is(err, ErrBranchNotFound) {
		t.Fatalf("err = %v, want ErrBranchNotFound", err)
	}

	var repoErr *RepoError
	if !errors.As(err, &repoErr) {
		t.Fatal("expected *RepoError")
	}
	if repoErr.Branch != "ghost" {
		t.Errorf("Branch = %q, want %q", repoErr.Branch, "ghost")
	}
}

func TestBranchCommitSet(t *testing.T) {
	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --verify --quiet release^{commit}", testHash('a'), nil)
	runner.On("rev-list release", testHash('a')+"\n"+testHash('b')+"\n", nil)
	gc := newScriptedContext(t, runner)

	set, err := gc.BranchCommitSet("release")
	if err != nil {
		t.Fatalf("BranchCommitSet: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("got %d commits, want 2", len(set))
	}
	if _, ok := set[testHash('b')]; !ok {
		t.Error("missing commit in set")
	}
}

func TestFilesChangedOnTarget(t *testing.T) {
	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --verify --quiet release^{commit}", testHash('a'), nil)
	runner.On("rev-parse --verify --quiet develop^{commit}", testHash('b'), nil)
	runner.On("merge-base develop release", testHash('c'), nil)
	runner.On("diff --name-only "+testHash('c')+" release", "src/auth.go\nREADME.md\n", nil)
	gc := newScriptedContext(t, runner)

	files, err := gc.FilesChangedOnTarget("develop", "release")
	if err != nil {
		t.Fatalf("FilesChangedOnTarget: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if _, ok := files["src/auth.go"]; !ok {
		t.Error("missing src/auth.go")
	}
}

func TestCommitsBetween(t *testing.T) {
	out := record(
		testHash('a'), testHash('b'),
		"Alice", "alice@example.com", "1700000000",
		"HSAMED-4821: fix login", "M\tlogin.go\n",
	)

	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --verify --quiet release^{commit}", testHash('9'), nil)
	runner.On("rev-parse --verify --quiet develop^{commit}", testHash('a'), nil)
	runner.On(
		"log --topo-order --name-status --pretty=format:"+logFormat+" release..develop",
		out, nil,
	)
	gc := newScriptedContext(t, runner)

	entries, warnings, err := gc.CommitsBetween("release", "develop")
	if err != nil {
		t.Fatalf("CommitsBetween: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(entries) != 1 || entries[0].Hash != testHash('a') {
		t.Fatalf("entries = %+v", entries)
	}

	// The range must use two-dot exclusion, target first.
	found := false
	for _, call := range runner.Calls() {
		if strings.Contains(call, "release..develop") {
			found = true
		}
	}
	if !found {
		t.Error("log was not invoked with target..source range")
	}
}

func TestCommitsBetweenUnknownBranch(t *testing.T) {
	runner := testutil.NewScriptRunner(nil)
	runner.On("rev-parse --verify --quiet nope^{commit}", "", errExit)
	runner.On("remote", "", nil)
	gc := newScriptedContext(t, runner)

	_, _, err := gc.CommitsBetween("nope", "develop")
	if !errors.Is(err, ErrBranchNotFound) {
		t.Fatalf("err = %v, want ErrBranchNotFound", err)
	}
}
