package integrationtest

import (
	"os/exec"
	"testing"

	"github.com/randalmurphal/promote/config"
	"github.com/randalmurphal/promote/testutil"
)

// setupRepo builds a repository where develop carries, beyond main:
//
//   - HSAMED-2 add parser           (parser.go)
//   - cleanup                       (parser.go, no ticket reference)
//   - a merged feature branch with two HSAMED-3 commits
//
// and main itself has advanced with a hotfix, so both sides of the
// divergence are non-empty.
func setupRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := testutil.SetupTestRepo(t)
	testutil.CommitFile(t, dir, "app/main.go", "package main\n", "HSAMED-1 scaffolding")

	testutil.CreateBranch(t, dir, "develop")
	testutil.CommitFile(t, dir, "parser.go", "package app\n", "HSAMED-2 add parser")
	testutil.CommitFile(t, dir, "parser.go", "package app\n\n// parser\n", "cleanup")

	testutil.CreateBranch(t, dir, "feat")
	testutil.CommitFile(t, dir, "render.go", "package app\n", "HSAMED-3 add renderer")
	testutil.CommitFile(t, dir, "render.go", "package app\n\n// renderer\n", "HSAMED-3 wire renderer")
	testutil.SwitchBranch(t, dir, "develop")
	testutil.MergeBranch(t, dir, "feat")

	testutil.SwitchBranch(t, dir, "main")
	testutil.CommitFile(t, dir, "app/main.go", "package main\n\n// hotfix\n", "HSAMED-4 hotfix")
	testutil.SwitchBranch(t, dir, "develop")

	return dir
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.TicketPrefixes = []string{"HSAMED"}
	return cfg
}
