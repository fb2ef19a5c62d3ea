// Package testutil provides utilities for testing against real and
// scripted git repositories.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// SetupTestRepo creates a temporary git repository with one initial commit
// on branch "main". Returns the path to the repository. The repository is
// automatically cleaned up when the test ends.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test User")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repository\n"), 0o644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}

	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

// CreateBranch creates and checks out a new branch in the test repo.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	runGit(t, repoDir, "checkout", "-b", branch)
}

// SwitchBranch switches to an existing branch.
func SwitchBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	runGit(t, repoDir, "checkout", branch)
}

// CommitFile creates or updates a file and commits it.
// Returns the SHA of the new commit.
func CommitFile(t *testing.T, repoDir, path, content, message string) string {
	t.Helper()
	return CommitFileAt(t, repoDir, path, content, message, time.Time{})
}

// CommitFileAt commits a file with a fixed author date, so tests can build
// histories with controlled time spans. A zero date uses the current time.
func CommitFileAt(t *testing.T, repoDir, path, content, message string, date time.Time) string {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}

	runGit(t, repoDir, "add", path)

	args := []string{"commit", "-m", message}
	cmd := gitCommand(repoDir, args...)
	if !date.IsZero() {
		stamp := date.UTC().Format(time.RFC3339)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_DATE="+stamp,
			"GIT_COMMITTER_DATE="+stamp,
		)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git commit failed: %v\n%s", err, out)
	}

	return HeadSHA(t, repoDir)
}

// MergeBranch merges the named branch into the current branch with a merge
// commit (--no-ff) and returns the merge commit SHA.
func MergeBranch(t *testing.T, repoDir, branch string) string {
	t.Helper()
	runGit(t, repoDir, "merge", "--no-ff", "-m", fmt.Sprintf("Merge branch '%s'", branch), branch)
	return HeadSHA(t, repoDir)
}

// HeadSHA returns the current HEAD commit SHA.
func HeadSHA(t *testing.T, repoDir string) string {
	t.Helper()

	cmd := gitCommand(repoDir, "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git rev-parse HEAD failed: %v", err)
	}
	return strings.TrimSpace(string(out))
}

func gitCommand(dir string, args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	return cmd
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := gitCommand(dir, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
}
