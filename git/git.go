package git

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Context provides read access to a git repository for divergence analysis.
type Context struct {
	repoPath string        // Path to the repository
	runner   CommandRunner // Command runner (defaults to ExecRunner)
}

// Option configures Context.
type Option func(*Context)

// NewContext creates a read-only git context for the repository.
// It validates that the path is a git repository and applies any options.
func NewContext(repoPath string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	g := &Context{
		repoPath: absPath,
		runner:   NewExecRunner(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if _, err := g.runGit("rev-parse", "--git-dir"); err != nil {
		return nil, &RepoError{Op: "open repository", Path: absPath, Err: ErrNotGitRepo}
	}

	return g, nil
}

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(g *Context) {
		g.runner = runner
	}
}

// RepoPath returns the path to the repository.
func (g *Context) RepoPath() string {
	return g.repoPath
}

// ResolveBranch resolves a branch name to a commit SHA, trying the local
// ref first and then each configured remote's tracking ref.
// Returns the resolved ref name and the SHA it points at.
func (g *Context) ResolveBranch(branch string) (ref, sha string, err error) {
	if sha, err := g.revParse(branch); err == nil {
		return branch, sha, nil
	}

	remotes, remoteErr := g.Remotes()
	if remoteErr == nil {
		for _, remote := range remotes {
			tracking := remote + "/" + branch
			if sha, err := g.revParse(tracking); err == nil {
				return tracking, sha, nil
			}
		}
	}

	return "", "", &RepoError{
		Op:     "resolve branch",
		Path:   g.repoPath,
		Branch: branch,
		Err:    ErrBranchNotFound,
	}
}

// Remotes returns the configured remote names.
func (g *Context) Remotes() ([]string, error) {
	out, err := g.runGit("remote")
	if err != nil {
		return nil, &RepoError{Op: "list remotes", Path: g.repoPath, Err: err}
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// MergeBase returns the best common ancestor of the two refs.
func (g *Context) MergeBase(a, b string) (string, error) {
	sha, err := g.runGit("merge-base", a, b)
	if err != nil {
		return "", &RepoError{Op: "merge-base", Path: g.repoPath, Branch: a + ".." + b, Err: err}
	}
	return sha, nil
}

// BranchCommitSet returns every commit hash reachable from the branch.
// Used as the target-branch membership set for merge completeness checks.
func (g *Context) BranchCommitSet(branch string) (map[string]struct{}, error) {
	ref, _, err := g.ResolveBranch(branch)
	if err != nil {
		return nil, err
	}

	out, err := g.runGit("rev-list", ref)
	if err != nil {
		return nil, &RepoError{Op: "rev-list", Path: g.repoPath, Branch: branch, Err: err}
	}

	set := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[line] = struct{}{}
		}
	}
	return set, nil
}

// FilesChangedOnTarget returns the set of files modified on the target
// branch since it diverged from the source branch. This feeds the
// highest-weight conflict risk factor.
func (g *Context) FilesChangedOnTarget(source, target string) (map[string]struct{}, error) {
	targetRef, _, err := g.ResolveBranch(target)
	if err != nil {
		return nil, err
	}
	sourceRef, _, err := g.ResolveBranch(source)
	if err != nil {
		return nil, err
	}

	base, err := g.MergeBase(sourceRef, targetRef)
	if err != nil {
		return nil, err
	}

	out, err := g.runGit("diff", "--name-only", base, targetRef)
	if err != nil {
		return nil, &RepoError{Op: "diff target", Path: g.repoPath, Branch: target, Err: err}
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files, nil
}

// revParse resolves a ref to a commit SHA without remote fallback.
func (g *Context) revParse(ref string) (string, error) {
	return g.runGit("rev-parse", "--verify", "--quiet", ref+"^{commit}")
}

// runGit executes a git command and returns stdout.
func (g *Context) runGit(args ...string) (string, error) {
	return g.runner.Run(g.repoPath, "git", args...)
}
