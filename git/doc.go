// Package git provides read-only repository access for branch divergence
// analysis.
//
// All repository reads go through a Context, which executes git commands
// via a CommandRunner. The default runner shells out to the git binary;
// tests inject a mock runner so no real repository is needed.
//
// Core types:
//   - Context: Validated handle on a repository, entry point for all reads
//   - CommandRunner: Interface for executing git commands (with mock for testing)
//   - LogEntry: One parsed commit from the divergence log
//   - RepoError: Structural access failure (bad path, unresolvable branch)
//
// Example usage:
//
//	ctx, err := git.NewContext("/path/to/repo")
//	entries, warnings, err := ctx.CommitsBetween("uat", "dev")
//	targetSet, err := ctx.BranchCommitSet("uat")
//
// The package only reads repository state. Cherry-pick commands emitted by
// the planner are plain strings for the caller to run or replay.
package git
