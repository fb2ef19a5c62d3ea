// Package promote analyzes the divergence between two git branches and
// produces an ordered, conflict-aware cherry-pick plan grouped by
// issue-tracker ticket.
//
// The package is organized into subpackages by domain:
//
//   - git: Git repository access, branch resolution, commit log parsing
//   - graph: Commit graph construction and merge commit analysis
//   - ticket: Ticket reference extraction, orphan detection, inference
//   - conflict: Conflict risk prediction with caching and worker pools
//   - plan: Cherry-pick plan assembly and ordering
//   - tracker: Ticket metadata backends (Jira, GitHub, GitLab)
//   - config: YAML configuration loading and validation
//   - http: HTTP client utilities with retry and pagination
//   - testutil: Test utilities and fixtures
//
// # Quick Start
//
//	import (
//	    "github.com/randalmurphal/promote"
//	    "github.com/randalmurphal/promote/config"
//	)
//
//	cfg := config.Default()
//	cfg.TicketPrefixes = []string{"HSAMED"}
//
//	analyzer, _ := promote.New("/path/to/repo", cfg)
//	result, _ := analyzer.Analyze(ctx, "develop", "release/2.4")
//
//	for _, cmd := range result.Plan.Commands() {
//	    fmt.Println(cmd)
//	}
//
// See individual package documentation for detailed usage.
package promote
