// Package tracker looks up issue-tracker metadata for ticket keys.
//
// A Service resolves one batch of ticket keys to Ticket metadata; the
// Batcher chunks large key sets, tolerates partial batch failures, and
// logs misses instead of failing the analysis — a cherry-pick plan
// without ticket metadata is still useful.
//
// Three backends are provided: a Jira REST client (API token, basic,
// PAT, and Connect-style JWT authentication), GitHub Issues, and GitLab
// Issues. The latter two map ticket prefixes to repositories via
// configuration.
package tracker
