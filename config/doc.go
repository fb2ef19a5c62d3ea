// Package config loads and validates analysis configuration.
//
// Configuration is resolved from up to three layers, lowest priority
// first: built-in defaults, a config file (discovered or explicit), and
// environment variables for secrets. The merged result is a typed
// Config that the rest of the module consumes directly.
//
// File discovery looks for .promote.yaml at the repository root, then
// ~/.config/promote/config.yaml. An explicit path given to Load skips
// discovery entirely.
//
// Secrets (tracker tokens and passwords) are never written by Save and
// are expected to arrive via environment variables:
//
//	PROMOTE_JIRA_TOKEN
//	PROMOTE_JIRA_PASSWORD
//	PROMOTE_JIRA_SHARED_SECRET
//	PROMOTE_GITHUB_TOKEN
//	PROMOTE_GITLAB_TOKEN
package config
