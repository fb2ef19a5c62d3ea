// Package ticket maps commits to issue-tracker tickets.
//
// Extraction finds literal ticket references in commit messages, fuzzy
// matching candidate prefixes against the configured expected prefixes so
// common typos still normalize to the canonical PREFIX-NUMBER key. Commits
// with no reference become orphans, each classified with a reason, and the
// inference engine proposes ranked ticket assignments for them from three
// independent signals: merge co-membership, temporal clustering by author,
// and file overlap.
package ticket
