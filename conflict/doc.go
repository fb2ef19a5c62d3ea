// Package conflict predicts which files are likely to produce textual
// merge conflicts when a selected set of commits is cherry-picked onto a
// target branch.
//
// Commits are grouped by modified file; only files touched by two or more
// candidate commits are scored. The risk model combines weighted additive
// factors (commit count, author spread, time span, whether the target
// branch also changed the file) with multiplier bonuses for binary,
// critical-path, and structurally-changed files, then maps the score to
// an ordered risk level through configurable thresholds.
//
// Per-file analysis shares no mutable state and runs on a bounded worker
// pool. A TTL cache can wrap the predictor so repeated analyses of an
// unchanged selection reuse prior predictions.
package conflict
