// Package graph models the commits that exist on a source branch but not
// on a target branch, and analyzes the merges among them.
//
// A Graph is built once per analysis from repository state and is
// read-only afterwards, except for the ticket annotations later pipeline
// stages attach to individual commits. Hashes that appear as parents but
// are not contained in the graph are treated as boundaries and never
// traversed.
package graph
