// Package plan turns a selected commit set into an ordered, auditable
// cherry-pick plan grouped by ticket.
//
// Complete merges are emitted first as single -m 1 picks covering their
// introduced commits; the remainder is grouped by primary ticket and
// collapsed into contiguous ranges where the graph allows. Every emitted
// command is a literal git invocation, since downstream scripts parse and
// replay them verbatim.
package plan
