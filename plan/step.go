package plan

import "fmt"

// StepKind discriminates the three cherry-pick step shapes.
type StepKind string

const (
	SingleCommit StepKind = "single"
	MergeCommit  StepKind = "merge"
	CommitRange  StepKind = "range"
)

// NoTicket is the bucket for commits with neither an extracted nor an
// inferred ticket.
const NoTicket = "NO_TICKET"

// Step is one unit of the plan: a single commit, a merge commit, or a
// contiguous range, paired with the literal git command to run.
type Step struct {
	Kind        StepKind `json:"kind"`
	Hashes      []string `json:"hashes"` // commit hash(es) the step covers
	Description string   `json:"description"`
	Command     string   `json:"command"`

	// Empty-commit handling for merges whose original target lineage
	// differs from the branch being promoted.
	EmptyProne  bool   `json:"emptyProne,omitempty"`
	EmptyReason string `json:"emptyReason,omitempty"`
	AltCommand  string `json:"altCommand,omitempty"`
}

// TicketGroup is the per-ticket slice of the plan. Metadata fields are
// filled from the issue tracker when available and stay empty otherwise.
type TicketGroup struct {
	Ticket  string   `json:"ticket"`
	Commits []string `json:"commits"` // hashes, chronological
	Steps   []Step   `json:"steps"`

	Summary  string   `json:"summary,omitempty"`
	Status   string   `json:"status,omitempty"`
	Assignee string   `json:"assignee,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Labels   []string `json:"labels,omitempty"`

	// RiskScore is the highest predicted conflict score among the files
	// this group's commits touch. Zero when no prediction applies.
	RiskScore int `json:"riskScore,omitempty"`
}

// Plan is the ordered cherry-pick plan for promoting source into target.
// All cross-references are hashes or ticket keys, never embedded objects,
// so the structure serializes without cycles.
type Plan struct {
	SourceBranch string `json:"sourceBranch"`
	TargetBranch string `json:"targetBranch"`

	// CheckoutCommand positions the working tree before the picks.
	CheckoutCommand string `json:"checkoutCommand"`

	// MergeSteps run first, one per complete (or overridden) merge.
	MergeSteps []Step `json:"mergeSteps,omitempty"`

	// Groups follow, ordered by ticket key with NO_TICKET last.
	Groups []TicketGroup `json:"groups,omitempty"`
}

// Steps returns the full step sequence in execution order.
func (p *Plan) Steps() []Step {
	var steps []Step
	steps = append(steps, p.MergeSteps...)
	for _, g := range p.Groups {
		steps = append(steps, g.Steps...)
	}
	return steps
}

// Empty reports whether the plan has no steps.
func (p *Plan) Empty() bool {
	return len(p.MergeSteps) == 0 && len(p.Groups) == 0
}

// Commands returns the literal git commands in execution order, starting
// with the checkout.
func (p *Plan) Commands() []string {
	if p.Empty() {
		return nil
	}
	cmds := []string{p.CheckoutCommand}
	for _, step := range p.Steps() {
		cmds = append(cmds, step.Command)
	}
	return cmds
}

func singleCommand(hash string) string {
	return fmt.Sprintf("git cherry-pick %s", hash)
}

func mergeCommand(hash string) string {
	return fmt.Sprintf("git cherry-pick -m 1 %s", hash)
}

func mergeAltCommand(hash string) string {
	return fmt.Sprintf("git cherry-pick -m 1 --strategy-option=ours --allow-empty %s", hash)
}

func rangeCommand(first, last string) string {
	return fmt.Sprintf("git cherry-pick %s^..%s", first, last)
}

func checkoutCommand(branch string) string {
	return fmt.Sprintf("git checkout %s", branch)
}
