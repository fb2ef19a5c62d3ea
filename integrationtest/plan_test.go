package integrationtest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promote"
	"github.com/randalmurphal/promote/testutil"
)

// TestPlanCompleteMergeUsesMergeStep merges the feature branch into both
// sides, so its commits are already on main and only the merge commit
// itself diverges. The plan replays it with a first-parent pick.
func TestPlanCompleteMergeUsesMergeStep(t *testing.T) {
	dir := setupRepo(t)
	testutil.SwitchBranch(t, dir, "main")
	testutil.MergeBranch(t, dir, "feat")
	testutil.SwitchBranch(t, dir, "develop")

	analyzer, err := promote.New(dir, testConfig())
	require.NoError(t, err)

	res, err := analyzer.Analyze(context.Background(), "develop", "main")
	require.NoError(t, err)

	require.Len(t, res.Merges, 1)
	assert.True(t, res.Merges[0].IsComplete)

	require.Len(t, res.Plan.MergeSteps, 1)
	step := res.Plan.MergeSteps[0]
	assert.Contains(t, step.Command, "git cherry-pick -m 1 ")
	assert.Contains(t, step.Command, res.Merges[0].MergeHash)

	// The merge commit never reappears in a ticket group.
	for _, g := range res.Plan.Groups {
		assert.NotContains(t, g.Commits, res.Merges[0].MergeHash)
	}
}

// TestPlanCommandsAreRunnable sanity-checks the emitted command text.
func TestPlanCommandsAreRunnable(t *testing.T) {
	dir := setupRepo(t)

	analyzer, err := promote.New(dir, testConfig())
	require.NoError(t, err)

	res, err := analyzer.Analyze(context.Background(), "develop", "main")
	require.NoError(t, err)

	cmds := res.Plan.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, "git checkout main", cmds[0])
	for _, cmd := range cmds[1:] {
		assert.True(t, strings.HasPrefix(cmd, "git cherry-pick"), "unexpected command %q", cmd)
	}
}
