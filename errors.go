package promote

import (
	"context"
	"errors"

	"github.com/randalmurphal/promote/git"
)

// Analysis errors
var (
	// ErrSameBranch indicates source and target name the same branch.
	ErrSameBranch = errors.New("source and target are the same branch")

	// ErrAnalysisTimeout indicates the analysis deadline expired before
	// the run could finish.
	ErrAnalysisTimeout = errors.New("analysis timed out")
)

// IsTimeout reports whether err is an analysis timeout, directly or
// wrapped.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrAnalysisTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsRepoAccess reports whether err stems from repository access
// (missing repo, unknown branch, failed git invocation).
func IsRepoAccess(err error) bool {
	return git.IsRepoAccess(err)
}
