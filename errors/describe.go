package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/promote/git"
	promotehttp "github.com/randalmurphal/promote/http"
)

// Describe maps an analysis error to a user-facing report. It always
// returns a non-nil UserError; unknown errors get a generic message
// with the raw error as details.
func Describe(err error) *UserError {
	switch {
	case err == nil:
		return &UserError{Message: "unknown failure"}

	case errors.Is(err, git.ErrNotGitRepo):
		return &UserError{
			Err:        err,
			Message:    "the path is not a git repository",
			Suggestion: "run the analysis from inside a repository, or pass the repository path explicitly",
		}

	case errors.Is(err, git.ErrBranchNotFound):
		return &UserError{
			Err:        err,
			Message:    "branch not found",
			Details:    branchDetail(err),
			Suggestion: "check the branch name, or fetch the remote if the branch only exists there",
		}

	case errors.Is(err, context.DeadlineExceeded):
		return &UserError{
			Err:        err,
			Message:    "the analysis did not finish in time",
			Suggestion: "raise the timeout in the config, or analyze a smaller branch range",
		}

	case errors.Is(err, promotehttp.ErrUnauthorized),
		errors.Is(err, promotehttp.ErrForbidden):
		return &UserError{
			Err:        err,
			Message:    "the issue tracker rejected the credentials",
			Suggestion: "check the tracker token environment variables and the configured auth type",
		}

	case errors.Is(err, promotehttp.ErrRateLimited):
		return &UserError{
			Err:        err,
			Message:    "the issue tracker is rate limiting requests",
			Suggestion: "wait a moment and retry; ticket metadata is optional and can be disabled",
		}

	case git.IsRepoAccess(err):
		return &UserError{
			Err:        err,
			Message:    "a git command failed",
			Details:    err.Error(),
			Suggestion: "make sure the repository is readable and not mid-rebase",
		}

	default:
		return &UserError{
			Err:     err,
			Message: "analysis failed",
			Details: err.Error(),
		}
	}
}

func branchDetail(err error) string {
	var repoErr *git.RepoError
	if errors.As(err, &repoErr) && repoErr.Branch != "" {
		return fmt.Sprintf("no local or remote ref matches %q", repoErr.Branch)
	}
	return ""
}
