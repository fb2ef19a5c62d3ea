package git

import "errors"

// Repository access errors.
var (
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrBranchNotFound indicates the branch could not be resolved locally
	// or on any configured remote.
	ErrBranchNotFound = errors.New("branch not found")
)

// RepoError wraps a repository access failure with context.
// It is the fatal error class: callers abort the analysis when they see one.
type RepoError struct {
	Op     string // Operation that failed (e.g., "resolve branch")
	Path   string // Repository path
	Branch string // Branch involved, if any
	Output string // Combined stdout/stderr output
	Err    error  // Underlying error
}

func (e *RepoError) Error() string {
	msg := e.Op
	if e.Branch != "" {
		msg += " " + e.Branch
	}
	if e.Output != "" {
		return msg + ": " + e.Output
	}
	return msg + ": " + e.Err.Error()
}

func (e *RepoError) Unwrap() error {
	return e.Err
}

// IsRepoAccess reports whether err is a structural repository access
// failure (invalid path or unresolvable branch).
func IsRepoAccess(err error) bool {
	var re *RepoError
	return errors.As(err, &re) || errors.Is(err, ErrNotGitRepo) || errors.Is(err, ErrBranchNotFound)
}
