package git

import (
	"errors"
	"os/exec"
	"strings"
)

// CommandRunner executes commands in a working directory and returns
// trimmed stdout. Implementations must be safe for concurrent use.
type CommandRunner interface {
	Run(dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates the default command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns trimmed stdout.
// On failure the error message includes stderr so callers can match
// on git's diagnostics.
func (r *ExecRunner) Run(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return strings.TrimSpace(stdout.String()), errors.New(msg)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}
