package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// ScriptRunner is a git.CommandRunner that answers commands from a
// scripted table instead of executing them. Keys are the full argument
// list joined with spaces (e.g. "rev-parse --git-dir").
type ScriptRunner struct {
	mu        sync.Mutex
	responses map[string]ScriptResponse
	calls     []string
}

// ScriptResponse is the scripted result for one command.
type ScriptResponse struct {
	Output string
	Err    error
}

// NewScriptRunner creates a runner with the given scripted responses.
func NewScriptRunner(responses map[string]ScriptResponse) *ScriptRunner {
	if responses == nil {
		responses = make(map[string]ScriptResponse)
	}
	return &ScriptRunner{responses: responses}
}

// On adds or replaces a scripted response.
func (r *ScriptRunner) On(args string, output string, err error) *ScriptRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[args] = ScriptResponse{Output: output, Err: err}
	return r
}

// Run implements git.CommandRunner.
func (r *ScriptRunner) Run(dir, name string, args ...string) (string, error) {
	key := strings.Join(args, " ")

	r.mu.Lock()
	r.calls = append(r.calls, key)
	resp, ok := r.responses[key]
	r.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("unscripted command: %s %s", name, key)
	}
	return resp.Output, resp.Err
}

// Calls returns the commands seen so far, in order.
func (r *ScriptRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
