// Package sandbox runs untrusted Python code in a throwaway subprocess and
// turns what it produced into a Markdown report.
//
// Isolation is OS-process level only: every execution gets its own temporary
// working directory that is removed afterwards, but the executed code runs with
// the permissions of the server process (network, filesystem outside the
// workspace, and so on).
package sandbox

import (
	"context"
	"time"
)

// DefaultTimeoutSeconds is applied when a caller does not pass a timeout.
const DefaultTimeoutSeconds = 12

// ExecOpts describes a code execution request.
type ExecOpts struct {
	Code           string // Python source, appended verbatim after the preamble
	TimeoutSeconds int    // wall-clock limit, not validated
}

// Artifact is an image file found in the workspace after execution.
type Artifact struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ExecResult is the output of a sandboxed execution.
type ExecResult struct {
	Stdout         string
	Stderr         string
	ExitCode       int
	TimedOut       bool
	TimeoutSeconds int
	Artifacts      []Artifact
	Duration       time.Duration
}

// OK reports whether the code ran to completion with exit code 0.
func (r *ExecResult) OK() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Report renders the result as the text returned to callers.
func (r *ExecResult) Report() string {
	if r.TimedOut {
		return TimeoutMessage(r.TimeoutSeconds)
	}
	return Assemble(r.Stdout, r.Stderr, r.Artifacts)
}

// Sandbox runs code in an isolated environment.
type Sandbox interface {
	Exec(ctx context.Context, opts ExecOpts) (*ExecResult, error)
}
