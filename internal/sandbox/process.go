package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ProcessSandbox runs code in a local interpreter subprocess.
type ProcessSandbox struct {
	Policy   Policy
	preamble string
}

// NewProcessSandbox creates a sandbox with the given policy.
func NewProcessSandbox(policy Policy) (*ProcessSandbox, error) {
	preamble, err := Preamble(policy.Plot)
	if err != nil {
		return nil, err
	}
	return &ProcessSandbox{Policy: policy, preamble: preamble}, nil
}

func (p *ProcessSandbox) Exec(ctx context.Context, opts ExecOpts) (*ExecResult, error) {
	// Create the workspace; it is the subprocess cwd and the only place
	// artifacts are collected from.
	tmpDir, err := os.MkdirTemp(p.Policy.TempDir, p.Policy.WorkspacePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	scriptName := p.Policy.ScriptName
	if scriptName == "" {
		scriptName = "main.py"
	}
	scriptPath := filepath.Join(tmpDir, scriptName)
	if err := os.WriteFile(scriptPath, []byte(ComposeScript(p.preamble, opts.Code)), 0o644); err != nil {
		return nil, fmt.Errorf("writing script: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeoutDuration(opts.TimeoutSeconds))
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.Policy.Python, scriptPath)
	cmd.Dir = tmpDir
	cmd.Env = p.environ()
	cmd.WaitDelay = p.Policy.KillGrace
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	if deadlineKilled(err, runCtx, ctx) {
		return &ExecResult{
			ExitCode:       -1,
			TimedOut:       true,
			TimeoutSeconds: opts.TimeoutSeconds,
			Duration:       duration,
		}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrWaitDelay):
			// Exited cleanly but a child kept the output pipes open.
		default:
			return nil, fmt.Errorf("running %s: %w", p.Policy.Python, err)
		}
	}

	artifacts, err := collectArtifacts(tmpDir, p.Policy)
	if err != nil {
		return nil, err
	}

	return &ExecResult{
		Stdout:         stdout.String(),
		Stderr:         stderr.String(),
		ExitCode:       exitCode,
		TimeoutSeconds: opts.TimeoutSeconds,
		Artifacts:      artifacts,
		Duration:       duration,
	}, nil
}

func (p *ProcessSandbox) environ() []string {
	env := os.Environ()
	env = append(env, "PYTHONIOENCODING=utf-8")
	if p.Policy.Plot.Backend != "" {
		env = append(env, "MPLBACKEND="+p.Policy.Plot.Backend)
	}
	for k, v := range p.Policy.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// deadlineKilled reports whether the run ended because the timeout fired. The
// deadline takes precedence over whatever error the killed process produced,
// but a process that exited cleanly before the check is not a timeout.
func deadlineKilled(runErr error, runCtx, parent context.Context) bool {
	return runErr != nil &&
		errors.Is(runCtx.Err(), context.DeadlineExceeded) &&
		parent.Err() == nil
}

// timeoutDuration converts seconds without validating them. Non-positive
// values give an already expired deadline; huge values saturate.
func timeoutDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	if int64(seconds) > math.MaxInt64/int64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds) * time.Second
}
