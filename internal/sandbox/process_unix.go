//go:build unix

package sandbox

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the interpreter in its own process group so a
// timeout kills anything it spawned, not just the interpreter.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
