//go:build unix

package predictor

import (
	"os/exec"
	"syscall"
)

// killProcessGroupOnCancel starts the tool in its own process group and makes cancellation kill the whole group, so
// that the workers a tool forks do not outlive it.
func killProcessGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
