//go:build unix

package exec

import (
	osexec "os/exec"
	"syscall"
)

// setProcessGroup places the child in its own process group so terminate can
// reach the tool and anything it spawned.
func setProcessGroup(cmd *osexec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate kills the child's entire process group.
func terminate(cmd *osexec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err == syscall.ESRCH {
		return nil
	}
	return err
}
