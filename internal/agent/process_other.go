//go:build !windows

package agent

import (
	"os/exec"
	"syscall"
)

// applyCreationFlags is the non-Windows fallback, used only so this package
// builds on a non-Windows developer machine. The agent's production target
// is Windows (§1); on POSIX this sets a new process group so the direct
// child can still be addressed as a unit, which is the closest POSIX
// analogue of the Windows creation-flag behavior.
func applyCreationFlags(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}
