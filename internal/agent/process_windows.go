//go:build windows

package agent

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// applyCreationFlags configures cmd so its process gets its own process
// group (enabling the Toolhelp32-based family scan and targeted tree
// termination later) and never flashes a console window, matching the
// original agent's _windows_creationflags().
func applyCreationFlags(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW
}
