//go:build !windows

package agent

import (
	"os"
	"syscall"
)

// genericKiller is the non-Windows fallback, used so this package builds
// and its non-OS-facing tests run on any developer machine. The agent's
// production target is Windows (§1).
type genericKiller struct{}

func newKiller() killer { return genericKiller{} }

func (genericKiller) Terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(syscall.SIGTERM)
}

func (genericKiller) Kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(syscall.SIGKILL)
}

func (genericKiller) Exists(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
