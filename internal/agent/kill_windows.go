//go:build windows

package agent

import "golang.org/x/sys/windows"

// windowsKiller terminates processes via the Win32 TerminateProcess API.
// Windows has no SIGTERM equivalent, so both the "soft" and "hard" stages of
// the escalation in terminate.go call TerminateProcess; the two-stage wait
// is kept regardless, since a process can ignore neither stage but may take
// longer than the first wait to actually unwind (DLL unload, crash
// handlers, etc).
type windowsKiller struct{}

func newKiller() killer { return windowsKiller{} }

func (windowsKiller) Terminate(pid int) error { return terminateWindowsProcess(pid) }

func (windowsKiller) Kill(pid int) error { return terminateWindowsProcess(pid) }

func (windowsKiller) Exists(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == windows.STILL_ACTIVE
}

func terminateWindowsProcess(pid int) error {
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	return windows.TerminateProcess(h, 1)
}
