//go:build windows

package family

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// NewOSSnapshot returns a Snapshot that walks the live Windows process
// table via CreateToolhelp32Snapshot.
func NewOSSnapshot() Snapshot { return osSnapshot{} }

type osSnapshot struct{}

func (osSnapshot) Processes() ([]ProcessInfo, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var procs []ProcessInfo
	err = windows.Process32First(snap, &entry)
	for err == nil {
		name := windows.UTF16ToString(entry.ExeFile[:])
		pid := int(entry.ProcessID)

		info := ProcessInfo{
			Pid:  pid,
			PPid: int(entry.ParentProcessID),
			Name: name,
		}
		if exe, createTime, ferr := exeAndCreateTime(pid); ferr == nil {
			info.Exe = exe
			info.CreateTime = createTime
		}
		procs = append(procs, info)

		err = windows.Process32Next(snap, &entry)
	}

	return procs, nil
}

// exeAndCreateTime opens the process just long enough to read its image
// path and creation timestamp. Access-denied failures here are expected for
// processes owned by other users/sessions and are swallowed by the caller.
func exeAndCreateTime(pid int) (string, time.Time, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return "", time.Time{}, err
	}
	defer windows.CloseHandle(h)

	var exe string
	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err == nil {
		exe = windows.UTF16ToString(buf[:size])
	}

	var creation, exit, kernel, user windows.Filetime
	var createTime time.Time
	if err := windows.GetProcessTimes(h, &creation, &exit, &kernel, &user); err == nil {
		createTime = time.Unix(0, creation.Nanoseconds())
	}

	return exe, createTime, nil
}
