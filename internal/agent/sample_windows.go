//go:build windows

package agent

import (
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// sampleWindow is the measurement window used for the CPU% sample, matching
// the original implementation's ~100ms window.
const sampleWindow = 100 * time.Millisecond

// windowsSampler measures CPU% and resident memory via the Win32 process
// APIs: GetProcessTimes for CPU and K32GetProcessMemoryInfo for memory.
type windowsSampler struct{}

func newSampler() sampler { return windowsSampler{} }

func (windowsSampler) Sample(pid int) (cpuPercent, memMB float64, err error) {
	if pid <= 0 {
		return 0, 0, ErrNoSuchProcess
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION|windows.PROCESS_VM_READ, false, uint32(pid))
	if err != nil {
		return 0, 0, ErrNoSuchProcess
	}
	defer windows.CloseHandle(h)

	cpu0, err := cumulativeCPUTime(h)
	if err != nil {
		return 0, 0, ErrNoSuchProcess
	}
	time.Sleep(sampleWindow)
	cpu1, err := cumulativeCPUTime(h)
	if err != nil {
		return 0, 0, ErrNoSuchProcess
	}

	mem, err := residentMemoryMB(h)
	if err != nil {
		return 0, 0, ErrNoSuchProcess
	}

	elapsed := cpu1 - cpu0
	pct := elapsed.Seconds() / sampleWindow.Seconds() * 100.0 / float64(runtime.NumCPU())
	if pct < 0 {
		pct = 0
	}
	return pct, mem, nil
}

// cumulativeCPUTime returns the total (kernel + user) CPU time the process
// has consumed since creation.
func cumulativeCPUTime(h windows.Handle) (time.Duration, error) {
	var creation, exit, kernel, user windows.Filetime
	if err := windows.GetProcessTimes(h, &creation, &exit, &kernel, &user); err != nil {
		return 0, err
	}
	return filetimeToDuration(kernel) + filetimeToDuration(user), nil
}

func filetimeToDuration(ft windows.Filetime) time.Duration {
	// Filetime ticks are 100ns intervals.
	ticks := int64(ft.HighDateTime)<<32 | int64(ft.LowDateTime)
	return time.Duration(ticks * 100)
}

// residentMemoryMB returns the process's working set size in megabytes.
func residentMemoryMB(h windows.Handle) (float64, error) {
	var counters windows.PROCESS_MEMORY_COUNTERS
	if err := windows.GetProcessMemoryInfo(h, &counters, uint32(unsafe.Sizeof(counters))); err != nil {
		return 0, err
	}
	return float64(counters.WorkingSetSize) / (1024 * 1024), nil
}
