//go:build !windows

package agent

import (
	"os"
	"syscall"
)

// genericSampler is the non-Windows fallback. The production target for
// this agent is always Windows (§1); this implementation exists solely so
// the package builds and its unit tests run on a developer's non-Windows
// machine. It reports liveness only, with zeroed CPU/memory.
type genericSampler struct{}

func newSampler() sampler { return genericSampler{} }

func (genericSampler) Sample(pid int) (cpuPercent, memMB float64, err error) {
	if pid <= 0 {
		return 0, 0, ErrNoSuchProcess
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, 0, ErrNoSuchProcess
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, 0, ErrNoSuchProcess
	}
	return 0, 0, nil
}
