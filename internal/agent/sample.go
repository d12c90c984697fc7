package agent

import (
	"errors"
	"time"

	"github.com/wvlab/carla-orchestrator/internal/wire"
)

// ErrNoSuchProcess is returned by a sampler when the pid no longer exists in
// the OS process table.
var ErrNoSuchProcess = errors.New("no such process")

// sampler measures a single process's instantaneous CPU% (over a short
// window) and resident memory in MB. Platform-specific implementations live
// in sample_windows.go and sample_other.go.
type sampler interface {
	Sample(pid int) (cpuPercent, memMB float64, err error)
}

// snapshot produces the ProcInfo for j, taking a fresh sample. Only the
// per-job mutex is held during sampling; the table mutex must not be held
// by the caller.
func (j *Job) snapshot(cfg Config, smp sampler) wire.ProcInfo {
	j.sampleMu.Lock()
	defer j.sampleMu.Unlock()

	now := time.Now()

	cpu, mem, err := smp.Sample(j.Pid())
	if errors.Is(err, ErrNoSuchProcess) {
		return j.synthesizeLocked(now)
	}

	if cpu > cfg.HungCPUPercent {
		j.lastCPUActiveTS = now
	}
	j.cpuPercent = cpu
	j.memMB = mem
	hungElapsed := now.Sub(j.lastCPUActiveTS).Seconds()
	j.isHung = hungElapsed >= cfg.HungSecs

	status := wire.StatusRunning
	var returnCode *int
	if j.exitCode != nil {
		status = wire.StatusExited
		rc := *j.exitCode
		returnCode = &rc
	}

	return wire.ProcInfo{
		JobID:            j.ID,
		Pid:              j.Pid(),
		Status:           status,
		ReturnCode:       returnCode,
		StartTimeUTC:     j.StartTS.UTC().Format(time.RFC3339Nano),
		UptimeSec:        now.Sub(j.StartTS).Seconds(),
		CPUPercent:       j.cpuPercent,
		MemMB:            j.memMB,
		LastCPUActiveUTC: j.lastCPUActiveTS.UTC().Format(time.RFC3339Nano),
		IsHung:           j.isHung,
		Cmdline:          j.Cmd,
		Cwd:              j.Cwd,
		StdoutLog:        j.StdoutLog,
		StderrLog:        j.StderrLog,
	}
}

// synthesizeLocked builds a ProcInfo for a job whose pid has vanished from
// the OS process table. sampleMu must already be held by the caller.
func (j *Job) synthesizeLocked(now time.Time) wire.ProcInfo {
	status := wire.StatusUnknown
	var returnCode *int
	if j.exitCode != nil {
		status = wire.StatusExited
		rc := *j.exitCode
		returnCode = &rc
	} else {
		j.reapedUnknown = true
	}

	uptime := now.Sub(j.StartTS).Seconds()
	if uptime < 0 {
		uptime = 0
	}

	return wire.ProcInfo{
		JobID:            j.ID,
		Pid:              j.Pid(),
		Status:           status,
		ReturnCode:       returnCode,
		StartTimeUTC:     j.StartTS.UTC().Format(time.RFC3339Nano),
		UptimeSec:        uptime,
		CPUPercent:       0,
		MemMB:            0,
		LastCPUActiveUTC: j.lastCPUActiveTS.UTC().Format(time.RFC3339Nano),
		IsHung:           true,
		Cmdline:          j.Cmd,
		Cwd:              j.Cwd,
		StdoutLog:        j.StdoutLog,
		StderrLog:        j.StderrLog,
	}
}
