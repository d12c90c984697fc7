package agent

import (
	"os/exec"
	"sync"
	"time"
)

// Job is a single spawned child process and its supervision state. A Job is
// always owned by exactly one Table at a time.
type Job struct {
	// ID is the opaque job identifier, unique within this agent's table.
	ID string
	// Cmd is the ordered argument list the child was launched with.
	Cmd []string
	// Cwd is the optional working directory the child was launched in.
	Cwd string
	// StartTS is the wall-clock instant the child was spawned.
	StartTS time.Time
	// StdoutLog and StderrLog are the optional log sink paths.
	StdoutLog string
	StderrLog string

	exec *exec.Cmd

	// sampleMu guards every field below. It is taken only briefly (the
	// table may take it while holding the table mutex, e.g. in Prune and
	// closeLogs), and never held across a process-termination wait.
	sampleMu sync.Mutex

	lastCPUActiveTS time.Time
	cpuPercent      float64
	memMB           float64
	isHung          bool

	// exitCode is nil until the child has been reaped.
	exitCode *int
	// reapedUnknown is set if the pid vanished from the OS process table
	// before the child was reaped via Wait.
	reapedUnknown bool

	stdoutFile, stderrFile closer

	waitOnce sync.Once
}

// closer is satisfied by *os.File; kept as an interface so tests can inject
// fakes without touching the filesystem.
type closer interface {
	Close() error
}

// newJob constructs a Job record around an already-started exec.Cmd.
func newJob(id string, cmd []string, cwd string, ec *exec.Cmd, stdoutLog, stderrLog string, stdoutFile, stderrFile closer) *Job {
	now := time.Now()
	return &Job{
		ID:              id,
		Cmd:             cmd,
		Cwd:             cwd,
		StartTS:         now,
		StdoutLog:       stdoutLog,
		StderrLog:       stderrLog,
		exec:            ec,
		lastCPUActiveTS: now,
		stdoutFile:      stdoutFile,
		stderrFile:      stderrFile,
	}
}

// Pid returns the direct child's OS process id.
func (j *Job) Pid() int {
	if j.exec == nil || j.exec.Process == nil {
		return 0
	}
	return j.exec.Process.Pid
}

// ExitCode returns the reaped exit code and whether the child has been
// reaped at all.
func (j *Job) ExitCode() (int, bool) {
	j.sampleMu.Lock()
	defer j.sampleMu.Unlock()
	if j.exitCode == nil {
		return 0, false
	}
	return *j.exitCode, true
}

// reapAsync waits for the child in the background and records its exit
// code. Safe to call multiple times; only the first call performs the wait.
func (j *Job) reapAsync() {
	j.waitOnce.Do(func() {
		go func() {
			err := j.exec.Wait()
			code := exitCodeFromError(j.exec, err)
			j.sampleMu.Lock()
			j.exitCode = &code
			j.sampleMu.Unlock()
		}()
	})
}

func exitCodeFromError(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return 0
	}
	return -1
}

// closeLogs releases the Job's log file handles exactly once. Safe to call
// multiple times.
func (j *Job) closeLogs() {
	j.sampleMu.Lock()
	stdout, stderr := j.stdoutFile, j.stderrFile
	j.stdoutFile, j.stderrFile = nil, nil
	j.sampleMu.Unlock()

	if stdout != nil {
		_ = stdout.Close()
	}
	if stderr != nil {
		_ = stderr.Close()
	}
}
