// Package agent implements the per-host supervisor: an in-memory job table,
// an HTTP API for starting/stopping/inspecting jobs, CPU-activity based
// hang detection, and tree-kill termination.
package agent

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wvlab/carla-orchestrator/internal/agent/family"
	ierrors "github.com/wvlab/carla-orchestrator/internal/errors"
	"github.com/wvlab/carla-orchestrator/internal/log"
	"github.com/wvlab/carla-orchestrator/internal/validator"
	"github.com/wvlab/carla-orchestrator/internal/wire"
)

// Sentinel errors returned by Table methods; the HTTP layer maps these to
// specific status codes. A request-validation failure is reported via
// validator.ErrInvalidInput rather than a locally defined sentinel.
var (
	ErrDuplicateJobID = errors.New("job_id already exists")
	ErrJobNotFound    = errors.New("job_id not found")
)

var tableLogger = log.New(os.Stdout, "agent")

// Table is the agent-wide job table: the single shared mutable structure
// owned by a Server instance. The table mutex is held only for table
// mutations (insert, lookup-and-remove, snapshot iteration); it is never
// held during sampling. The only process-termination wait made under it is
// the kill_existing path of Start (see resolveSlot).
type Table struct {
	cfg Config

	mu   sync.Mutex
	jobs map[string]*Job

	smp  sampler
	klr  killer
	snap family.Snapshot
}

// NewTable constructs an empty job table for the given configuration.
func NewTable(cfg Config) *Table {
	return &Table{
		cfg:  cfg,
		jobs: make(map[string]*Job),
		smp:  newSampler(),
		klr:  newKiller(),
		snap: family.NewOSSnapshot(),
	}
}

// Health reports the current job count, including exited-but-unpruned jobs.
func (t *Table) Health() wire.HealthResponse {
	t.mu.Lock()
	n := len(t.jobs)
	t.mu.Unlock()

	return wire.HealthResponse{
		Status:  "ok",
		TimeUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Jobs:    n,
	}
}

// Start implements the full /start spawn protocol described in §4.1.
func (t *Table) Start(req wire.StartRequest) (wire.StartResponse, error) {
	v := validator.New()
	v.Assert(len(req.Cmd) > 0, "cmd must be non-empty")
	v.AssertFunc(func() bool { return len(req.Cmd) == 0 || req.Cmd[0] != "" }, "cmd[0] must be non-empty")
	if err := v.Err(); err != nil {
		return wire.StartResponse{}, err
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	if err := t.resolveSlot(jobID, req.KillExisting); err != nil {
		return wire.StartResponse{}, err
	}

	logPaths, stdoutFile, stderrFile, err := openLogs(req.LogDir, jobID)
	if err != nil {
		return wire.StartResponse{}, err
	}

	cmd := exec.Command(req.Cmd[0], req.Cmd[1:]...)
	cmd.Dir = req.Cwd
	cmd.Env = buildChildEnv(req.Env)
	if stdoutFile != nil {
		cmd.Stdout = stdoutFile
	}
	if stderrFile != nil {
		cmd.Stderr = stderrFile
	}
	applyCreationFlags(cmd)

	if err := cmd.Start(); err != nil {
		closeOpened(stdoutFile, stderrFile)
		return wire.StartResponse{}, fmt.Errorf("start child process: %w", err)
	}

	job := newJob(jobID, req.Cmd, req.Cwd, cmd, logPaths[0], logPaths[1], fileCloser(stdoutFile), fileCloser(stderrFile))
	job.reapAsync()

	t.mu.Lock()
	if _, exists := t.jobs[jobID]; exists {
		t.mu.Unlock()
		// Lost a race with a concurrent /start for the same job_id between
		// resolveSlot and this insert; kill what we just spawned rather than
		// leaking it, and report the duplicate as usual.
		t.killJob(job, wire.ModeTreeKill)
		return wire.StartResponse{}, ErrDuplicateJobID
	}
	t.jobs[jobID] = job
	t.mu.Unlock()

	return wire.StartResponse{
		JobID:     jobID,
		Pid:       job.Pid(),
		StdoutLog: logPaths[0],
		StderrLog: logPaths[1],
	}, nil
}

// resolveSlot ensures jobID is free for a new Job. If it is occupied and
// killExisting is false, ErrDuplicateJobID is returned. If occupied and
// killExisting is true, the existing Job is fully terminated (including log
// handle release) under the table lock, and resolveSlot then polls for up
// to 15s (outside the table lock) for the old pid to vanish.
func (t *Table) resolveSlot(jobID string, killExisting bool) error {
	t.mu.Lock()
	existing, ok := t.jobs[jobID]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	if !killExisting {
		t.mu.Unlock()
		return ErrDuplicateJobID
	}

	delete(t.jobs, jobID)
	oldPid := existing.Pid()
	set, err := family.Find(oldPid, existing.StartTS, family.DefaultNamePatterns, family.DefaultWindow, t.snap)
	if err != nil {
		tableLogger.Warnf("family scan incomplete, proceeding best-effort; job_id: %s, error: %v", jobID, ierrors.Wrap(err))
	}
	terminateSet(set, wire.ModeTreeKill, t.klr)
	existing.closeLogs()
	t.mu.Unlock()

	deadline := time.Now().Add(15 * time.Second)
	for t.klr.Exists(oldPid) {
		if time.Now().After(deadline) {
			tableLogger.Warnf("old job %s pid %d still exists after 15s", jobID, oldPid)
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil
}

// Stop implements POST /stop: terminate a single job by id.
func (t *Table) Stop(jobID, mode string) error {
	if mode == "" {
		mode = wire.ModeTerm
	}

	t.mu.Lock()
	job, ok := t.jobs[jobID]
	t.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}

	t.killJob(job, mode)
	return nil
}

// StopAll implements POST /stop_all: terminate every live job. The table
// lock is held only to snapshot the live Jobs; termination (which may wait
// up to ~10s per job) happens after the lock is released.
func (t *Table) StopAll(mode string) {
	if mode == "" {
		mode = wire.ModeTreeKill
	}

	t.mu.Lock()
	live := make([]*Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		live = append(live, j)
	}
	t.mu.Unlock()

	for _, j := range live {
		t.killJob(j, mode)
	}
}

// killJob computes j's full process family and runs the termination
// escalation against it, releasing j's log handles exactly once regardless
// of outcome.
func (t *Table) killJob(j *Job, mode string) bool {
	set, err := family.Find(j.Pid(), j.StartTS, family.DefaultNamePatterns, family.DefaultWindow, t.snap)
	if err != nil {
		tableLogger.Warnf("family scan incomplete, proceeding best-effort; job_id: %s, error: %v", j.ID, ierrors.Wrap(err))
	}
	ok := terminateSet(set, mode, t.klr)
	j.closeLogs()
	return ok
}

// Status implements GET /status: a fresh sample for every live job. Only
// each Job's own mutex is held during sampling; the table mutex guards only
// the snapshot-iteration step.
func (t *Table) Status() []wire.ProcInfo {
	t.mu.Lock()
	jobs := make([]*Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		jobs = append(jobs, j)
	}
	t.mu.Unlock()

	out := make([]wire.ProcInfo, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.snapshot(t.cfg, t.smp))
	}
	return out
}

// Prune removes jobs whose child has exited and whose StartTS is more than
// an hour old, releasing their log handles. Intended to be called
// periodically by a background loop (see pruner.go).
func (t *Table) Prune() {
	cutoff := time.Now().Add(-time.Hour)

	t.mu.Lock()
	var doomed []*Job
	for id, j := range t.jobs {
		if _, reaped := j.ExitCode(); reaped && j.StartTS.Before(cutoff) {
			doomed = append(doomed, j)
			delete(t.jobs, id)
		}
	}
	t.mu.Unlock()

	for _, j := range doomed {
		j.closeLogs()
	}
}

// fileCloser adapts a possibly-nil *os.File to the closer interface without
// ending up as a non-nil interface wrapping a nil pointer.
func fileCloser(f *os.File) closer {
	if f == nil {
		return nil
	}
	return f
}
