package agent

import (
	"os"
	"time"

	"github.com/wvlab/carla-orchestrator/internal/agent/family"
	"github.com/wvlab/carla-orchestrator/internal/log"
	"github.com/wvlab/carla-orchestrator/internal/wire"
)

// killer terminates individual OS processes by pid. Platform-specific
// implementations live in kill_windows.go / kill_other.go.
type killer interface {
	Terminate(pid int) error
	Kill(pid int) error
	Exists(pid int) bool
}

var terminateLogger = log.New(os.Stdout, "terminate")

const (
	softWait = 5 * time.Second
	hardWait = 5 * time.Second
	pollStep = 100 * time.Millisecond
)

// terminateSet applies the soft->hard escalation described in §4.1 to every
// pid in set. mode "term" only sends the soft signal; "kill" and
// "tree_kill" escalate to a hard kill if any process survives the soft
// wait. It returns true iff every process in the set is confirmed gone.
//
// Access-denied and no-such-process errors for an individual pid are
// logged at warn level (naming the pid) and do not stop termination of the
// remaining processes in the set.
func terminateSet(set map[int]family.ProcessInfo, mode string, k killer) bool {
	pids := make([]int, 0, len(set))
	for pid := range set {
		pids = append(pids, pid)
	}

	for _, pid := range pids {
		if err := k.Terminate(pid); err != nil {
			terminateLogger.Warnf("soft terminate failed; pid: %d, error: %v", pid, err)
		}
	}

	survivors := waitGone(pids, k, softWait)
	if len(survivors) == 0 {
		return true
	}

	if mode != wire.ModeKill && mode != wire.ModeTreeKill {
		terminateLogger.Warnf("process(es) survived term: %v", survivors)
		return false
	}

	for _, pid := range survivors {
		if err := k.Kill(pid); err != nil {
			terminateLogger.Warnf("hard kill failed; pid: %d, error: %v", pid, err)
		}
	}

	survivors = waitGone(survivors, k, hardWait)
	if len(survivors) == 0 {
		return true
	}

	terminateLogger.Warnf("process(es) survived tree_kill: %v", survivors)
	return false
}

// waitGone polls k.Exists for every pid in pids until none remain or
// timeout elapses, returning the pids still alive.
func waitGone(pids []int, k killer, timeout time.Duration) []int {
	deadline := time.Now().Add(timeout)
	remaining := pids
	for {
		var alive []int
		for _, pid := range remaining {
			if k.Exists(pid) {
				alive = append(alive, pid)
			}
		}
		remaining = alive
		if len(remaining) == 0 || time.Now().After(deadline) {
			return remaining
		}
		time.Sleep(pollStep)
	}
}
