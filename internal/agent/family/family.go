// Package family discovers the full set of OS processes related to a
// spawned job: its direct child, every descendant reachable by walking the
// parent-pid relation, and any process that looks like a detached simulator
// engine launched within a time window around the job's start.
//
// Find is deliberately decoupled from any live OS process table so it can
// be exercised against a fixed ProcessInfo slice in tests.
package family

import (
	"strings"
	"time"
)

// ProcessInfo is the subset of OS process-table fields the family scan
// needs. Platform-specific snapshot implementations populate this from
// Win32 Toolhelp32 APIs.
type ProcessInfo struct {
	Pid        int
	PPid       int
	Name       string
	Exe        string
	CreateTime time.Time
}

// Snapshot returns the current full OS process table. Implementations may
// fail partway through enumeration (e.g. a process exits mid-walk); callers
// should treat a returned error as "best effort" rather than fatal.
type Snapshot interface {
	Processes() ([]ProcessInfo, error)
}

// DefaultNamePatterns are the case-insensitive substrings (matched against
// both a process's image name and its full executable path) that identify
// a detached simulator engine process.
var DefaultNamePatterns = []string{"carlaue4", "bootstrappackagedgame", "ue4editor"}

// Window is the time window, relative to a job's start timestamp, within
// which a name-matching process is considered related to that job.
type Window struct {
	Before time.Duration // how far before StartTS a match may have been created
	After  time.Duration // how far after StartTS a match may have been created
}

// DefaultWindow is the [-5s, +60s] window used by the agent's kill path.
var DefaultWindow = Window{Before: 5 * time.Second, After: 60 * time.Second}

// Find returns the set of pids related to rootPid: rootPid itself, every
// descendant reachable by recursively walking the parent-pid relation, and
// any process in the snapshot whose name or exe path contains one of
// namePatterns (case-insensitive) and whose CreateTime falls within
// [startTS-window.Before, startTS+window.After].
func Find(rootPid int, startTS time.Time, namePatterns []string, window Window, snap Snapshot) (map[int]ProcessInfo, error) {
	procs, err := snap.Processes()
	if err != nil && len(procs) == 0 {
		return nil, err
	}

	byPid := make(map[int]ProcessInfo, len(procs))
	childrenOf := make(map[int][]int)
	for _, p := range procs {
		byPid[p.Pid] = p
		childrenOf[p.PPid] = append(childrenOf[p.PPid], p.Pid)
	}

	result := make(map[int]ProcessInfo)
	if root, ok := byPid[rootPid]; ok {
		result[rootPid] = root
	} else {
		result[rootPid] = ProcessInfo{Pid: rootPid}
	}

	var walk func(pid int)
	walk = func(pid int) {
		for _, child := range childrenOf[pid] {
			if _, seen := result[child]; seen {
				continue
			}
			result[child] = byPid[child]
			walk(child)
		}
	}
	walk(rootPid)

	lower := make([]string, len(namePatterns))
	for i, p := range namePatterns {
		lower[i] = strings.ToLower(p)
	}

	windowStart := startTS.Add(-window.Before)
	windowEnd := startTS.Add(window.After)

	for _, p := range procs {
		if _, already := result[p.Pid]; already {
			continue
		}
		if !matchesAny(p, lower) {
			continue
		}
		if p.CreateTime.Before(windowStart) || p.CreateTime.After(windowEnd) {
			continue
		}
		result[p.Pid] = p
	}

	return result, err
}

func matchesAny(p ProcessInfo, lowerPatterns []string) bool {
	name := strings.ToLower(p.Name)
	exe := strings.ToLower(p.Exe)
	for _, pat := range lowerPatterns {
		if strings.Contains(name, pat) || strings.Contains(exe, pat) {
			return true
		}
	}
	return false
}
