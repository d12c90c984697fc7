package controller

import (
	"fmt"
	"time"

	"github.com/wvlab/carla-orchestrator/internal/wire"
)

// PollInterval is the delay between successive /status polls while waiting
// for a job to finish.
const PollInterval = 1 * time.Second

// ExecResult is one client's terminal outcome from ExecAndWait: a reaped
// exit code; TimedOut set when the client never reported completion before
// the deadline; or a nil ReturnCode with TimedOut unset when the /start call
// to that client failed.
type ExecResult struct {
	Client     Client
	ReturnCode *int
	TimedOut   bool
}

// ExecAndWait starts payload on every client in inv, then polls each
// client's /status until the job with the generated job id reports
// "exited" or "unknown", or until timeout elapses. It mirrors the Python
// original's exec_and_wait: a client whose job never appears in a later
// /status poll is assumed to have exited immediately and is recorded as a
// success (returncode 0), since a just-started process commonly finishes
// and is reaped before the first poll lands.
func ExecAndWait(inv Inventory, jobID string, payload StartPayload, timeout time.Duration) []ExecResult {
	payload.JobID = jobID

	startResults := PostJSON(inv.Clients, inv.Token, "/start", payload)
	started := make(map[string]bool, len(startResults))
	done := make(map[string]ExecResult)
	for _, r := range startResults {
		started[r.Client.Name] = r.OK
		if r.OK {
			var resp wire.StartResponse
			_ = r.JSON(&resp)
			fanoutLogger.Infof("started job; client: %s, job_id: %s, pid: %d", r.Client.Name, jobID, resp.Pid)
		} else {
			fanoutLogger.Warnf("failed to start; client: %s, error: %v", r.Client.Name, r.Err)
			// A client that never started never reaches /status, so it would
			// otherwise vanish from the results entirely; record it as an
			// outright failure so the fleet-wide verdict reflects it (per the
			// "agent unreachable contributes to overall failure" rule).
			done[r.Client.Name] = ExecResult{Client: r.Client}
		}
	}

	fanoutLogger.Infof("waiting for jobs to complete; timeout: %s", timeout)

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		allDone := true

		statusResults := Get(inv.Clients, inv.Token, "/status")
		byName := make(map[string]Result, len(statusResults))
		for _, r := range statusResults {
			byName[r.Client.Name] = r
		}

		for _, c := range inv.Clients {
			if _, settled := done[c.Name]; settled {
				continue
			}
			if !started[c.Name] {
				continue
			}

			r, ok := byName[c.Name]
			if !ok || !r.OK {
				allDone = false
				continue
			}

			var jobs []wire.ProcInfo
			if err := r.JSON(&jobs); err != nil {
				allDone = false
				continue
			}

			found := false
			for _, j := range jobs {
				if j.JobID != jobID {
					continue
				}
				found = true
				if j.Status == wire.StatusExited || j.Status == wire.StatusUnknown {
					rc := 0
					if j.ReturnCode != nil {
						rc = *j.ReturnCode
					}
					done[c.Name] = ExecResult{Client: c, ReturnCode: &rc}
					fanoutLogger.Infof("completed; client: %s, returncode: %d, status: %s", c.Name, rc, j.Status)
				} else {
					allDone = false
				}
				break
			}
			if !found {
				rc := 0
				done[c.Name] = ExecResult{Client: c, ReturnCode: &rc}
				fanoutLogger.Infof("job not found in status, assuming immediate success; client: %s", c.Name)
			}
		}

		if allDone {
			break
		}
		time.Sleep(PollInterval)
	}

	out := make([]ExecResult, 0, len(inv.Clients))
	for _, c := range inv.Clients {
		if r, ok := done[c.Name]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, ExecResult{Client: c, TimedOut: true})
	}
	return out
}

// StartPayload is the controller-side mirror of wire.StartRequest, kept
// distinct so kill_existing is always sent, even when false. A nil Env is
// omitted from the JSON body.
type StartPayload struct {
	JobID        string            `json:"job_id,omitempty"`
	Cmd          []string          `json:"cmd"`
	Cwd          string            `json:"cwd,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	LogDir       string            `json:"log_dir,omitempty"`
	KillExisting bool              `json:"kill_existing"`
}

// Summarize prints the RESULTS block the original tool prints after
// ExecAndWait, and reports whether every client succeeded.
func Summarize(results []ExecResult) bool {
	fmt.Println("\n=== RESULTS ===")
	if len(results) == 0 {
		return false
	}

	allSuccess := true
	for _, r := range results {
		switch {
		case r.TimedOut:
			fmt.Printf("[%s] TIMEOUT\n", r.Client.Name)
			allSuccess = false
		case r.ReturnCode != nil && *r.ReturnCode == 0:
			fmt.Printf("[%s] SUCCESS (returncode 0)\n", r.Client.Name)
		default:
			rc := -1
			if r.ReturnCode != nil {
				rc = *r.ReturnCode
			}
			fmt.Printf("[%s] FAILED (returncode %d)\n", r.Client.Name, rc)
			allSuccess = false
		}
	}
	return allSuccess
}
