package agent

import (
	"os"
	"testing"
	"time"

	"github.com/wvlab/carla-orchestrator/internal/wire"
)

// TestHelperProcess isn't a real test; it's re-executed as a child process by
// tests that need something to actually spawn and supervise. The pattern
// mirrors the standard library's own os/exec tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("CARLA_WANT_HELPER_PROCESS") != "1" {
		return
	}
	time.Sleep(2 * time.Second)
	os.Exit(0)
}

func helperCmd() []string {
	return []string{os.Args[0], "-test.run=TestHelperProcess"}
}

func newTestTable() *Table {
	cfg := Config{
		Token:           defaultToken,
		MetricsInterval: 2,
		HungCPUPercent:  1.0,
		HungSecs:        30,
	}
	return NewTable(cfg)
}

func TestTableStartAndStop(t *testing.T) {
	tbl := newTestTable()

	req := wire.StartRequest{JobID: "job-a", Cmd: helperCmd(), Env: map[string]string{"CARLA_WANT_HELPER_PROCESS": "1"}}
	resp, err := tbl.Start(req)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.JobID != "job-a" || resp.Pid == 0 {
		t.Fatalf("unexpected start response: %+v", resp)
	}

	if err := tbl.Stop("job-a", wire.ModeKill); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestTableStartEmptyCmdRejected(t *testing.T) {
	tbl := newTestTable()

	_, err := tbl.Start(wire.StartRequest{Cmd: nil})
	if err == nil {
		t.Fatalf("expected error for empty cmd")
	}
}

func TestTableStartDuplicateWithoutKillExisting(t *testing.T) {
	tbl := newTestTable()

	req := wire.StartRequest{JobID: "job-b", Cmd: helperCmd(), Env: map[string]string{"CARLA_WANT_HELPER_PROCESS": "1"}}
	if _, err := tbl.Start(req); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer tbl.Stop("job-b", wire.ModeKill)

	_, err := tbl.Start(req)
	if err != ErrDuplicateJobID {
		t.Fatalf("second Start error = %v, want ErrDuplicateJobID", err)
	}
}

func TestTableStopUnknownJob(t *testing.T) {
	tbl := newTestTable()
	if err := tbl.Stop("nope", wire.ModeTerm); err != ErrJobNotFound {
		t.Fatalf("Stop error = %v, want ErrJobNotFound", err)
	}
}

func TestTableHealthReportsJobCount(t *testing.T) {
	tbl := newTestTable()
	req := wire.StartRequest{JobID: "job-c", Cmd: helperCmd(), Env: map[string]string{"CARLA_WANT_HELPER_PROCESS": "1"}}
	if _, err := tbl.Start(req); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer tbl.Stop("job-c", wire.ModeKill)

	h := tbl.Health()
	if h.Jobs != 1 {
		t.Errorf("Jobs = %d, want 1", h.Jobs)
	}
	if h.Status != "ok" {
		t.Errorf("Status = %q, want ok", h.Status)
	}
}

func TestTableStopAllOnEmptyTableIsNoop(t *testing.T) {
	tbl := newTestTable()
	tbl.StopAll(wire.ModeTreeKill)
	if got := len(tbl.Status()); got != 0 {
		t.Errorf("Status() len = %d, want 0", got)
	}
}
