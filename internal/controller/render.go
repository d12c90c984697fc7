package controller

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wvlab/carla-orchestrator/internal/wire"
)

// statusRow is one printable line of the status table: a job on a client,
// or a placeholder row when a client is idle or unreachable.
type statusRow struct {
	client string
	jobID  string
	pid    string
	status string
	cpu    string
	mem    string
	hung   string
}

// RenderStatus fetches /status from every client and prints the aggregate
// table, sorted by (client, job_id) the way the original tool sorts its
// tuple rows.
func RenderStatus(inv Inventory) {
	results := Get(inv.Clients, inv.Token, "/status")

	var rows []statusRow
	for _, r := range results {
		if !r.OK {
			rows = append(rows, statusRow{client: r.Client.Name, jobID: "-", pid: "-", status: "unreachable", cpu: "-", mem: "-", hung: "-"})
			continue
		}

		var jobs []wire.ProcInfo
		if err := r.JSON(&jobs); err != nil {
			rows = append(rows, statusRow{client: r.Client.Name, jobID: "-", pid: "-", status: "unreachable", cpu: "-", mem: "-", hung: "-"})
			continue
		}

		if len(jobs) == 0 {
			rows = append(rows, statusRow{client: r.Client.Name, jobID: "(no jobs)", pid: "-", status: "idle", cpu: "-", mem: "-", hung: "-"})
			continue
		}

		for _, j := range jobs {
			rows = append(rows, statusRow{
				client: r.Client.Name,
				jobID:  j.JobID,
				pid:    fmt.Sprintf("%d", j.Pid),
				status: j.Status,
				cpu:    fmt.Sprintf("%.1f", j.CPUPercent),
				mem:    fmt.Sprintf("%.1f", j.MemMB),
				hung:   fmt.Sprintf("%t", j.IsHung),
			})
		}
	}

	sort.Slice(rows, func(i, k int) bool {
		if rows[i].client != rows[k].client {
			return rows[i].client < rows[k].client
		}
		return rows[i].jobID < rows[k].jobID
	})

	fmt.Println("\nNAME | JOB_ID | PID | STATUS | CPU% | MEM(MB) | HUNG")
	fmt.Println(strings.Repeat("-", 72))
	for _, row := range rows {
		fmt.Printf("%-12s %-36s %-6s %-10s %-6s %-8s %s\n", row.client, row.jobID, row.pid, row.status, row.cpu, row.mem, row.hung)
	}
}
