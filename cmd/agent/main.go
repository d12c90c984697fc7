// Command carla-agent is the per-host supervisor binary.
package main

import (
	"os"

	"github.com/wvlab/carla-orchestrator/internal/agent/cli"
)

func main() {
	os.Exit(cli.Run())
}
