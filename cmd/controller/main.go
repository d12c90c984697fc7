// Command carla-controller drives a fleet of carla-agent instances from a
// single operator machine.
package main

import (
	"os"

	"github.com/wvlab/carla-orchestrator/internal/controller"
)

func main() {
	if err := controller.Run(); err != nil {
		os.Exit(1)
	}
}
