// Package cli defines the agent's command-line entrypoint.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wvlab/carla-orchestrator/internal/agent"
	"github.com/wvlab/carla-orchestrator/internal/log"
)

var (
	addrFlag = flag.String("addr", "", "address to serve the agent API on (overrides CARLA_AGENT_ADDR env)")
)

const (
	ecSuccess = iota
	// ecUnrecognized indicates the subcommand was not recognized.
	ecUnrecognized
	// ecListen indicates the agent API was unable to listen.
	ecListen
	// ecServe indicates the agent API was unable to serve its content.
	ecServe
)

const serveSub = "serve"

var logger = log.New(os.Stdout, "cli")

// Run is the entrypoint of the agent CLI.
func Run() int {
	flag.Parse()

	if len(os.Args) < 2 {
		return help("Too few arguments")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch v := os.Args[len(os.Args)-1]; v {
	case serveSub:
		return runServe(ctx)
	default:
		return help(fmt.Sprintf("Unrecognized subcommand \"%s\".", v))
	}
}

func help(text string) int {
	var b strings.Builder
	if text != "" {
		_, _ = b.WriteString(fmt.Sprintf("\nNotice: %s", text))
	}

	b.WriteString(
		`

carla-agent runs the per-host supervisor: an HTTP API that starts, stops,
and inspects simulator client jobs on this workstation.

Usage:
  carla-agent [global flags] command

Available Commands:
  serve       Serve the agent API.

Global Flags:
  -addr       address to serve the agent API on (default 0.0.0.0:8081)

Environment:
  CARLA_AGENT_TOKEN             shared bearer token ("change-me" disables auth)
  CARLA_AGENT_METRICS_INTERVAL  pruner tick period, seconds (default 2)
  CARLA_AGENT_HUNG_CPU_PCT      CPU% at or below which a sample counts as idle (default 1)
  CARLA_AGENT_HUNG_SECS         idle duration before a job is flagged hung (default 30)
`)
	fmt.Fprint(os.Stdout, b.String())
	return ecUnrecognized
}

func runServe(ctx context.Context) int {
	cfg := agent.DefaultConfig()
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if cfg.AuthDisabled() {
		logger.Warnf("CARLA_AGENT_TOKEN unset or \"change-me\"; serving without authentication")
	}

	table := agent.NewTable(cfg)
	go agent.RunPruner(ctx, table, cfg)

	srv := agent.NewServer(cfg, table)
	logger.Infof("listening; addr: %s", cfg.Addr)
	if err := serveHTTP(cfg.Addr, srv); err != nil {
		logger.Errorf("serve; error: %v", err)
		return ecServe
	}
	return ecSuccess
}
