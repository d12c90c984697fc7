package controller

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// defaultLogDir matches the Windows path the agents are expected to write
// job logs under, regardless of the OS the controller itself runs on.
const defaultLogDir = "C:/wvlab/logs-orchestrator"

const defaultExecTimeout = 300 * time.Second

var (
	inventoryFlag string
	clientsFlag   string

	// argsRemainder holds everything the caller wrote after a literal
	// "--args" token, exactly as the original tool reads argparse.REMAINDER.
	// cobra has no REMAINDER equivalent, so Run splits os.Args by hand
	// before cobra ever sees them.
	argsRemainder []string
)

// NewRootCommand builds the controller's cobra command tree: start, stop,
// status, and exec, each fanning the requested operation out to every
// client in the inventory (or the --clients subset).
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "carla-controller",
		Short: "Control CARLA agents on the LAN",
	}
	root.PersistentFlags().StringVarP(&inventoryFlag, "inventory", "i", "inventory.yml", "Path to inventory YAML")

	root.AddCommand(newStartCommand())
	root.AddCommand(newStopCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newExecCommand())

	return root
}

// Run is the controller's entrypoint. It splits the process argument list on
// a literal "--args" token before handing the rest to cobra, since cobra has
// no equivalent of argparse's REMAINDER: everything after "--args" is taken
// verbatim as the executable's own arguments, including tokens that look
// like flags.
func Run() error {
	rawArgs := os.Args[1:]

	cobraArgs := rawArgs
	if i := indexOf(rawArgs, "--args"); i >= 0 {
		cobraArgs = rawArgs[:i]
		argsRemainder = append([]string{}, rawArgs[i+1:]...)
		warnStrayFlags(argsRemainder)
	}

	root := NewRootCommand()
	root.SetArgs(cobraArgs)
	return root.Execute()
}

func indexOf(haystack []string, needle string) int {
	for i, v := range haystack {
		if v == needle {
			return i
		}
	}
	return -1
}

func loadFilteredInventory() (Inventory, error) {
	inv, err := LoadInventory(inventoryFlag)
	if err != nil {
		return Inventory{}, err
	}
	return FilterClients(inv, clientsFlag), nil
}

// warnStrayFlags reproduces the original tool's guard against controller
// flags accidentally landing after "--args": anything starting with "--"
// in the remainder is almost certainly a misplaced flag rather than an
// intended executable argument.
func warnStrayFlags(args []string) {
	for _, a := range args {
		if strings.HasPrefix(a, "--") && a != "--help" && a != "-h" {
			fmt.Fprintf(os.Stderr, "WARNING: Flag '%s' appears after --args and will be passed to the executable as an argument.\n", a)
			fmt.Fprintf(os.Stderr, "         If this is a controller flag, move it before --args\n")
		}
	}
}

func newStartCommand() *cobra.Command {
	var (
		jobID   string
		exe     string
		cwd     string
		logDir  string
		wait    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a job on clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := loadFilteredInventory()
			if err != nil {
				return err
			}

			if jobID == "" {
				jobID = GenerateJobID(exe, argsRemainder)
				fmt.Fprintf(os.Stderr, "Using auto-generated job_id: %s\n", jobID)
			}
			if timeout != defaultExecTimeout && !wait {
				fmt.Fprintf(os.Stderr, "WARNING: --timeout %s is ignored without --wait flag\n", timeout)
			}

			payload := StartPayload{
				JobID:        jobID,
				Cmd:          append([]string{exe}, argsRemainder...),
				Cwd:          cwd,
				LogDir:       logDir,
				KillExisting: true,
			}

			if wait {
				results := ExecAndWait(inv, jobID, payload, timeout)
				if !Summarize(results) {
					os.Exit(1)
				}
				return nil
			}

			for _, r := range PostJSON(inv.Clients, inv.Token, "/start", payload) {
				fmt.Printf("[%s] start -> %t %s\n", r.Client.Name, r.OK, string(r.Body))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job-id", "", "Job identifier (default: auto-generated from command)")
	cmd.Flags().StringVar(&exe, "exe", "", "Path to executable on the client machines")
	cmd.Flags().StringVar(&cwd, "cwd", "", "Working directory on the client machines")
	cmd.Flags().StringVar(&logDir, "log-dir", defaultLogDir, "Log directory on the client machines")
	cmd.Flags().StringVar(&clientsFlag, "clients", "", "Comma-separated client names to target (default: all)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for process to exit and report returncode")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultExecTimeout, "Timeout (only applies with --wait)")
	_ = cmd.MarkFlagRequired("exe")

	return cmd
}

func newStopCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop all jobs on clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := loadFilteredInventory()
			if err != nil {
				return err
			}
			for _, r := range PostEmpty(inv.Clients, inv.Token, "/stop_all?mode="+mode) {
				fmt.Printf("[%s] stop_all -> %t %s\n", r.Client.Name, r.OK, string(r.Body))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "tree_kill", "term|kill|tree_kill")
	cmd.Flags().StringVar(&clientsFlag, "clients", "", "Comma-separated client names to target (default: all)")
	return cmd
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Fetch status from clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := loadFilteredInventory()
			if err != nil {
				return err
			}
			RenderStatus(inv)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientsFlag, "clients", "", "Comma-separated client names to target (default: all)")
	return cmd
}

func newExecCommand() *cobra.Command {
	var (
		jobID   string
		exe     string
		cwd     string
		logDir  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute a command and wait for completion (for one-shot tasks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := loadFilteredInventory()
			if err != nil {
				return err
			}

			if jobID == "" {
				jobID = GenerateJobID(exe, argsRemainder)
				fmt.Fprintf(os.Stderr, "Using auto-generated job_id: %s\n", jobID)
			}

			payload := StartPayload{
				JobID:        jobID,
				Cmd:          append([]string{exe}, argsRemainder...),
				Cwd:          cwd,
				LogDir:       logDir,
				KillExisting: true,
			}

			results := ExecAndWait(inv, jobID, payload, timeout)
			if !Summarize(results) {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job-id", "", "Job identifier (default: auto-generated from script/exe name)")
	cmd.Flags().StringVar(&exe, "exe", "", "Path to executable on the client machines")
	cmd.Flags().StringVar(&cwd, "cwd", "", "Working directory on the client machines")
	cmd.Flags().StringVar(&logDir, "log-dir", defaultLogDir, "Log directory on the client machines")
	cmd.Flags().StringVar(&clientsFlag, "clients", "", "Comma-separated client names to target (default: all)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultExecTimeout, "Timeout to wait for completion")
	_ = cmd.MarkFlagRequired("exe")

	return cmd
}
