package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thedjpetersen/flow-like-water/internal/config"
	"github.com/thedjpetersen/flow-like-water/internal/logging"
	"github.com/thedjpetersen/flow-like-water/internal/manifest"
	"github.com/thedjpetersen/flow-like-water/internal/orchestrator"
	"github.com/thedjpetersen/flow-like-water/internal/tui"
)

var (
	runWatch bool
	runState string
	runTask  string
)

var runCmd = &cobra.Command{
	Use:   "run <manifest>",
	Short: "Run a workflow manifest",
	Long: `Run executes every task group in the manifest in order. Execution is
depth-first: nested groups run to completion before their siblings. A task
failure aborts the run after its retries are exhausted.

With --watch, a live view shows per-task states while the run progresses.
With --state, the final state snapshot is written as JSON, on failure too.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "show a live view of the run")
	runCmd.Flags().StringVar(&runState, "state", "", "write the final state snapshot to this file")
	runCmd.Flags().StringVar(&runTask, "task", "", "run a single root-level task instead of the full workflow")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	orch, err := buildOrchestrator(m, cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var runErr error
	switch {
	case runTask != "":
		runErr = orch.RunTask(ctx, runTask)
	case runWatch && term.IsTerminal(int(os.Stdout.Fd())):
		runErr = tui.Watch(ctx, orch, m.Workflow.Name, cfg.TUI.RefreshInterval())
	default:
		runErr = orch.Run(ctx)
	}

	if runState != "" {
		if err := writeState(orch, runState); err != nil {
			// The run result matters more than the snapshot file.
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "workflow %s completed\n", m.Workflow.Name)
	return nil
}

// newLogger builds the run logger from config. An empty log dir keeps
// logging off.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if cfg.Logging.Dir == "" {
		return logging.NopLogger(), nil
	}
	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return logger, nil
}

// buildOrchestrator turns a manifest into a ready-to-run orchestrator.
func buildOrchestrator(m *manifest.Manifest, cfg *config.Config, logger *logging.Logger) (*orchestrator.Orchestrator, error) {
	groups, err := m.Build(manifest.BuildConfig{
		DefaultRetries: cfg.Engine.DefaultRetries,
		DefaultWait:    cfg.Engine.DefaultWait(),
	})
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(orchestrator.WithLogger(logger))
	for _, g := range groups {
		orch.AddGroup(g)
	}
	return orch, nil
}

// writeState serializes the orchestrator's snapshot to a file.
func writeState(orch *orchestrator.Orchestrator, path string) error {
	data, err := orch.SerializedState()
	if err != nil {
		return fmt.Errorf("serializing state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
