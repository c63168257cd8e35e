package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// planFlags holds the flag values for the plan command.
type planFlags struct {
	Mode           string
	Analysis       string
	InitialRequest string
	JSON           bool
}

// planInput is the accepted JSON input: either a bare list of task specs or
// an object wrapping it with optional analysis and initial request.
type planInput struct {
	Tasks          []task.TaskSpec `json:"tasks"`
	Analysis       string          `json:"analysis,omitempty"`
	InitialRequest string          `json:"initialRequest,omitempty"`
}

// newPlanCmd creates the "talon plan" command.
func newPlanCmd() *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "plan <specs.json>",
		Short: "Reconcile a batch of task specs into the store",
		Long: `Merge a JSON batch of task specifications into the live snapshot. The
file holds either a bare list of specs or {"tasks": [...], "analysis": "...",
"initialRequest": "..."}. Pass "-" to read from stdin.

Modes:
  append        keep everything, add each spec as a new task
  overwrite     drop non-completed tasks, keep completed ones, add the batch
  selective     update existing non-completed tasks matched by name in place
  clearAllTasks discard every existing task, then add the batch

Dependencies may name tasks from the batch itself. Dropped references,
pruned stale edges, and dependency cycles are reported as warnings, never
silently discarded.`,
		Example: `  talon plan tasks.json --mode selective
  generate-plan | talon plan - --mode append`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.Mode, "mode", string(task.ModeClearAll), "Reconciliation mode (append|overwrite|selective|clearAllTasks)")
	cmd.Flags().StringVar(&flags.Analysis, "analysis", "", "Analysis note attached to created/updated tasks (overrides file)")
	cmd.Flags().StringVar(&flags.InitialRequest, "initial-request", "", "Project request recorded on the snapshot (overrides file)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output the reconcile result as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newPlanCmd())
}

func runPlan(cmd *cobra.Command, file string, flags planFlags) error {
	input, err := readPlanInput(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	req := task.ReconcileRequest{
		Specs:          input.Tasks,
		Mode:           task.Mode(flags.Mode),
		Analysis:       input.Analysis,
		InitialRequest: input.InitialRequest,
	}
	if flags.Analysis != "" {
		req.Analysis = flags.Analysis
	}
	if flags.InitialRequest != "" {
		req.InitialRequest = flags.InitialRequest
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	res, err := store.Reconcile(cmd.Context(), req)
	if err != nil {
		return err
	}
	printWarnings(res.Warnings)

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Reconciled (%s): %d created, %d updated, %d kept, %d total\n",
		flags.Mode, res.Created, res.Updated, res.Kept, len(res.Tasks))
	return nil
}

// readPlanInput parses the batch file, accepting both the wrapped object and
// a bare spec list.
func readPlanInput(stdin io.Reader, file string) (*planInput, error) {
	var raw []byte
	var err error
	if file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan input: %w", err)
	}

	var input planInput
	if err := json.Unmarshal(raw, &input); err == nil && input.Tasks != nil {
		return &input, nil
	}

	var specs []task.TaskSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parsing plan input: %w", err)
	}
	return &planInput{Tasks: specs}, nil
}
