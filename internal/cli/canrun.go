package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newCanRunCmd creates the "talon can-run" command.
func newCanRunCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "can-run <task-id>",
		Short: "Check whether a task's prerequisites allow execution",
		Long: `Report whether every direct prerequisite of the task is completed. A
blocked task lists the prerequisite ids holding it up. The command exits
non-zero when the task cannot run, so it composes in scripts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanRun(cmd, args[0], jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output readiness as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newCanRunCmd())
}

func runCanRun(cmd *cobra.Command, id string, jsonOut bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	r, err := store.CanExecute(cmd.Context(), id)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return err
		}
	} else if r.CanExecute {
		fmt.Fprintln(cmd.ErrOrStderr(), "Task is ready to execute.")
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "Task is blocked by:")
		for _, dep := range r.BlockedBy {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", dep)
		}
	}

	if !r.CanExecute {
		return fmt.Errorf("task %s is not ready to execute", shortID(id))
	}
	return nil
}
