package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// newSetStatusCmd creates the "talon set-status" command.
func newSetStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-status <task-id> <status>",
		Short: "Transition a task to a new status",
		Long: `Set a task's status to pending, in_progress, or completed. Marking a task
completed stamps its completion time and freezes everything except its
summary, completion details, and related files.`,
		Example: `  talon set-status 4f1c2d3e in_progress
  talon set-status 4f1c2d3e completed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetStatus(cmd, args[0], args[1])
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newSetStatusCmd())
}

func runSetStatus(cmd *cobra.Command, id, raw string) error {
	status := task.Status(strings.ToLower(raw))
	if !status.IsValid() {
		valid := make([]string, 0, 3)
		for _, s := range task.ValidStatuses() {
			valid = append(valid, string(s))
		}
		return fmt.Errorf("unknown status %q (valid: %s)", raw, strings.Join(valid, ", "))
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	t, err := store.UpdateStatus(cmd.Context(), id, status)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Task %s is now %s\n", t.Name, statusLabel(t.Status))
	return nil
}
