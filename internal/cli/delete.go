package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newDeleteCmd creates the "talon delete" command.
func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Long: `Delete a task from the live snapshot. Completed tasks cannot be deleted,
and neither can tasks that other non-completed tasks still depend on. The
deleted task is written to a backup file first, so it can be brought back
with "talon recover".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0])
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newDeleteCmd())
}

func runDelete(cmd *cobra.Command, id string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Delete(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Deleted task %s (recoverable via 'talon recover %s')\n", shortID(id), shortID(id))
	return nil
}
