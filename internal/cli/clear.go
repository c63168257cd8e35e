package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// newClearCmd creates the "talon clear" command.
func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every task from the store",
		Long: `Remove all tasks from the live snapshot. Completed tasks are written to a
backup file first and stay recoverable; pending and in-progress tasks are
discarded for good. Prompts for confirmation unless --yes is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func init() {
	rootCmd.AddCommand(newClearCmd())
}

func runClear(cmd *cobra.Command, yes bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if !yes {
		tasks, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		inFlight := 0
		for _, t := range tasks {
			if t.Status != task.StatusCompleted {
				inFlight++
			}
		}

		var confirmed bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete all %d tasks?", len(tasks))).
					Description(fmt.Sprintf("%d non-completed tasks will be discarded without backup.", inFlight)).
					Affirmative("Clear everything").
					Negative("Cancel").
					Value(&confirmed),
			),
		).WithTheme(huh.ThemeCharm())
		if err := form.Run(); err != nil {
			return fmt.Errorf("confirmation prompt: %w", err)
		}
		if !confirmed {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			return nil
		}
	}

	backup, err := store.ClearAllTasks(cmd.Context())
	if err != nil {
		return err
	}

	if backup != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Cleared all tasks; completed tasks backed up to %s\n", backup)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cleared all tasks.")
	}
	return nil
}
