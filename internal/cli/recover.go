package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRecoverCmd creates the "talon recover" command.
func newRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover <task-id>",
		Short: "Bring a deleted task back from its backup",
		Long: `Reinsert a previously deleted task from the deleted-task backups. The task
keeps its original id and fields; dependency edges pointing at tasks that no
longer exist are dropped. Fails if a live task with the id already exists or
no backup contains it. Use "talon deleted" to find recoverable ids.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(cmd, args[0])
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newRecoverCmd())
}

func runRecover(cmd *cobra.Command, id string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	t, err := store.RecoverTask(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Recovered task %s (%s)\n", t.Name, t.ID)
	return nil
}
