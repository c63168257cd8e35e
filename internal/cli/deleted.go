package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// deletedFlags holds the flag values for the deleted command.
type deletedFlags struct {
	Since string
	Limit int
	JSON  bool
}

// newDeletedCmd creates the "talon deleted" command.
func newDeletedCmd() *cobra.Command {
	var flags deletedFlags

	cmd := &cobra.Command{
		Use:   "deleted",
		Short: "List recoverable deleted tasks",
		Long: `List tasks captured in deleted-task backup files, newest deletion first.
Any listed task can be brought back with "talon recover <task-id>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleted(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Since, "since", "", "Only deletions at or after this RFC 3339 time")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "Maximum records to show (0 = all)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output records as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newDeletedCmd())
}

func runDeleted(cmd *cobra.Command, flags deletedFlags) error {
	q := task.DeletedTaskQuery{Limit: flags.Limit}
	if flags.Since != "" {
		since, err := time.Parse(time.RFC3339, flags.Since)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		q.Since = since
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	infos, err := store.DeletedTasks(cmd.Context(), q)
	if err != nil {
		return err
	}

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	out := cmd.ErrOrStderr()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No deleted tasks.")
		return nil
	}

	fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("%-10s %-40s %-20s %s", "ID", "NAME", "DELETED", "BACKUP")))
	for _, info := range infos {
		fmt.Fprintf(out, "%-10s %-40s %-20s %s\n",
			shortID(info.Task.ID), truncate(info.Task.Name, 40),
			info.DeletedAt.Format(time.DateTime), info.File)
	}
	return nil
}
