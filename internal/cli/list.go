package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	Status string
	JSON   bool
}

// newListCmd creates the "talon list" command.
func newListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Long:  "List every task in the live snapshot, optionally filtered by status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Status, "status", "", "Filter by status (pending|in_progress|completed)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output tasks as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newListCmd())
}

func runList(cmd *cobra.Command, flags listFlags) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	tasks, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	if flags.Status != "" {
		status := task.Status(flags.Status)
		if !status.IsValid() {
			return fmt.Errorf("unknown status %q (valid: pending, in_progress, completed)", flags.Status)
		}
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	out := cmd.ErrOrStderr()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return nil
	}

	fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("%-10s %-50s %-12s %s", "ID", "NAME", "STATUS", "DEPS")))
	for _, t := range tasks {
		deps := make([]string, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			deps = append(deps, shortID(d.TaskID))
		}
		fmt.Fprintf(out, "%-10s %-50s %-12s %s\n",
			shortID(t.ID), truncate(t.Name, 50), statusLabel(t.Status), strings.Join(deps, ","))
	}
	return nil
}
