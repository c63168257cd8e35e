package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/history"
)

// historyFlags holds the flag values for the history command.
type historyFlags struct {
	Task      string
	Operation string
	Limit     int
	Since     string
	JSON      bool
}

// newHistoryCmd creates the "talon history" command.
func newHistoryCmd() *cobra.Command {
	var flags historyFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the snapshot mutation log",
		Long: `List the versioned history of snapshot mutations, newest first. Each
entry records the operation, the task it touched (when applicable), and the
revision it produced.`,
		Example: `  # Everything, newest first
  talon history

  # One task's trail
  talon history --task 4f1c2d3e-...

  # Recent deletions
  talon history --operation delete --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Task, "task", "", "Only entries mentioning this task id")
	cmd.Flags().StringVar(&flags.Operation, "operation", "", "Only entries whose message contains this keyword")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "Maximum entries to show (0 = all)")
	cmd.Flags().StringVar(&flags.Since, "since", "", "Only entries at or after this RFC 3339 time")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output entries as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}

func runHistory(cmd *cobra.Command, flags historyFlags) error {
	f := history.Filter{
		TaskID:    flags.Task,
		Operation: flags.Operation,
		Limit:     flags.Limit,
	}
	if flags.Since != "" {
		since, err := time.Parse(time.RFC3339, flags.Since)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		f.Since = since
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	entries, err := store.QueryHistory(cmd.Context(), f)
	if err != nil {
		return err
	}

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	out := cmd.ErrOrStderr()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries.")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(out, "%s  %s  %s\n",
			e.Timestamp.Format(time.DateTime), styleHeader.Render(e.Revision), e.Message)
	}
	return nil
}
