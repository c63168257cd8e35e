package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// searchFlags holds the flag values for the search command.
type searchFlags struct {
	ID       bool
	Page     int
	PageSize int
	JSON     bool
}

// newSearchCmd creates the "talon search" command.
func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search live and archived tasks",
		Long: `Search tasks across the live snapshot and the most recent archive and
backup files in the memory area. Every whitespace-separated keyword must
appear in at least one of name, description, notes, implementation guide,
or summary; matching is case-insensitive. With --id the query is an exact
task id instead.

Live tasks shadow archived copies with the same id. Completed tasks sort
first by completion time, the rest by update time.`,
		Example: `  talon search "parser flaky"
  talon search 4f1c2d3e-9a00-4c21-b1ff-0d9aa1f20b11 --id
  talon search refactor --page 2 --page-size 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.ID, "id", false, "Treat the query as an exact task id")
	cmd.Flags().IntVar(&flags.Page, "page", 1, "Result page to show")
	cmd.Flags().IntVar(&flags.PageSize, "page-size", 0, "Results per page (0 = configured default)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output the result page as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newSearchCmd())
}

func runSearch(cmd *cobra.Command, query string, flags searchFlags) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	pageSize := flags.PageSize
	if pageSize <= 0 {
		pageSize = configuredPageSize()
	}

	res, err := store.Search(cmd.Context(), query, flags.ID, flags.Page, pageSize)
	if err != nil {
		return err
	}

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out := cmd.ErrOrStderr()
	if res.Pagination.TotalResults == 0 {
		fmt.Fprintln(out, "No matching tasks.")
		return nil
	}

	for _, t := range res.Tasks {
		fmt.Fprintf(out, "%-10s %-50s %s\n", shortID(t.ID), truncate(t.Name, 50), statusLabel(t.Status))
	}
	fmt.Fprintf(out, "Page %d/%d, %d results",
		res.Pagination.CurrentPage, res.Pagination.TotalPages, res.Pagination.TotalResults)
	if res.Pagination.HasMore {
		fmt.Fprintf(out, " (use --page %d for more)", res.Pagination.CurrentPage+1)
	}
	fmt.Fprintln(out)
	return nil
}
