package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newArchiveCmd creates the "talon archive" command with its subcommands.
func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Create, list, and restore task archives",
		Long: `Archives are point-in-time snapshots of the full task set, stored as
timestamped files in the memory area. They also feed cross-snapshot search.`,
	}

	cmd.AddCommand(newArchiveCreateCmd())
	cmd.AddCommand(newArchiveListCmd())
	cmd.AddCommand(newArchiveRestoreCmd())

	return cmd
}

func init() {
	rootCmd.AddCommand(newArchiveCmd())
}

func newArchiveCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Archive the current task set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			a, err := store.CreateArchive(cmd.Context(), description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Archived %d tasks to %s\n", a.TaskCount, a.File)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Archive description")

	return cmd
}

func newArchiveListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archives, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			archives, err := store.ListArchives(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(archives)
			}

			out := cmd.ErrOrStderr()
			if len(archives) == 0 {
				fmt.Fprintln(out, "No archives.")
				return nil
			}
			fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("%-45s %-20s %6s  %s", "FILE", "CREATED", "TASKS", "DESCRIPTION")))
			for _, a := range archives {
				fmt.Fprintf(out, "%-45s %-20s %6d  %s\n",
					a.File, a.CreatedAt.Format(time.DateTime), a.TaskCount, truncate(a.Description, 40))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output archives as JSON")

	return cmd
}

func newArchiveRestoreCmd() *cobra.Command {
	var merge, preserveIDs bool

	cmd := &cobra.Command{
		Use:   "restore <archive-file>",
		Short: "Restore tasks from an archive",
		Long: `Load an archive's tasks back into the live snapshot. By default the live
set is replaced and every restored task gets a fresh id (dependency edges
within the archive are remapped to the new ids). With --merge only tasks
absent from the live set are added. With --preserve-ids the archived ids
are kept as-is.`,
		Example: `  talon archive restore archive_2026-08-29T10-00-00.000.json
  talon archive restore archive_2026-08-29T10-00-00.000.json --merge --preserve-ids`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			count, err := store.RestoreFromArchive(cmd.Context(), args[0], merge, preserveIDs)
			if err != nil {
				return err
			}
			mode := "replace"
			if merge {
				mode = "merge"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Restored %d tasks from %s (%s)\n", count, args[0], mode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Add archived tasks to the live set instead of replacing it")
	cmd.Flags().BoolVar(&preserveIDs, "preserve-ids", false, "Keep archived task ids instead of regenerating them")

	return cmd
}
