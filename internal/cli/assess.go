package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newAssessCmd creates the "talon assess" command.
func newAssessCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "assess <task-id>",
		Short: "Assess a task's complexity",
		Long: `Grade a task LOW, MEDIUM, HIGH, or VERY_HIGH from its description length,
dependency count, and notes length, with recommendations for the heavier
grades.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(cmd, args[0], jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the assessment as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newAssessCmd())
}

func runAssess(cmd *cobra.Command, id string, jsonOut bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	a, err := store.AssessComplexity(cmd.Context(), id)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "%s %s\n", styleHeader.Render(a.TaskName), complexityLabel(a.Level))
	fmt.Fprintf(out, "  description: %d chars\n", a.Metrics.DescriptionLength)
	fmt.Fprintf(out, "  dependencies: %d\n", a.Metrics.DependenciesCount)
	fmt.Fprintf(out, "  notes: %d chars\n", a.Metrics.NotesLength)
	for _, r := range a.Recommendations {
		fmt.Fprintf(out, "  - %s\n", r)
	}
	return nil
}
