package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// createFlags holds the flag values for the create command.
type createFlags struct {
	Description string
	Notes       string
	DependsOn   []string
	Guide       string
	Criteria    string
	Agent       string
	JSON        bool
}

// newCreateCmd creates the "talon create" command.
func newCreateCmd() *cobra.Command {
	var flags createFlags

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new task",
		Long: `Create a new pending task. Dependencies may reference existing tasks by
id or by name; references that match nothing are dropped with a warning.`,
		Example: `  # A standalone task
  talon create "Fix flaky parser test" --description "TestParse fails under -race"

  # A task gated on two prerequisites
  talon create "Release v2" --depends-on "Fix flaky parser test" --depends-on "Update docs"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&flags.Notes, "notes", "", "Free-form notes")
	cmd.Flags().StringArrayVar(&flags.DependsOn, "depends-on", nil, "Prerequisite task id or name (repeatable)")
	cmd.Flags().StringVar(&flags.Guide, "guide", "", "Implementation guide")
	cmd.Flags().StringVar(&flags.Criteria, "criteria", "", "Verification criteria")
	cmd.Flags().StringVar(&flags.Agent, "agent", "", "Assigned agent tag")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output the created task as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func runCreate(cmd *cobra.Command, name string, flags createFlags) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	t, warnings, err := store.Create(cmd.Context(), task.CreateRequest{
		Name:                 name,
		Description:          flags.Description,
		Notes:                flags.Notes,
		Dependencies:         flags.DependsOn,
		ImplementationGuide:  flags.Guide,
		VerificationCriteria: flags.Criteria,
		Agent:                flags.Agent,
	})
	if err != nil {
		return err
	}
	printWarnings(warnings)

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Created task %s (%s)\n", t.Name, t.ID)
	return nil
}
