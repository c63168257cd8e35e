package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// updateFlags holds the flag values for the update command.
type updateFlags struct {
	Name              string
	Description       string
	Notes             string
	DependsOn         []string
	Guide             string
	Criteria          string
	Agent             string
	Summary           string
	CompletionDetails string
	Files             []string
	JSON              bool
}

// newUpdateCmd creates the "talon update" command.
func newUpdateCmd() *cobra.Command {
	var flags updateFlags

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update fields of an existing task",
		Long: `Apply a partial update to a task. Only flags you pass are changed.

A completed task only accepts --summary, --details, and --file; any other
flag is rejected for it. Passing --depends-on replaces the whole dependency
list; pass it once with an empty value to clear all dependencies.`,
		Example: `  # Rename and re-describe
  talon update 4f1c2d3e --name "Ship v2" -d "Cut and publish the release"

  # Replace the dependency list
  talon update 4f1c2d3e --depends-on "Fix parser" --depends-on "Update docs"

  # Record the outcome of a completed task
  talon update 4f1c2d3e --summary "Released as v2.0.1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.Name, "name", "", "New task name")
	cmd.Flags().StringVarP(&flags.Description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&flags.Notes, "notes", "", "New notes")
	cmd.Flags().StringArrayVar(&flags.DependsOn, "depends-on", nil, "Replace dependencies (repeatable; id or name)")
	cmd.Flags().StringVar(&flags.Guide, "guide", "", "New implementation guide")
	cmd.Flags().StringVar(&flags.Criteria, "criteria", "", "New verification criteria")
	cmd.Flags().StringVar(&flags.Agent, "agent", "", "New assigned agent tag")
	cmd.Flags().StringVar(&flags.Summary, "summary", "", "Completion summary")
	cmd.Flags().StringVar(&flags.CompletionDetails, "details", "", "Completion details")
	cmd.Flags().StringArrayVar(&flags.Files, "file", nil, "Related file as TYPE:path[:description] (repeatable)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output the updated task as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newUpdateCmd())
}

func runUpdate(cmd *cobra.Command, id string, flags updateFlags) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	var p task.Patch
	set := cmd.Flags().Changed
	if set("name") {
		p.Name = &flags.Name
	}
	if set("description") {
		p.Description = &flags.Description
	}
	if set("notes") {
		p.Notes = &flags.Notes
	}
	if set("guide") {
		p.ImplementationGuide = &flags.Guide
	}
	if set("criteria") {
		p.VerificationCriteria = &flags.Criteria
	}
	if set("agent") {
		p.Agent = &flags.Agent
	}
	if set("summary") {
		p.Summary = &flags.Summary
	}
	if set("details") {
		p.CompletionDetails = &flags.CompletionDetails
	}
	if set("depends-on") {
		deps := dropEmpty(flags.DependsOn)
		p.Dependencies = &deps
	}
	if set("file") {
		files := make([]task.RelatedFile, 0, len(flags.Files))
		for _, spec := range flags.Files {
			rf, err := relatedFileFromSpec(spec)
			if err != nil {
				return err
			}
			files = append(files, rf)
		}
		p.RelatedFiles = &files
	}

	t, warnings, err := store.Update(cmd.Context(), id, p)
	if err != nil {
		return err
	}
	printWarnings(warnings)

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Updated task %s (%s)\n", t.Name, t.ID)
	return nil
}

// dropEmpty filters empty strings out of a flag list, so an explicit empty
// --depends-on clears the dependency set.
func dropEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
