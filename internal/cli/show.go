package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// newShowCmd creates the "talon show" command.
func newShowCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task in full detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the task as JSON")

	return cmd
}

func init() {
	rootCmd.AddCommand(newShowCmd())
}

func runShow(cmd *cobra.Command, id string, jsonOut bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	t, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, styleHeader.Render(t.Name))
	fmt.Fprintf(out, "ID:      %s\n", t.ID)
	fmt.Fprintf(out, "Status:  %s\n", statusLabel(t.Status))
	fmt.Fprintf(out, "Created: %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Updated: %s\n", t.UpdatedAt.Format(time.RFC3339))
	if t.CompletedAt != nil {
		fmt.Fprintf(out, "Completed: %s\n", t.CompletedAt.Format(time.RFC3339))
	}
	if t.Agent != "" {
		fmt.Fprintf(out, "Agent:   %s\n", t.Agent)
	}

	if len(t.Dependencies) > 0 {
		ids := make([]string, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			ids = append(ids, d.TaskID)
		}
		fmt.Fprintf(out, "Depends on: %s\n", strings.Join(ids, ", "))
	}

	printSection := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(out, "\n%s\n%s\n", styleHeader.Render(title), body)
	}
	printSection("Description", t.Description)
	printSection("Notes", t.Notes)
	printSection("Implementation Guide", t.ImplementationGuide)
	printSection("Verification Criteria", t.VerificationCriteria)
	printSection("Summary", t.Summary)
	printSection("Completion Details", t.CompletionDetails)
	printSection("Analysis", t.AnalysisResult)

	if len(t.RelatedFiles) > 0 {
		fmt.Fprintf(out, "\n%s\n", styleHeader.Render("Related Files"))
		for _, rf := range t.RelatedFiles {
			line := fmt.Sprintf("  %-10s %s", rf.Type, rf.Path)
			if rf.Description != "" {
				line += "  " + rf.Description
			}
			fmt.Fprintln(out, line)
		}
	}
	return nil
}

// relatedFileFromSpec parses a --file flag value of the form
// "TYPE:path[:description]" into a RelatedFile.
func relatedFileFromSpec(spec string) (task.RelatedFile, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return task.RelatedFile{}, fmt.Errorf("related file %q: want TYPE:path[:description]", spec)
	}
	ft := task.RelatedFileType(strings.ToUpper(parts[0]))
	if !ft.IsValid() {
		return task.RelatedFile{}, fmt.Errorf("related file %q: unknown type %q", spec, parts[0])
	}
	rf := task.RelatedFile{Type: ft, Path: parts[1]}
	if len(parts) == 3 {
		rf.Description = parts[2]
	}
	return rf, nil
}
