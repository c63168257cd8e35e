package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	JSON    bool
	Verbose bool
}

// statusOutput is the JSON output type for the status command.
type statusOutput struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"in_progress"`
	Pending    int     `json:"pending"`
	Blocked    int     `json:"blocked"`
	Ready      int     `json:"ready"`
	Percent    float64 `json:"percent"`
}

// newStatusCmd creates the "talon status" command.
func newStatusCmd() *cobra.Command {
	var flags statusFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show overall task progress with a progress bar",
		Long: `Display a summary of the task store: totals per status, how many pending
tasks are ready versus blocked on prerequisites, and overall completion.

Use --verbose to list every non-completed task with its readiness. Use
--json for structured output suitable for scripting.`,
		Example: `  # Summary with progress bar
  talon status

  # Per-task readiness details
  talon status --verbose

  # Structured JSON output
  talon status --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Output structured JSON to stdout")
	cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "List every non-completed task with its readiness")

	return cmd
}

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func runStatus(cmd *cobra.Command, flags statusFlags) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	data, err := store.Data(cmd.Context())
	if err != nil {
		return err
	}
	tasks := data.Tasks

	out := statusOutput{Total: len(tasks)}
	completed := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Status == task.StatusCompleted {
			completed[t.ID] = true
		}
	}

	readiness := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		switch t.Status {
		case task.StatusCompleted:
			out.Completed++
			continue
		case task.StatusInProgress:
			out.InProgress++
		default:
			out.Pending++
		}

		ready := true
		for _, dep := range t.Dependencies {
			if !completed[dep.TaskID] {
				ready = false
				break
			}
		}
		readiness[t.ID] = ready
		if ready {
			out.Ready++
		} else {
			out.Blocked++
		}
	}
	if out.Total > 0 {
		out.Percent = float64(out.Completed) / float64(out.Total) * 100
	}

	if flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.ErrOrStderr()
	if out.Total == 0 {
		fmt.Fprintln(w, "No tasks.")
		return nil
	}

	title := "Talon Status"
	fmt.Fprintln(w, styleHeader.Render(title))
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w, renderProgressBar(out))
	fmt.Fprintf(w, "%s %d  %s %d (%d ready, %d blocked)  %s %d\n",
		styleCompleted.Render("completed:"), out.Completed,
		stylePending.Render("open:"), out.Pending+out.InProgress, out.Ready, out.Blocked,
		styleInProgress.Render("in progress:"), out.InProgress)

	if flags.Verbose {
		fmt.Fprintln(w)
		for _, t := range tasks {
			if t.Status == task.StatusCompleted {
				continue
			}
			state := "ready"
			if !readiness[t.ID] {
				state = styleWarning.Render("blocked")
			}
			fmt.Fprintf(w, "  %-10s %-50s %-12s %s\n",
				shortID(t.ID), truncate(t.Name, 50), statusLabel(t.Status), state)
		}
	}
	return nil
}

// renderProgressBar renders a static completion bar plus the fraction.
//
//	████████████░░░░░░░░ 60% (12/20)
func renderProgressBar(out statusOutput) string {
	const progressBarWidth = 40

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(progressBarWidth),
		progress.WithoutPercentage(),
	)
	pct := 0.0
	if out.Total > 0 {
		pct = float64(out.Completed) / float64(out.Total)
	}
	return fmt.Sprintf("%s %.0f%% (%d/%d)", bar.ViewAs(pct), pct*100, out.Completed, out.Total)
}
