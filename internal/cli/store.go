package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AbdelazizMoustafa10m/Talon/internal/config"
	"github.com/AbdelazizMoustafa10m/Talon/internal/history"
	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
	"github.com/AbdelazizMoustafa10m/Talon/internal/textsearch"
)

// openStore loads configuration, resolves the on-disk layout, and wires the
// store with its git recorder and platform searcher. Every command goes
// through here so the layout is resolved exactly once per invocation.
func openStore() (*task.Store, error) {
	cfg, cfgPath, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	baseDir := "."
	if cfgPath != "" {
		baseDir = filepath.Dir(cfgPath)
	}
	loc, err := config.ResolveLocations(cfg.Store, baseDir)
	if err != nil {
		return nil, err
	}

	recorder := history.NewGitRecorder(loc.DataDir, loc.SnapshotName())
	recorder.GitBin = cfg.History.GitBin
	recorder.Timeout = time.Duration(cfg.History.TimeoutSeconds) * time.Second

	return task.NewStore(loc, recorder, textsearch.NewCommandSearcher(), task.Options{
		MaxHistoryFiles: cfg.Search.MaxHistoryFiles,
	}), nil
}

// configuredPageSize returns the search page size from config, or 0 when no
// config is loadable (the store then falls back to its built-in default).
func configuredPageSize() int {
	cfg, _, err := config.Load(".")
	if err != nil {
		return 0
	}
	return cfg.Search.PageSize
}

// Shared output styles.
var (
	styleCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	stylePending    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // dark gray
	styleHeader     = lipgloss.NewStyle().Bold(true)
	styleWarning    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")) // red
)

// statusLabel renders a colored status string.
func statusLabel(s task.Status) string {
	switch s {
	case task.StatusCompleted:
		return styleCompleted.Render(string(s))
	case task.StatusInProgress:
		return styleInProgress.Render(string(s))
	default:
		return stylePending.Render(string(s))
	}
}

// complexityLabel renders a colored complexity grade.
func complexityLabel(l task.ComplexityLevel) string {
	switch l {
	case task.ComplexityVeryHigh, task.ComplexityHigh:
		return styleWarning.Render(string(l))
	case task.ComplexityMedium:
		return styleInProgress.Render(string(l))
	default:
		return styleCompleted.Render(string(l))
	}
}

// shortID returns the first uuid segment, enough to be unambiguous in
// human-readable listings. Full ids appear in JSON output.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// printWarnings renders reconciliation/creation warnings to stderr.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(rootCmd.ErrOrStderr(), styleWarning.Render("warning: ")+w)
	}
}
