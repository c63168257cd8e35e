package history

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds every git invocation so a hung external process
// cannot hang the corresponding store operation.
const DefaultTimeout = 30 * time.Second

// gitignoreContent lists transient files the history store must never track.
const gitignoreContent = "*.tmp\nmemory/\n"

// GitRecorder records snapshot history by shelling out to the git binary,
// following the same pattern as gh, lazygit, and k9s. The repository lives
// in the snapshot's data directory and tracks only the snapshot file.
type GitRecorder struct {
	// WorkDir is the data directory the repository is created in.
	WorkDir string

	// SnapshotName is the snapshot file name relative to WorkDir.
	SnapshotName string

	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string

	// Timeout bounds each git invocation. Defaults to DefaultTimeout.
	Timeout time.Duration

	logger *log.Logger

	// lastSum is the xxhash of the snapshot content at the last successful
	// commit; matching content suppresses redundant commits.
	lastSum uint64
}

// NewGitRecorder creates a GitRecorder for the snapshot file at
// filepath.Join(workDir, snapshotName).
func NewGitRecorder(workDir, snapshotName string) *GitRecorder {
	return &GitRecorder{
		WorkDir:      workDir,
		SnapshotName: snapshotName,
		GitBin:       "git",
		Timeout:      DefaultTimeout,
		logger:       log.WithPrefix("history"),
	}
}

// EnsureInitialized creates the git store on first use: git init, a local
// committer identity, and an ignore-list for transient files. Calling it on
// an already-initialized store is a cheap no-op.
func (g *GitRecorder) EnsureInitialized(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(g.WorkDir, ".git")); err == nil {
		return nil
	}

	if err := os.MkdirAll(g.WorkDir, 0755); err != nil {
		return fmt.Errorf("history: creating data dir %q: %w", g.WorkDir, err)
	}
	if _, err := g.run(ctx, "init"); err != nil {
		return fmt.Errorf("history: git init: %w", err)
	}
	// A local identity keeps commits working on machines with no global
	// git configuration.
	if _, err := g.run(ctx, "config", "user.name", "talon"); err != nil {
		return fmt.Errorf("history: git config user.name: %w", err)
	}
	if _, err := g.run(ctx, "config", "user.email", "talon@localhost"); err != nil {
		return fmt.Errorf("history: git config user.email: %w", err)
	}

	ignorePath := filepath.Join(g.WorkDir, ".gitignore")
	if err := os.WriteFile(ignorePath, []byte(gitignoreContent), 0644); err != nil {
		return fmt.Errorf("history: writing .gitignore: %w", err)
	}

	g.logger.Debug("initialized history store", "dir", g.WorkDir)
	return nil
}

// Commit stages the snapshot file and commits it with a message embedding
// the local timestamp. A snapshot whose content is unchanged since the last
// successful commit is skipped.
func (g *GitRecorder) Commit(ctx context.Context, message string) error {
	if err := g.EnsureInitialized(ctx); err != nil {
		return err
	}

	raw, err := os.ReadFile(filepath.Join(g.WorkDir, g.SnapshotName))
	if err != nil {
		return fmt.Errorf("history: reading snapshot for commit: %w", err)
	}
	sum := xxhash.Sum64(raw)
	if sum == g.lastSum && g.lastSum != 0 {
		g.logger.Debug("snapshot unchanged, skipping commit", "message", message)
		return nil
	}

	if _, err := g.run(ctx, "add", g.SnapshotName); err != nil {
		return fmt.Errorf("history: git add %s: %w", g.SnapshotName, err)
	}

	stamp := time.Now().Format("2006-01-02 15:04:05")
	full := fmt.Sprintf("[%s] %s", stamp, message)
	if _, err := g.run(ctx, "commit", "-m", full); err != nil {
		// "nothing to commit" is not a failure; the add produced no change.
		if strings.Contains(err.Error(), "nothing to commit") {
			g.lastSum = sum
			return nil
		}
		return fmt.Errorf("history: git commit: %w", err)
	}

	g.lastSum = sum
	return nil
}

// Query runs git log and scans the entries linearly against the filter,
// newest first. An empty repository yields an empty result, not an error.
func (g *GitRecorder) Query(ctx context.Context, f Filter) ([]Entry, error) {
	if err := g.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	args := []string{"log", "--pretty=format:%h%x09%aI%x09%s"}
	out, err := g.run(ctx, args...)
	if err != nil {
		// A repository with no commits yet makes git log exit non-zero.
		if strings.Contains(err.Error(), "does not have any commits") {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("history: git log: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry, ok := parseLogLine(line)
		if !ok {
			continue
		}
		if !entry.Matches(f) {
			continue
		}
		entries = append(entries, entry)
		if f.Limit > 0 && len(entries) >= f.Limit {
			break
		}
	}
	return entries, nil
}

// parseLogLine parses one "sha<TAB>iso-date<TAB>subject" log line.
func parseLogLine(line string) (Entry, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return Entry{}, false
	}
	ts, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		ts = time.Time{}
	}
	entry := Entry{
		Revision:  parts[0],
		Timestamp: ts,
		Message:   parts[2],
	}
	entry.Operation, entry.TaskName, entry.TaskID = ParseMessage(parts[2])
	return entry, true
}

// run executes a git command in WorkDir and returns stdout. stderr is folded
// into the error when the command fails. Every invocation is bounded by the
// recorder's timeout.
func (g *GitRecorder) run(ctx context.Context, args ...string) (string, error) {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = g.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			return "", fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
