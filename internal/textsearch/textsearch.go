// Package textsearch shells out to the platform text-search utility (grep
// on Unix-like systems, findstr on Windows) to find which candidate files
// mention a query. It backs the historical half of the store's search: the
// caller narrows the memory area to a bounded set of snapshot files and
// this package reports which of them contain the query at all, leaving the
// precise keyword matching to the caller after parsing.
package textsearch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every search invocation so a hung external process
// cannot hang the store's search operation.
const DefaultTimeout = 15 * time.Second

// Searcher reports which of the given files contain the query. The
// production implementation invokes the platform search utility; tests
// substitute a pure-Go fake.
type Searcher interface {
	MatchingFiles(ctx context.Context, query string, files []string) ([]string, error)
}

// CommandSearcher implements Searcher via the platform search executable.
type CommandSearcher struct {
	// Timeout bounds each invocation. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// NewCommandSearcher returns a CommandSearcher with the default timeout.
func NewCommandSearcher() *CommandSearcher {
	return &CommandSearcher{Timeout: DefaultTimeout}
}

// MatchingFiles runs the platform utility in filename-only, case-insensitive
// mode against the candidate files. A query that matches nothing is an empty
// result, not an error.
func (s *CommandSearcher) MatchingFiles(ctx context.Context, query string, files []string) ([]string, error) {
	if len(files) == 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bin, args := searchCommand(query, files)
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			// Exit code 1 means "no matches" for both grep and findstr.
			return nil, nil
		}
		return nil, fmt.Errorf("textsearch: %s: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}

	var matched []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			matched = append(matched, line)
		}
	}
	return matched, nil
}
