// Package history provides Talon's versioned history log: a best-effort
// audit trail of snapshot mutations kept in a local git store beside the
// snapshot file. History never blocks correctness -- a failed commit is
// logged and ignored by callers, and a crash between a snapshot write and
// its commit leaves an uncommitted but structurally valid snapshot.
package history

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Entry is one versioned-log record.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Revision  string    `json:"revision"`
	Message   string    `json:"message"`

	// TaskID, TaskName, and Operation are extracted from the commit message
	// when it follows the standard "<operation>: <name> (<id>)" form; all
	// three are empty for messages that do not parse.
	TaskID    string `json:"taskId,omitempty"`
	TaskName  string `json:"taskName,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Filter narrows a history query. Zero values mean "no constraint".
type Filter struct {
	// TaskID matches entries whose commit message mentions the id.
	TaskID string
	// Operation matches entries whose message contains the keyword,
	// case-insensitively (e.g. "delete", "add new task").
	Operation string
	// Limit caps the number of returned entries (0 = no cap).
	Limit int
	// Since drops entries older than the given time.
	Since time.Time
}

// Recorder is the versioning abstraction the store writes through. The
// production implementation shells out to git; tests substitute an
// in-memory fake. Keeping the surface this small lets a native embedded
// log replace process invocation without touching call sites.
type Recorder interface {
	// EnsureInitialized lazily creates the underlying version store.
	EnsureInitialized(ctx context.Context) error

	// Commit records the snapshot file with the given operation summary.
	Commit(ctx context.Context, message string) error

	// Query scans the log linearly and returns matching entries,
	// newest first.
	Query(ctx context.Context, f Filter) ([]Entry, error)
}

// messagePattern matches the standard commit summary form produced by the
// store: "[2006-01-02 15:04:05] Add new task: fix parser (a1b2...)".
var messagePattern = regexp.MustCompile(`^(?:\[[^\]]*\]\s*)?([^:]+):\s*(.*?)\s*\(([0-9a-fA-F-]{8,})\)\s*$`)

// ParseMessage extracts the operation, task name, and task id from a commit
// message in the standard form. It returns empty strings for messages that
// do not follow it (e.g. "Clear all tasks").
func ParseMessage(msg string) (operation, name, id string) {
	m := messagePattern.FindStringSubmatch(strings.TrimSpace(msg))
	if m == nil {
		return "", "", ""
	}
	return strings.TrimSpace(m[1]), m[2], m[3]
}

// Matches reports whether the entry satisfies the filter.
func (e Entry) Matches(f Filter) bool {
	if f.TaskID != "" && !strings.Contains(e.Message, f.TaskID) {
		return false
	}
	if f.Operation != "" && !strings.Contains(strings.ToLower(e.Message), strings.ToLower(f.Operation)) {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
