package task

import (
	"errors"
	"fmt"
	"strings"
)

// Business-rule violations are returned as typed errors so callers can
// branch on them without string matching. Persistence and subprocess
// failures are wrapped with %w and propagate separately.
var (
	// ErrTaskNotFound indicates the requested task id is not in the live
	// snapshot.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists indicates a live task with the id already exists.
	ErrTaskExists = errors.New("task already exists")

	// ErrBackupNotFound indicates no deleted-task backup contains the
	// requested id.
	ErrBackupNotFound = errors.New("no backup found for task")

	// ErrArchiveNotFound indicates the named archive file does not exist.
	ErrArchiveNotFound = errors.New("archive not found")
)

// CompletedTaskError reports an attempt to mutate a completed task outside
// the allowed field set {summary, relatedFiles, completionDetails}, or to
// delete it.
type CompletedTaskError struct {
	ID     string
	Name   string
	Fields []string // offending fields; empty for deletion attempts
}

func (e *CompletedTaskError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("cannot delete completed task %q (%s)", e.Name, e.ID)
	}
	return fmt.Sprintf("task %q (%s) is completed; fields %s cannot be modified",
		e.Name, e.ID, strings.Join(e.Fields, ", "))
}

// TaskRef is a minimal task reference used in error payloads.
type TaskRef struct {
	ID   string
	Name string
}

// BlockedDeleteError reports a deletion blocked by non-completed tasks that
// still depend on the target.
type BlockedDeleteError struct {
	ID         string
	Name       string
	Dependents []TaskRef
}

func (e *BlockedDeleteError) Error() string {
	names := make([]string, 0, len(e.Dependents))
	for _, d := range e.Dependents {
		names = append(names, fmt.Sprintf("%q (%s)", d.Name, d.ID))
	}
	return fmt.Sprintf("cannot delete task %q (%s): depended on by %s",
		e.Name, e.ID, strings.Join(names, ", "))
}
