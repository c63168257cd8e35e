// Package task implements Talon's persistent task store: a file-backed,
// dependency-aware task graph with versioned history, batch reconciliation,
// archival/recovery, and cross-snapshot search.
package task

import "time"

// Status represents the lifecycle state of a task.
type Status string

const (
	// StatusPending indicates the task has been created but not started.
	StatusPending Status = "pending"

	// StatusInProgress indicates the task is currently being worked on.
	StatusInProgress Status = "in_progress"

	// StatusCompleted indicates the task has finished successfully.
	// Completed tasks are immutable except for their summary, completion
	// details, and related files.
	StatusCompleted Status = "completed"
)

// validStatuses is the set of all known Status values.
var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// IsValid returns true if the status is a recognized value.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// ValidStatuses returns all valid task status values.
func ValidStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// Dependency is a directed reference from a task to a prerequisite task.
type Dependency struct {
	TaskID string `json:"taskId"`
}

// RelatedFileType classifies how a file relates to a task.
type RelatedFileType string

const (
	FileToModify   RelatedFileType = "TO_MODIFY"
	FileReference  RelatedFileType = "REFERENCE"
	FileCreate     RelatedFileType = "CREATE"
	FileDependency RelatedFileType = "DEPENDENCY"
	FileOther      RelatedFileType = "OTHER"
)

// IsValid returns true if the file type is a recognized value.
func (ft RelatedFileType) IsValid() bool {
	switch ft {
	case FileToModify, FileReference, FileCreate, FileDependency, FileOther:
		return true
	}
	return false
}

// RelatedFile records one file relevant to a task, optionally narrowed to a
// line range.
type RelatedFile struct {
	Path        string          `json:"path"`
	Type        RelatedFileType `json:"type"`
	Description string          `json:"description,omitempty"`
	LineStart   int             `json:"lineStart,omitempty"`
	LineEnd     int             `json:"lineEnd,omitempty"`
}

// Task is a single unit of work tracked by the store.
type Task struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Notes                string        `json:"notes,omitempty"`
	Status               Status        `json:"status"`
	Dependencies         []Dependency  `json:"dependencies"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty"`
	Summary              string        `json:"summary,omitempty"`
	CompletionDetails    string        `json:"completionDetails,omitempty"`
	ImplementationGuide  string        `json:"implementationGuide,omitempty"`
	VerificationCriteria string        `json:"verificationCriteria,omitempty"`
	RelatedFiles         []RelatedFile `json:"relatedFiles,omitempty"`
	Agent                string        `json:"agent,omitempty"`
	AnalysisResult       string        `json:"analysisResult,omitempty"`
}

// DependencyIDs returns the referenced prerequisite ids in edge order.
func (t *Task) DependencyIDs() []string {
	ids := make([]string, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		ids = append(ids, d.TaskID)
	}
	return ids
}

// TasksData is the full snapshot persisted as one unit: every live task plus
// the optional free-text initial request captured at project start.
type TasksData struct {
	Tasks          []Task    `json:"tasks"`
	InitialRequest string    `json:"initialRequest,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FindTask returns a pointer to the task with the given id, or nil.
func (d *TasksData) FindTask(id string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i]
		}
	}
	return nil
}

// Readiness reports whether a task's prerequisites allow execution.
// BlockedBy lists the ids of missing or not-yet-completed prerequisites.
type Readiness struct {
	CanExecute bool     `json:"canExecute"`
	BlockedBy  []string `json:"blockedBy,omitempty"`
}

// Archive describes one point-in-time snapshot file in the memory area.
type Archive struct {
	File        string    `json:"file"`
	CreatedAt   time.Time `json:"createdAt"`
	Description string    `json:"description,omitempty"`
	TaskCount   int       `json:"taskCount"`
	Version     string    `json:"version,omitempty"`
}

// DeletedTaskInfo is one recoverable record of a previously removed task.
type DeletedTaskInfo struct {
	Task      Task      `json:"task"`
	DeletedAt time.Time `json:"deletedAt"`
	File      string    `json:"file"`
}
