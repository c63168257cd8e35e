package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/AbdelazizMoustafa10m/Talon/internal/config"
	"github.com/AbdelazizMoustafa10m/Talon/internal/history"
	"github.com/AbdelazizMoustafa10m/Talon/internal/logging"
	"github.com/AbdelazizMoustafa10m/Talon/internal/textsearch"
)

// Store is the persistent task store. Every operation runs a full
// read-snapshot, mutate-in-memory, write-snapshot cycle; a mutex serializes
// operations within the process, and the last writer wins across processes.
// History commits after a write are best-effort audit and never fail the
// caller's operation.
type Store struct {
	mu       sync.Mutex
	snapshot *SnapshotFile
	recorder history.Recorder
	searcher textsearch.Searcher
	loc      config.Locations
	logger   *log.Logger

	// maxHistoryFiles caps how many memory-area files the historical
	// search pass inspects.
	maxHistoryFiles int
}

// Options tunes store behavior beyond the resolved locations.
type Options struct {
	// MaxHistoryFiles caps the historical search candidate set.
	// Zero means the default of 10.
	MaxHistoryFiles int
}

// NewStore creates a Store over the resolved locations. recorder and
// searcher may be nil, which disables history commits and the historical
// search pass respectively (used by tests and read-only tooling).
func NewStore(loc config.Locations, recorder history.Recorder, searcher textsearch.Searcher, opts Options) *Store {
	maxFiles := opts.MaxHistoryFiles
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &Store{
		snapshot:        NewSnapshotFile(loc.TasksFile),
		recorder:        recorder,
		searcher:        searcher,
		loc:             loc,
		logger:          logging.New("store"),
		maxHistoryFiles: maxFiles,
	}
}

// Locations returns the on-disk layout the store operates on.
func (s *Store) Locations() config.Locations { return s.loc }

// commit records a history entry for the operation summary. Failures are
// logged and swallowed: history is best-effort audit, not a transaction log.
func (s *Store) commit(ctx context.Context, message string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Commit(ctx, message); err != nil {
		s.logger.Warn("history commit failed", "message", message, "error", err)
	}
}

// QueryHistory scans the versioned history log for entries matching the
// filter, newest first.
func (s *Store) QueryHistory(ctx context.Context, f history.Filter) ([]history.Entry, error) {
	if s.recorder == nil {
		return nil, nil
	}
	return s.recorder.Query(ctx, f)
}

// Data returns the full current snapshot.
func (s *Store) Data(ctx context.Context) (*TasksData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Read()
}

// List returns all live tasks in snapshot order.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	data, err := s.Data(ctx)
	if err != nil {
		return nil, err
	}
	return data.Tasks, nil
}

// Get returns the task with the given id, or ErrTaskNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	data, err := s.Data(ctx)
	if err != nil {
		return nil, err
	}
	t := data.FindTask(id)
	if t == nil {
		return nil, fmt.Errorf("getting task %q: %w", id, ErrTaskNotFound)
	}
	out := *t
	return &out, nil
}

// CreateRequest carries the fields of a new task. Dependencies may name
// prerequisite tasks by id or by name; references that resolve to nothing
// are dropped and reported as warnings.
type CreateRequest struct {
	Name                 string
	Description          string
	Notes                string
	Dependencies         []string
	RelatedFiles         []RelatedFile
	ImplementationGuide  string
	VerificationCriteria string
	Agent                string
}

// Create appends a new PENDING task to the snapshot and commits
// "Add new task: <name>". The returned warnings list any dependency
// references that could not be resolved.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Task, []string, error) {
	if req.Name == "" {
		return nil, nil, fmt.Errorf("creating task: name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("creating task: %w", err)
	}

	now := time.Now()
	t := Task{
		ID:                   uuid.NewString(),
		Name:                 req.Name,
		Description:          req.Description,
		Notes:                req.Notes,
		Status:               StatusPending,
		Dependencies:         []Dependency{},
		CreatedAt:            now,
		UpdatedAt:            now,
		RelatedFiles:         req.RelatedFiles,
		ImplementationGuide:  req.ImplementationGuide,
		VerificationCriteria: req.VerificationCriteria,
		Agent:                req.Agent,
	}

	edges, warnings := resolveDependencies(req.Dependencies, data.Tasks, nil)
	t.Dependencies = edges

	data.Tasks = append(data.Tasks, t)
	if err := s.snapshot.Write(data); err != nil {
		return nil, nil, fmt.Errorf("creating task %q: %w", req.Name, err)
	}

	s.commit(ctx, fmt.Sprintf("Add new task: %s (%s)", t.Name, t.ID))
	s.logger.Info("task created", "id", t.ID, "name", t.Name)
	return &t, warnings, nil
}

// Patch carries a partial update. Nil fields are left untouched. For a
// COMPLETED task only Summary, CompletionDetails, and RelatedFiles may be
// set; a patch touching any other field is rejected whole.
type Patch struct {
	Name                 *string
	Description          *string
	Notes                *string
	Status               *Status
	Summary              *string
	CompletionDetails    *string
	ImplementationGuide  *string
	VerificationCriteria *string
	Agent                *string
	Dependencies         *[]string
	RelatedFiles         *[]RelatedFile
}

// completedMutableFields is the only field set a COMPLETED task accepts.
var completedMutableFields = map[string]bool{
	"summary":           true,
	"completionDetails": true,
	"relatedFiles":      true,
}

// fields returns the names of the fields present in the patch.
func (p Patch) fields() []string {
	var set []string
	add := func(name string, present bool) {
		if present {
			set = append(set, name)
		}
	}
	add("name", p.Name != nil)
	add("description", p.Description != nil)
	add("notes", p.Notes != nil)
	add("status", p.Status != nil)
	add("summary", p.Summary != nil)
	add("completionDetails", p.CompletionDetails != nil)
	add("implementationGuide", p.ImplementationGuide != nil)
	add("verificationCriteria", p.VerificationCriteria != nil)
	add("agent", p.Agent != nil)
	add("dependencies", p.Dependencies != nil)
	add("relatedFiles", p.RelatedFiles != nil)
	return set
}

// Update applies a partial update to the task with the given id. Unknown
// ids return ErrTaskNotFound. Completed-task immutability is enforced by
// rejecting, not ignoring, disallowed fields. Warnings list dependency
// references dropped during resolution.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*Task, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("updating task %q: %w", id, err)
	}

	t := data.FindTask(id)
	if t == nil {
		return nil, nil, fmt.Errorf("updating task %q: %w", id, ErrTaskNotFound)
	}

	if t.Status == StatusCompleted {
		var offending []string
		for _, f := range p.fields() {
			if !completedMutableFields[f] {
				offending = append(offending, f)
			}
		}
		if len(offending) > 0 {
			return nil, nil, &CompletedTaskError{ID: t.ID, Name: t.Name, Fields: offending}
		}
	}

	warnings := s.applyPatch(t, p, data)

	t.UpdatedAt = time.Now()
	if err := s.snapshot.Write(data); err != nil {
		return nil, nil, fmt.Errorf("updating task %q: %w", id, err)
	}

	s.commit(ctx, fmt.Sprintf("Update task: %s (%s)", t.Name, t.ID))
	out := *t
	return &out, warnings, nil
}

// applyPatch copies the present patch fields onto the task. Dependency
// references are re-wrapped into edges with unresolved refs dropped; the
// returned warnings report them.
func (s *Store) applyPatch(t *Task, p Patch, data *TasksData) []string {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Summary != nil {
		t.Summary = *p.Summary
	}
	if p.CompletionDetails != nil {
		t.CompletionDetails = *p.CompletionDetails
	}
	if p.ImplementationGuide != nil {
		t.ImplementationGuide = *p.ImplementationGuide
	}
	if p.VerificationCriteria != nil {
		t.VerificationCriteria = *p.VerificationCriteria
	}
	if p.Agent != nil {
		t.Agent = *p.Agent
	}
	if p.RelatedFiles != nil {
		t.RelatedFiles = *p.RelatedFiles
	}

	var warnings []string
	if p.Dependencies != nil {
		edges, w := resolveDependencies(*p.Dependencies, data.Tasks, []string{t.ID})
		t.Dependencies = edges
		warnings = append(warnings, w...)
		// Rewiring edges on an existing task can close a loop that task
		// creation cannot (a new task has no inbound edges yet).
		for _, cycle := range detectCycles(data.Tasks) {
			warnings = append(warnings, "dependency cycle: "+cycle)
		}
	}

	if p.Status != nil {
		t.Status = *p.Status
		if *p.Status == StatusCompleted {
			now := time.Now()
			t.CompletedAt = &now
		}
	}
	return warnings
}

// UpdateStatus transitions the task to the given status. Transitioning to
// COMPLETED stamps CompletedAt. Completed tasks reject further status
// changes.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) (*Task, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("updating status of task %q: invalid status %q", id, status)
	}
	t, _, err := s.Update(ctx, id, Patch{Status: &status})
	return t, err
}

// ContentPatch carries the fields UpdateContent may modify. Nil fields are
// left untouched; an all-nil patch is a successful no-op.
type ContentPatch struct {
	Name                 *string
	Description          *string
	Notes                *string
	RelatedFiles         *[]RelatedFile
	Dependencies         *[]string
	ImplementationGuide  *string
	VerificationCriteria *string
	Agent                *string
}

// UpdateContent applies content fields to a non-completed task. Completed
// tasks are rejected outright, regardless of which fields are present.
func (s *Store) UpdateContent(ctx context.Context, id string, p ContentPatch) (*Task, []string, error) {
	// Pre-check completion so even an allowed-field patch is refused.
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if current.Status == StatusCompleted {
		return nil, nil, &CompletedTaskError{ID: current.ID, Name: current.Name, Fields: []string{"content"}}
	}

	patch := Patch{
		Name:                 p.Name,
		Description:          p.Description,
		Notes:                p.Notes,
		RelatedFiles:         p.RelatedFiles,
		Dependencies:         p.Dependencies,
		ImplementationGuide:  p.ImplementationGuide,
		VerificationCriteria: p.VerificationCriteria,
		Agent:                p.Agent,
	}
	if len(patch.fields()) == 0 {
		return current, nil, nil
	}
	return s.Update(ctx, id, patch)
}

// Delete removes a task from the snapshot. Completed tasks cannot be
// deleted; neither can tasks that non-completed tasks still depend on (the
// error names the blockers). A deleted-task backup file is written before
// removal so the task stays recoverable.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return fmt.Errorf("deleting task %q: %w", id, err)
	}

	t := data.FindTask(id)
	if t == nil {
		return fmt.Errorf("deleting task %q: %w", id, ErrTaskNotFound)
	}
	if t.Status == StatusCompleted {
		return &CompletedTaskError{ID: t.ID, Name: t.Name}
	}

	var dependents []TaskRef
	for i := range data.Tasks {
		other := &data.Tasks[i]
		if other.ID == id || other.Status == StatusCompleted {
			continue
		}
		for _, dep := range other.Dependencies {
			if dep.TaskID == id {
				dependents = append(dependents, TaskRef{ID: other.ID, Name: other.Name})
				break
			}
		}
	}
	if len(dependents) > 0 {
		return &BlockedDeleteError{ID: t.ID, Name: t.Name, Dependents: dependents}
	}

	if err := s.writeDeletedBackup([]Task{*t}); err != nil {
		return fmt.Errorf("deleting task %q: %w", id, err)
	}

	kept := data.Tasks[:0]
	for i := range data.Tasks {
		if data.Tasks[i].ID != id {
			kept = append(kept, data.Tasks[i])
		}
	}
	data.Tasks = kept

	if err := s.snapshot.Write(data); err != nil {
		return fmt.Errorf("deleting task %q: %w", id, err)
	}

	s.commit(ctx, fmt.Sprintf("Delete task: %s (%s)", t.Name, t.ID))
	s.logger.Info("task deleted", "id", t.ID, "name", t.Name)
	return nil
}

// resolveDependencies wraps raw id-or-name references into edges against
// the given task set. A reference that parses as a uuid must name an
// existing task id; anything else is matched by task name. Unresolved
// references are dropped and reported in the warnings. selfIDs lists ids a
// task may not depend on (itself).
func resolveDependencies(refs []string, tasks []Task, selfIDs []string) ([]Dependency, []string) {
	byID := make(map[string]bool, len(tasks))
	byName := make(map[string]string, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = true
		if _, dup := byName[tasks[i].Name]; !dup {
			byName[tasks[i].Name] = tasks[i].ID
		}
	}
	self := make(map[string]bool, len(selfIDs))
	for _, id := range selfIDs {
		self[id] = true
	}

	edges := []Dependency{}
	var warnings []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		var resolved string
		if _, err := uuid.Parse(ref); err == nil {
			if byID[ref] {
				resolved = ref
			}
		} else if id, ok := byName[ref]; ok {
			resolved = id
		}

		switch {
		case resolved == "":
			warnings = append(warnings, fmt.Sprintf("dependency %q does not match any task; dropped", ref))
		case self[resolved]:
			warnings = append(warnings, fmt.Sprintf("task cannot depend on itself (%q); dropped", ref))
		case !seen[resolved]:
			seen[resolved] = true
			edges = append(edges, Dependency{TaskID: resolved})
		}
	}
	return edges, warnings
}
