package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mode selects the strategy for merging an incoming task batch into the
// existing store.
type Mode string

const (
	// ModeAppend keeps every existing task; each spec becomes a new task.
	ModeAppend Mode = "append"

	// ModeOverwrite drops every existing non-completed task, keeps
	// completed ones, then adds new tasks for every spec.
	ModeOverwrite Mode = "overwrite"

	// ModeSelective updates existing non-completed tasks whose names match
	// a spec in place; unmatched specs become new tasks; existing tasks
	// not named in the batch are kept untouched.
	ModeSelective Mode = "selective"

	// ModeClearAll discards every existing task regardless of status, then
	// adds new tasks for every spec.
	ModeClearAll Mode = "clearAllTasks"
)

// IsValid reports whether the mode is a known reconciliation strategy.
func (m Mode) IsValid() bool {
	switch m {
	case ModeAppend, ModeOverwrite, ModeSelective, ModeClearAll:
		return true
	}
	return false
}

// TaskSpec is one incoming task specification in a batch. Dependencies may
// reference other tasks by id or by name, including names introduced by the
// same batch.
type TaskSpec struct {
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Notes                string        `json:"notes,omitempty"`
	Dependencies         []string      `json:"dependencies,omitempty"`
	RelatedFiles         []RelatedFile `json:"relatedFiles,omitempty"`
	ImplementationGuide  string        `json:"implementationGuide,omitempty"`
	VerificationCriteria string        `json:"verificationCriteria,omitempty"`
	Agent                string        `json:"agent,omitempty"`
}

// ReconcileRequest is the input to Reconcile.
type ReconcileRequest struct {
	Specs []TaskSpec
	Mode  Mode

	// Analysis is an optional global note attached to every task the batch
	// creates or updates.
	Analysis string

	// InitialRequest optionally records the free-text project request on
	// the snapshot. It is written when the snapshot has none yet, or when
	// the batch replaces everything (clearAllTasks).
	InitialRequest string
}

// ReconcileResult reports the outcome of one batch merge.
type ReconcileResult struct {
	// Tasks is the full live task list after the merge.
	Tasks []Task `json:"tasks"`

	Created int `json:"created"`
	Updated int `json:"updated"`
	Kept    int `json:"kept"`

	// Warnings lists dropped dependency references, stale edges pruned
	// from kept tasks, and any dependency cycles the merged graph
	// contains. Nothing is dropped silently.
	Warnings []string `json:"warnings,omitempty"`
}

// Reconcile merges an incoming task batch into the store under the given
// mode, persists the merged set as one write, and commits a summary of the
// operation.
func (s *Store) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	if !req.Mode.IsValid() {
		return nil, fmt.Errorf("reconciling tasks: unknown mode %q", req.Mode)
	}
	for i, spec := range req.Specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("reconciling tasks: spec %d has no name", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return nil, fmt.Errorf("reconciling tasks: %w", err)
	}

	res := &ReconcileResult{}
	now := time.Now()

	// Phase 1: decide the kept set and build the updated/new tasks.
	var kept []Task
	switch req.Mode {
	case ModeAppend, ModeSelective:
		kept = data.Tasks
	case ModeOverwrite:
		for _, t := range data.Tasks {
			if t.Status == StatusCompleted {
				kept = append(kept, t)
			}
		}
	case ModeClearAll:
		kept = nil
	}

	// In selective mode, specs matching a kept non-completed task by name
	// update it in place (same id and creation time).
	updatedByName := make(map[string]int) // name -> index into kept
	if req.Mode == ModeSelective {
		for i := range kept {
			if kept[i].Status != StatusCompleted {
				if _, dup := updatedByName[kept[i].Name]; !dup {
					updatedByName[kept[i].Name] = i
				}
			}
		}
	}

	// rawDeps remembers each created/updated task's unresolved references
	// until the combined name map exists.
	rawDeps := make(map[string][]string)

	merged := append([]Task{}, kept...)
	res.Kept = len(kept)

	for _, spec := range req.Specs {
		if idx, ok := updatedByName[spec.Name]; ok && req.Mode == ModeSelective {
			delete(updatedByName, spec.Name) // a second same-name spec creates a new task
			t := &merged[idx]
			t.Description = spec.Description
			t.Notes = spec.Notes
			t.ImplementationGuide = spec.ImplementationGuide
			t.VerificationCriteria = spec.VerificationCriteria
			if spec.RelatedFiles != nil {
				t.RelatedFiles = spec.RelatedFiles
			}
			if spec.Agent != "" {
				t.Agent = spec.Agent
			}
			if req.Analysis != "" {
				t.AnalysisResult = req.Analysis
			}
			t.UpdatedAt = now
			rawDeps[t.ID] = spec.Dependencies
			res.Updated++
			res.Kept--
			continue
		}

		t := Task{
			ID:                   uuid.NewString(),
			Name:                 spec.Name,
			Description:          spec.Description,
			Notes:                spec.Notes,
			Status:               StatusPending,
			Dependencies:         []Dependency{},
			CreatedAt:            now,
			UpdatedAt:            now,
			RelatedFiles:         spec.RelatedFiles,
			ImplementationGuide:  spec.ImplementationGuide,
			VerificationCriteria: spec.VerificationCriteria,
			Agent:                spec.Agent,
			AnalysisResult:       req.Analysis,
		}
		rawDeps[t.ID] = spec.Dependencies
		merged = append(merged, t)
		res.Created++
	}

	// Phase 2: resolve dependency references against the combined set.
	for i := range merged {
		t := &merged[i]
		if refs, ok := rawDeps[t.ID]; ok {
			edges, warnings := resolveDependencies(refs, merged, []string{t.ID})
			t.Dependencies = edges
			res.Warnings = append(res.Warnings, warnings...)
			continue
		}
		// Kept tasks may hold edges to tasks the mode dropped; prune them
		// so no edge refers to a missing id.
		pruned := t.Dependencies[:0]
		for _, dep := range t.Dependencies {
			if taskSetContains(merged, dep.TaskID) {
				pruned = append(pruned, dep)
			} else {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"task %q: dependency on removed task %s dropped", t.Name, dep.TaskID))
			}
		}
		t.Dependencies = pruned
	}

	// Phase 3: report cycles the merged graph contains. Cyclic tasks stay
	// permanently blocked rather than looping, but the caller should know.
	for _, cycle := range detectCycles(merged) {
		res.Warnings = append(res.Warnings, "dependency cycle: "+cycle)
	}

	data.Tasks = merged
	if req.InitialRequest != "" && (data.InitialRequest == "" || req.Mode == ModeClearAll) {
		data.InitialRequest = req.InitialRequest
	}
	if err := s.snapshot.Write(data); err != nil {
		return nil, fmt.Errorf("reconciling tasks: %w", err)
	}

	s.commit(ctx, fmt.Sprintf("Batch reconcile (%s): %d new tasks", req.Mode, res.Created))
	s.logger.Info("batch reconciled",
		"mode", req.Mode, "created", res.Created, "updated", res.Updated, "kept", res.Kept)

	res.Tasks = merged
	return res, nil
}

func taskSetContains(tasks []Task, id string) bool {
	for i := range tasks {
		if tasks[i].ID == id {
			return true
		}
	}
	return false
}
