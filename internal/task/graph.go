package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// CanExecute computes execution readiness for the task with the given id.
// A completed task can never be (re-)executed. A task with no dependency
// edges is always executable. Otherwise BlockedBy collects the ids of
// prerequisites that are missing from the snapshot or not yet completed.
//
// Only direct edges are inspected; there is no transitive closure, so a
// dependency cycle cannot loop here -- it just leaves every member blocked.
func (s *Store) CanExecute(ctx context.Context, id string) (Readiness, error) {
	data, err := s.Data(ctx)
	if err != nil {
		return Readiness{}, fmt.Errorf("checking readiness of task %q: %w", id, err)
	}

	t := data.FindTask(id)
	if t == nil {
		return Readiness{}, fmt.Errorf("checking readiness of task %q: %w", id, ErrTaskNotFound)
	}
	if t.Status == StatusCompleted {
		return Readiness{CanExecute: false}, nil
	}
	if len(t.Dependencies) == 0 {
		return Readiness{CanExecute: true}, nil
	}

	var blocked []string
	for _, dep := range t.Dependencies {
		prereq := data.FindTask(dep.TaskID)
		if prereq == nil || prereq.Status != StatusCompleted {
			blocked = append(blocked, dep.TaskID)
		}
	}
	return Readiness{CanExecute: len(blocked) == 0, BlockedBy: blocked}, nil
}

// detectCycles finds dependency cycles among the given tasks using a
// three-color depth-first search. It returns one human-readable description
// per distinct cycle, suitable for surfacing as reconciliation warnings.
func detectCycles(tasks []Task) []string {
	byID := make(map[string]*Task, len(tasks))
	ids := make([]string, 0, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
		ids = append(ids, tasks[i].ID)
	}
	sort.Strings(ids) // deterministic traversal order

	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(tasks))
	var cycles []string
	var path []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		path = append(path, id)

		t := byID[id]
		for _, dep := range t.Dependencies {
			next, ok := byID[dep.TaskID]
			if !ok {
				continue
			}
			switch color[next.ID] {
			case white:
				visit(next.ID)
			case gray:
				// Found a back edge: the cycle is the path suffix from the
				// first occurrence of next.ID.
				start := 0
				for i, p := range path {
					if p == next.ID {
						start = i
						break
					}
				}
				names := make([]string, 0, len(path)-start+1)
				for _, p := range path[start:] {
					names = append(names, byID[p].Name)
				}
				names = append(names, next.Name)
				cycles = append(cycles, strings.Join(names, " -> "))
			}
		}

		path = path[:len(path)-1]
		color[id] = black
	}

	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles
}
