package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SnapshotFile reads and writes the single JSON snapshot holding all live
// tasks. Writes use an atomic write pattern (write to temp file then rename)
// for cross-platform safety. SnapshotFile carries no in-memory cache: every
// Read goes to disk and every Write replaces the whole file.
type SnapshotFile struct {
	path string
}

// NewSnapshotFile creates a SnapshotFile for the given path.
func NewSnapshotFile(path string) *SnapshotFile {
	return &SnapshotFile{path: path}
}

// Path returns the backing file path.
func (s *SnapshotFile) Path() string { return s.path }

// Read loads the snapshot. If the backing file does not exist it is created
// with an empty snapshot, so a successful Read always leaves a file on disk.
//
// Two historical shapes are accepted: the current object form
// {tasks, initialRequest, createdAt, updatedAt} and the legacy bare task
// list. Both normalize to TasksData, with missing timestamps defaulting to
// now.
func (s *SnapshotFile) Read() (*TasksData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading snapshot %q: %w", s.path, err)
		}
		now := time.Now()
		data := &TasksData{Tasks: []Task{}, CreatedAt: now, UpdatedAt: now}
		if err := s.Write(data); err != nil {
			return nil, fmt.Errorf("initializing snapshot %q: %w", s.path, err)
		}
		return data, nil
	}

	data, err := DecodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %q: %w", s.path, err)
	}
	return data, nil
}

// Write persists the full snapshot atomically, refreshing the snapshot-level
// UpdatedAt stamp.
func (s *SnapshotFile) Write(data *TasksData) error {
	data.UpdatedAt = time.Now()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = data.UpdatedAt
	}
	if data.Tasks == nil {
		data.Tasks = []Task{}
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return writeFileAtomic(s.path, payload)
}

// DecodeSnapshot normalizes raw snapshot bytes into TasksData, accepting
// both the current object shape and the legacy bare task list.
func DecodeSnapshot(raw []byte) (*TasksData, error) {
	trimmed := bytes.TrimSpace(raw)
	now := time.Now()

	if len(trimmed) > 0 && trimmed[0] == '[' {
		// Legacy shape: a bare list of tasks with no snapshot metadata.
		var tasks []Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("decoding legacy task list: %w", err)
		}
		data := &TasksData{Tasks: tasks, CreatedAt: now, UpdatedAt: now}
		normalizeTimestamps(data, now)
		return data, nil
	}

	var data TasksData
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = now
	}
	if data.UpdatedAt.IsZero() {
		data.UpdatedAt = now
	}
	normalizeTimestamps(&data, now)
	return &data, nil
}

// normalizeTimestamps fills zero per-task timestamps with the fallback time
// and guarantees non-nil dependency slices.
func normalizeTimestamps(data *TasksData, fallback time.Time) {
	if data.Tasks == nil {
		data.Tasks = []Task{}
	}
	for i := range data.Tasks {
		t := &data.Tasks[i]
		if t.CreatedAt.IsZero() {
			t.CreatedAt = fallback
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = fallback
		}
		if t.Dependencies == nil {
			t.Dependencies = []Dependency{}
		}
		if t.Status == "" {
			t.Status = StatusPending
		}
	}
}

// writeFileAtomic writes payload to a temporary file in the same directory
// as path, then renames it into place. The parent directory is created on
// demand. File permissions are 0644.
func writeFileAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("writing temp file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("renaming temp file to %q: %w", path, err)
	}
	return nil
}
