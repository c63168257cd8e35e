package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

// Memory-area file naming. Timestamps use a filesystem-safe layout whose
// lexicographic order matches chronological order, so sorting file names
// descending yields the most recent files first.
const (
	archivePrefix = "archive_"
	backupPrefix  = "backup_deleted_"

	archivePattern = "archive_*.json"
	backupPattern  = "backup_deleted_*.json"

	fileStampLayout = "2006-01-02T15-04-05.000"

	// schemaVersion tags newly written archive files.
	schemaVersion = "2.0"
)

// archiveEnvelope is the on-disk shape of an archive file. Two older shapes
// are also read: an object holding only {tasks}, and a bare task list.
type archiveEnvelope struct {
	CreatedAt      time.Time `json:"createdAt"`
	Description    string    `json:"description,omitempty"`
	TaskCount      int       `json:"taskCount"`
	Version        string    `json:"version,omitempty"`
	InitialRequest string    `json:"initialRequest,omitempty"`
	Tasks          []Task    `json:"tasks"`
}

// backupEnvelope is the on-disk shape of a deleted-task backup. Single-task
// backups (from Delete) carry Task; multi-task backups (from ClearAllTasks)
// carry Tasks.
type backupEnvelope struct {
	DeletedAt time.Time `json:"deletedAt"`
	Task      *Task     `json:"task,omitempty"`
	Tasks     []Task    `json:"tasks,omitempty"`
}

// CreateArchive snapshots the entire current task set into a uniquely
// timestamped file in the memory area. The live snapshot is committed to
// history immediately before archiving so the archive always corresponds to
// a recorded revision.
func (s *Store) CreateArchive(ctx context.Context, description string) (*Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	s.commit(ctx, "Archive tasks")

	now := time.Now()
	env := archiveEnvelope{
		CreatedAt:      now,
		Description:    description,
		TaskCount:      len(data.Tasks),
		Version:        schemaVersion,
		InitialRequest: data.InitialRequest,
		Tasks:          data.Tasks,
	}
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("creating archive: encoding: %w", err)
	}

	path := s.freshMemoryFile(archivePrefix, now)
	if err := writeFileAtomic(path, payload); err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	s.logger.Info("archive created", "file", filepath.Base(path), "tasks", env.TaskCount)
	return &Archive{
		File:        filepath.Base(path),
		CreatedAt:   now,
		Description: description,
		TaskCount:   env.TaskCount,
		Version:     schemaVersion,
	}, nil
}

// ListArchives scans the memory area for archive files, newest first. Files
// that fail to parse are skipped, not fatal.
func (s *Store) ListArchives(ctx context.Context) ([]Archive, error) {
	names, err := s.memoryFiles(archivePattern)
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}

	var archives []Archive
	for _, name := range names {
		env, err := readArchiveFile(filepath.Join(s.loc.MemoryDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable archive", "file", name, "error", err)
			continue
		}
		createdAt := env.CreatedAt
		if createdAt.IsZero() {
			if info, err := os.Stat(filepath.Join(s.loc.MemoryDir, name)); err == nil {
				createdAt = info.ModTime()
			}
		}
		count := env.TaskCount
		if count == 0 {
			count = len(env.Tasks)
		}
		archives = append(archives, Archive{
			File:        name,
			CreatedAt:   createdAt,
			Description: env.Description,
			TaskCount:   count,
			Version:     env.Version,
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].CreatedAt.After(archives[j].CreatedAt)
	})
	return archives, nil
}

// RestoreFromArchive loads the archive's task list back into the live
// snapshot. Task ids are regenerated unless preserveIDs is set; every
// restored task gets a fresh update timestamp. In merge mode only tasks
// whose id is absent from the live set are added; in replace mode the live
// set is wholly substituted. Returns the number of restored tasks.
func (s *Store) RestoreFromArchive(ctx context.Context, file string, merge, preserveIDs bool) (int, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.loc.MemoryDir, file)
	}
	env, err := readArchiveFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("restoring from %q: %w", file, ErrArchiveNotFound)
		}
		return 0, fmt.Errorf("restoring from %q: %w", file, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return 0, fmt.Errorf("restoring from %q: %w", file, err)
	}

	restored := prepareRestoredTasks(env.Tasks, preserveIDs)

	mode := "replace"
	var count int
	if merge {
		mode = "merge"
		live := make(map[string]bool, len(data.Tasks))
		for i := range data.Tasks {
			live[data.Tasks[i].ID] = true
		}
		for _, t := range restored {
			if !live[t.ID] {
				data.Tasks = append(data.Tasks, t)
				count++
			}
		}
	} else {
		data.Tasks = restored
		count = len(restored)
		if env.InitialRequest != "" {
			data.InitialRequest = env.InitialRequest
		}
	}

	pruneDanglingEdges(data.Tasks)

	if err := s.snapshot.Write(data); err != nil {
		return 0, fmt.Errorf("restoring from %q: %w", file, err)
	}

	s.commit(ctx, fmt.Sprintf("Restore from archive %s (mode=%s)", filepath.Base(path), mode))
	s.logger.Info("archive restored", "file", filepath.Base(path), "mode", mode, "tasks", count)
	return count, nil
}

// prepareRestoredTasks stamps fresh update times and, unless ids are
// preserved, regenerates every id while remapping dependency edges within
// the restored set.
func prepareRestoredTasks(tasks []Task, preserveIDs bool) []Task {
	now := time.Now()
	restored := append([]Task{}, tasks...)

	if !preserveIDs {
		remap := make(map[string]string, len(restored))
		for i := range restored {
			remap[restored[i].ID] = uuid.NewString()
		}
		for i := range restored {
			t := &restored[i]
			t.ID = remap[t.ID]
			for j, dep := range t.Dependencies {
				if fresh, ok := remap[dep.TaskID]; ok {
					t.Dependencies[j].TaskID = fresh
				}
			}
		}
	}

	for i := range restored {
		restored[i].UpdatedAt = now
		if restored[i].Dependencies == nil {
			restored[i].Dependencies = []Dependency{}
		}
	}
	return restored
}

// pruneDanglingEdges drops dependency edges whose target id is not in the
// task set, preserving the invariant that persisted edges always resolve.
func pruneDanglingEdges(tasks []Task) {
	present := make(map[string]bool, len(tasks))
	for i := range tasks {
		present[tasks[i].ID] = true
	}
	for i := range tasks {
		kept := tasks[i].Dependencies[:0]
		for _, dep := range tasks[i].Dependencies {
			if present[dep.TaskID] {
				kept = append(kept, dep)
			}
		}
		tasks[i].Dependencies = kept
	}
}

// ClearAllTasks moves every currently completed task into a timestamped
// backup file, then empties the live snapshot entirely. Non-completed tasks
// are discarded without backup -- this is destructive for in-flight work,
// and callers must warn before invoking it. Returns the backup file name,
// or "" when there were no completed tasks to back up.
func (s *Store) ClearAllTasks(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return "", fmt.Errorf("clearing tasks: %w", err)
	}

	var completed []Task
	for _, t := range data.Tasks {
		if t.Status == StatusCompleted {
			completed = append(completed, t)
		}
	}

	backupFile := ""
	if len(completed) > 0 {
		path, err := s.writeBackupEnvelope(backupEnvelope{
			DeletedAt: time.Now(),
			Tasks:     completed,
		})
		if err != nil {
			return "", fmt.Errorf("clearing tasks: %w", err)
		}
		backupFile = filepath.Base(path)
	}

	data.Tasks = []Task{}
	if err := s.snapshot.Write(data); err != nil {
		return "", fmt.Errorf("clearing tasks: %w", err)
	}

	s.commit(ctx, "Clear all tasks")
	s.logger.Info("all tasks cleared", "backedUp", len(completed), "backup", backupFile)
	return backupFile, nil
}

// DeletedTaskQuery narrows a deleted-task listing.
type DeletedTaskQuery struct {
	// Since drops records deleted before the given time.
	Since time.Time
	// Limit caps the number of returned records (0 = no cap).
	Limit int
}

// DeletedTasks scans the memory area for deleted-task backups, newest
// deletion first. Unreadable files are skipped.
func (s *Store) DeletedTasks(ctx context.Context, q DeletedTaskQuery) ([]DeletedTaskInfo, error) {
	names, err := s.memoryFiles(backupPattern)
	if err != nil {
		return nil, fmt.Errorf("listing deleted tasks: %w", err)
	}

	var infos []DeletedTaskInfo
	for _, name := range names {
		env, err := readBackupFile(filepath.Join(s.loc.MemoryDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable backup", "file", name, "error", err)
			continue
		}
		for _, t := range env.allTasks() {
			infos = append(infos, DeletedTaskInfo{Task: t, DeletedAt: env.DeletedAt, File: name})
		}
	}

	if !q.Since.IsZero() {
		kept := infos[:0]
		for _, info := range infos {
			if !info.DeletedAt.Before(q.Since) {
				kept = append(kept, info)
			}
		}
		infos = kept
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].DeletedAt.After(infos[j].DeletedAt)
	})
	if q.Limit > 0 && len(infos) > q.Limit {
		infos = infos[:q.Limit]
	}
	return infos, nil
}

// RecoverTask reinserts a previously deleted task from its backup. It fails
// when a live task with the id already exists or when no backup contains
// the id. The recovered task keeps its original fields and history but gets
// a fresh update timestamp.
func (s *Store) RecoverTask(ctx context.Context, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshot.Read()
	if err != nil {
		return nil, fmt.Errorf("recovering task %q: %w", id, err)
	}
	if data.FindTask(id) != nil {
		return nil, fmt.Errorf("recovering task %q: %w", id, ErrTaskExists)
	}

	infos, err := s.DeletedTasks(ctx, DeletedTaskQuery{})
	if err != nil {
		return nil, fmt.Errorf("recovering task %q: %w", id, err)
	}

	var found *Task
	for i := range infos {
		if infos[i].Task.ID == id {
			found = &infos[i].Task
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("recovering task %q: %w", id, ErrBackupNotFound)
	}

	t := *found
	t.UpdatedAt = time.Now()
	if t.Dependencies == nil {
		t.Dependencies = []Dependency{}
	}
	data.Tasks = append(data.Tasks, t)
	pruneDanglingEdges(data.Tasks)

	if err := s.snapshot.Write(data); err != nil {
		return nil, fmt.Errorf("recovering task %q: %w", id, err)
	}

	s.commit(ctx, fmt.Sprintf("Recover task: %s (%s)", t.Name, t.ID))
	s.logger.Info("task recovered", "id", t.ID, "name", t.Name)
	return &t, nil
}

// writeDeletedBackup records removed tasks in a timestamped backup file.
func (s *Store) writeDeletedBackup(tasks []Task) error {
	env := backupEnvelope{DeletedAt: time.Now()}
	if len(tasks) == 1 {
		env.Task = &tasks[0]
	} else {
		env.Tasks = tasks
	}
	_, err := s.writeBackupEnvelope(env)
	return err
}

func (s *Store) writeBackupEnvelope(env backupEnvelope) (string, error) {
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}
	path := s.freshMemoryFile(backupPrefix, env.DeletedAt)
	if err := writeFileAtomic(path, payload); err != nil {
		return "", err
	}
	return path, nil
}

// freshMemoryFile returns an unused timestamped path in the memory area.
// Same-millisecond collisions get a numeric suffix.
func (s *Store) freshMemoryFile(prefix string, ts time.Time) string {
	base := prefix + ts.Format(fileStampLayout)
	path := filepath.Join(s.loc.MemoryDir, base+".json")
	for n := 2; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(s.loc.MemoryDir, fmt.Sprintf("%s_%d.json", base, n))
	}
}

// memoryFiles lists memory-area file names matching the glob pattern,
// sorted descending so timestamp-named files come newest first. A missing
// memory directory yields an empty list.
func (s *Store) memoryFiles(pattern string) ([]string, error) {
	entries, err := os.ReadDir(s.loc.MemoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading memory dir %q: %w", s.loc.MemoryDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// readArchiveFile parses an archive file, tolerating the three historical
// shapes: the current envelope, a {tasks} object without metadata, and a
// bare task list.
func readArchiveFile(path string) (*archiveEnvelope, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tasks []Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("decoding legacy archive list: %w", err)
		}
		return &archiveEnvelope{Tasks: tasks, TaskCount: len(tasks)}, nil
	}

	var env archiveEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	return &env, nil
}

// readBackupFile parses a deleted-task backup, tolerating single-task and
// multi-task shapes as well as a bare task list.
func readBackupFile(path string) (*backupEnvelope, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tasks []Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("decoding legacy backup list: %w", err)
		}
		return &backupEnvelope{Tasks: tasks}, nil
	}

	var env backupEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding backup: %w", err)
	}
	return &env, nil
}

// allTasks flattens the two backup shapes into one list.
func (b *backupEnvelope) allTasks() []Task {
	if b.Task != nil {
		return []Task{*b.Task}
	}
	return b.Tasks
}
