package task

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArchive_WritesEnvelope(t *testing.T) {
	t.Parallel()
	s, rec := newTestStore(t)

	mustCreate(t, s, CreateRequest{Name: "alpha"})
	mustCreate(t, s, CreateRequest{Name: "beta"})

	a, err := s.CreateArchive(context.Background(), "before refactor")
	require.NoError(t, err)
	assert.Contains(t, a.File, "archive_")
	assert.Equal(t, 2, a.TaskCount)
	assert.Equal(t, "before refactor", a.Description)
	assert.Equal(t, "Archive tasks", rec.lastMessage())

	raw, err := os.ReadFile(filepath.Join(s.Locations().MemoryDir, a.File))
	require.NoError(t, err)
	var env archiveEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Len(t, env.Tasks, 2)
	assert.Equal(t, schemaVersion, env.Version)
}

func TestListArchives_NewestFirstAndTolerant(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	mustCreate(t, s, CreateRequest{Name: "alpha"})
	first, err := s.CreateArchive(context.Background(), "first")
	require.NoError(t, err)
	second, err := s.CreateArchive(context.Background(), "second")
	require.NoError(t, err)

	// A corrupt archive file is skipped, not fatal.
	corrupt := filepath.Join(s.Locations().MemoryDir, "archive_0000-corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0644))

	archives, err := s.ListArchives(context.Background())
	require.NoError(t, err)
	require.Len(t, archives, 2)
	assert.Equal(t, second.File, archives[0].File)
	assert.Equal(t, first.File, archives[1].File)
}

func TestListArchives_LegacyBareListShape(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Locations().MemoryDir, 0755))

	legacy := `[{"id":"t1","name":"old","status":"pending"}]`
	path := filepath.Join(s.Locations().MemoryDir, "archive_2020-01-01T00-00-00.000.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	archives, err := s.ListArchives(context.Background())
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, 1, archives[0].TaskCount)
	assert.False(t, archives[0].CreatedAt.IsZero(), "falls back to file mtime")
}

func TestRestoreFromArchive_ReplaceRegeneratesIDs(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	a := mustCreate(t, s, CreateRequest{Name: "alpha"})
	b := mustCreate(t, s, CreateRequest{Name: "beta", Dependencies: []string{a.ID}})
	archive, err := s.CreateArchive(context.Background(), "")
	require.NoError(t, err)

	_, err = s.ClearAllTasks(context.Background())
	require.NoError(t, err)

	count, err := s.RestoreFromArchive(context.Background(), archive.File, false, false)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	var alpha, beta *Task
	for i := range tasks {
		switch tasks[i].Name {
		case "alpha":
			alpha = &tasks[i]
		case "beta":
			beta = &tasks[i]
		}
	}
	require.NotNil(t, alpha)
	require.NotNil(t, beta)
	assert.NotEqual(t, a.ID, alpha.ID, "ids regenerate by default")
	assert.NotEqual(t, b.ID, beta.ID)
	assert.Equal(t, []string{alpha.ID}, beta.DependencyIDs(), "edges remap to the new ids")
}

func TestRestoreFromArchive_PreserveIDs(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	a := mustCreate(t, s, CreateRequest{Name: "alpha"})
	archive, err := s.CreateArchive(context.Background(), "")
	require.NoError(t, err)

	_, err = s.ClearAllTasks(context.Background())
	require.NoError(t, err)

	_, err = s.RestoreFromArchive(context.Background(), archive.File, false, true)
	require.NoError(t, err)

	got, err := s.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name)
}

func TestRestoreFromArchive_MergeAddsOnlyUnknownIDs(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	mustCreate(t, s, CreateRequest{Name: "alpha"})
	archive, err := s.CreateArchive(context.Background(), "")
	require.NoError(t, err)

	mustCreate(t, s, CreateRequest{Name: "beta"})

	// Merge with preserved ids: "alpha" already lives, so nothing is added.
	count, err := s.RestoreFromArchive(context.Background(), archive.File, true, true)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestRestoreFromArchive_NotFound(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	_, err := s.RestoreFromArchive(context.Background(), "archive_nope.json", false, false)
	assert.ErrorIs(t, err, ErrArchiveNotFound)
}

// ---- ClearAllTasks ----------------------------------------------------------

func TestClearAllTasks_BacksUpCompletedOnly(t *testing.T) {
	t.Parallel()
	s, rec := newTestStore(t)

	done := mustCreate(t, s, CreateRequest{Name: "done"})
	_, err := s.UpdateStatus(context.Background(), done.ID, StatusCompleted)
	require.NoError(t, err)
	mustCreate(t, s, CreateRequest{Name: "in flight"})

	backup, err := s.ClearAllTasks(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, backup)
	assert.Contains(t, backup, "backup_deleted_")
	assert.Equal(t, "Clear all tasks", rec.lastMessage())

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	env, err := readBackupFile(filepath.Join(s.Locations().MemoryDir, backup))
	require.NoError(t, err)
	require.Len(t, env.allTasks(), 1)
	assert.Equal(t, "done", env.allTasks()[0].Name)
}

func TestClearAllTasks_NoCompletedMeansNoBackup(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	mustCreate(t, s, CreateRequest{Name: "in flight"})

	backup, err := s.ClearAllTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backup)
}

// ---- DeletedTasks / RecoverTask ---------------------------------------------

func TestDeletedTasks_ListsNewestFirst(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	first := mustCreate(t, s, CreateRequest{Name: "first"})
	second := mustCreate(t, s, CreateRequest{Name: "second"})
	require.NoError(t, s.Delete(context.Background(), first.ID))
	require.NoError(t, s.Delete(context.Background(), second.ID))

	infos, err := s.DeletedTasks(context.Background(), DeletedTaskQuery{})
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, second.ID, infos[0].Task.ID)
	assert.Equal(t, first.ID, infos[1].Task.ID)
}

func TestDeletedTasks_SinceAndLimit(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	doomed := mustCreate(t, s, CreateRequest{Name: "doomed"})
	require.NoError(t, s.Delete(context.Background(), doomed.ID))

	infos, err := s.DeletedTasks(context.Background(), DeletedTaskQuery{
		Since: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, infos)

	other := mustCreate(t, s, CreateRequest{Name: "other"})
	require.NoError(t, s.Delete(context.Background(), other.ID))

	infos, err = s.DeletedTasks(context.Background(), DeletedTaskQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestRecoverTask_RoundTrip(t *testing.T) {
	t.Parallel()
	s, rec := newTestStore(t)

	doomed := mustCreate(t, s, CreateRequest{Name: "doomed", Notes: "precious"})
	require.NoError(t, s.Delete(context.Background(), doomed.ID))

	got, err := s.RecoverTask(context.Background(), doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, doomed.ID, got.ID)
	assert.Equal(t, "precious", got.Notes)
	assert.True(t, got.UpdatedAt.After(doomed.UpdatedAt))
	assert.Equal(t, "Recover task: doomed ("+doomed.ID+")", rec.lastMessage())

	_, err = s.Get(context.Background(), doomed.ID)
	assert.NoError(t, err)
}

func TestRecoverTask_LiveIDRejected(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	alive := mustCreate(t, s, CreateRequest{Name: "alive"})
	_, err := s.RecoverTask(context.Background(), alive.ID)
	assert.ErrorIs(t, err, ErrTaskExists)
}

func TestRecoverTask_NoBackup(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	_, err := s.RecoverTask(context.Background(), "never-existed")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestRecoverTask_DanglingEdgesPruned(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	base := mustCreate(t, s, CreateRequest{Name: "base"})
	dep := mustCreate(t, s, CreateRequest{Name: "dependent", Dependencies: []string{base.ID}})

	require.NoError(t, s.Delete(context.Background(), dep.ID))
	require.NoError(t, s.Delete(context.Background(), base.ID))

	// base is gone for good, so the recovered dependent loses its edge.
	got, err := s.RecoverTask(context.Background(), dep.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Dependencies)
}
