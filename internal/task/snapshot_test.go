package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFile_ReadCreatesEmptySnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "tasks.json")
	sf := NewSnapshotFile(path)

	data, err := sf.Read()
	require.NoError(t, err)
	assert.Empty(t, data.Tasks)
	assert.False(t, data.CreatedAt.IsZero())

	// The file now exists on disk.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSnapshotFile_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	sf := NewSnapshotFile(filepath.Join(t.TempDir(), "tasks.json"))
	data, err := sf.Read()
	require.NoError(t, err)

	data.Tasks = append(data.Tasks, Task{ID: "t1", Name: "roundtrip", Status: StatusInProgress})
	data.InitialRequest = "build a widget"
	require.NoError(t, sf.Write(data))

	got, err := sf.Read()
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "roundtrip", got.Tasks[0].Name)
	assert.Equal(t, StatusInProgress, got.Tasks[0].Status)
	assert.Equal(t, "build a widget", got.InitialRequest)
}

func TestSnapshotFile_NoTempFileLeftBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sf := NewSnapshotFile(filepath.Join(dir, "tasks.json"))
	data, err := sf.Read()
	require.NoError(t, err)
	require.NoError(t, sf.Write(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tasks.json", entries[0].Name())
}

func TestDecodeSnapshot_LegacyBareList(t *testing.T) {
	t.Parallel()

	raw := []byte(`[
	  {"id": "t1", "name": "old task"},
	  {"id": "t2", "name": "older task", "status": "completed"}
	]`)

	data, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	require.Len(t, data.Tasks, 2)
	assert.Equal(t, StatusPending, data.Tasks[0].Status, "missing status defaults to pending")
	assert.Equal(t, StatusCompleted, data.Tasks[1].Status)
	assert.NotNil(t, data.Tasks[0].Dependencies)
	assert.False(t, data.Tasks[0].CreatedAt.IsZero())
	assert.False(t, data.CreatedAt.IsZero())
}

func TestDecodeSnapshot_ObjectShape(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
	  "tasks": [{"id": "t1", "name": "task", "status": "pending"}],
	  "initialRequest": "do the thing",
	  "createdAt": "2026-01-02T03:04:05Z",
	  "updatedAt": "2026-01-03T03:04:05Z"
	}`)

	data, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, "do the thing", data.InitialRequest)
	assert.Equal(t, 2026, data.CreatedAt.Year())
	require.Len(t, data.Tasks, 1)
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	t.Parallel()

	_, err := DecodeSnapshot([]byte("{broken"))
	assert.Error(t, err)

	_, err = DecodeSnapshot([]byte("[broken"))
	assert.Error(t, err)
}
