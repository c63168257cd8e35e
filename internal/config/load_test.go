package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, ".talon", cfg.Store.DataDir)
	assert.Equal(t, "tasks.json", cfg.Store.TasksFile)
	assert.Equal(t, "memory", cfg.Store.MemoryDir)
	assert.Equal(t, "git", cfg.History.GitBin)
	assert.Equal(t, 30, cfg.History.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Search.MaxHistoryFiles)
	assert.Equal(t, 5, cfg.Search.PageSize)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
[store]
data_dir = "state"

[search]
page_size = 20
`)

	cfg, used, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "state", cfg.Store.DataDir)
	assert.Equal(t, "tasks.json", cfg.Store.TasksFile, "unset keys keep defaults")
	assert.Equal(t, 20, cfg.Search.PageSize)
	assert.Equal(t, 10, cfg.Search.MaxHistoryFiles)
}

func TestLoad_WalksUpToParentDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeConfig(t, root, `[store]
data_dir = "found"
`)

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	cfg, used, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "found", cfg.Store.DataDir)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "[store\nbroken")

	_, _, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadFromFile_ReportsUndecodedKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
[store]
data_dir = "x"
typo_key = "y"
`)

	_, md, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, md.Undecoded())
}

func TestResolveLocations(t *testing.T) {
	t.Parallel()

	loc, err := ResolveLocations(StoreConfig{
		DataDir:   "state",
		TasksFile: "tasks.json",
		MemoryDir: "memory",
	}, "/base")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/base", "state"), loc.DataDir)
	assert.Equal(t, filepath.Join("/base", "state", "tasks.json"), loc.TasksFile)
	assert.Equal(t, filepath.Join("/base", "state", "memory"), loc.MemoryDir)
	assert.Equal(t, "tasks.json", loc.SnapshotName())
}

func TestResolveLocations_AbsoluteDataDirIgnoresBase(t *testing.T) {
	t.Parallel()

	abs := t.TempDir()
	loc, err := ResolveLocations(StoreConfig{
		DataDir:   abs,
		TasksFile: "tasks.json",
		MemoryDir: "memory",
	}, "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, abs, loc.DataDir)
}
