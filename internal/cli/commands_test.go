package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelazizMoustafa10m/Talon/internal/task"
)

// runTalon executes the CLI with the given args against the current working
// directory, capturing stdout (structured output) and stderr (human output).
func runTalon(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	resetRootCmd(t)

	var out, errBuf bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)

	code = Execute()
	return out.String(), errBuf.String(), code
}

// createTask creates a task through the CLI and returns its decoded form.
func createTask(t *testing.T, args ...string) task.Task {
	t.Helper()
	out, _, code := runTalon(t, append([]string{"create"}, append(args, "--json")...)...)
	require.Equal(t, 0, code, "create failed: %s", out)

	var created task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	return created
}

func TestCreateListShow_RoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	created := createTask(t, "fix parser", "-d", "handles empty input")
	assert.Equal(t, task.StatusPending, created.Status)

	out, _, code := runTalon(t, "list", "--json")
	require.Equal(t, 0, code)
	var tasks []task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "fix parser", tasks[0].Name)

	out, _, code = runTalon(t, "show", created.ID, "--json")
	require.Equal(t, 0, code)
	var shown task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "handles empty input", shown.Description)

	// The snapshot landed in the default layout.
	_, err := os.Stat(filepath.Join(".talon", "tasks.json"))
	assert.NoError(t, err)
}

func TestCreate_DependencyWarningPrinted(t *testing.T) {
	t.Chdir(t.TempDir())

	var out, errBuf bytes.Buffer
	resetRootCmd(t)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"create", "solo", "--depends-on", "ghost"})

	require.Equal(t, 0, Execute())
	assert.Contains(t, errBuf.String(), "ghost")
}

func TestSetStatusAndCanRun(t *testing.T) {
	t.Chdir(t.TempDir())

	base := createTask(t, "base")
	dep := createTask(t, "dependent", "--depends-on", "base")

	// Blocked while the prerequisite is open; can-run exits non-zero.
	_, _, code := runTalon(t, "can-run", dep.ID)
	assert.Equal(t, 1, code)

	_, _, code = runTalon(t, "set-status", base.ID, "completed")
	require.Equal(t, 0, code)

	_, _, code = runTalon(t, "can-run", dep.ID)
	assert.Equal(t, 0, code)

	_, _, code = runTalon(t, "set-status", dep.ID, "nonsense")
	assert.Equal(t, 1, code)
}

func TestUpdate_CompletedImmutabilitySurfaces(t *testing.T) {
	t.Chdir(t.TempDir())

	created := createTask(t, "done soon")
	_, _, code := runTalon(t, "set-status", created.ID, "completed")
	require.Equal(t, 0, code)

	_, _, code = runTalon(t, "update", created.ID, "--name", "too late")
	assert.Equal(t, 1, code)

	out, _, code := runTalon(t, "update", created.ID, "--summary", "all green", "--json")
	require.Equal(t, 0, code)
	var updated task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, "all green", updated.Summary)
}

func TestDeleteDeletedRecover_RoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	base := createTask(t, "base")
	dep := createTask(t, "dependent", "--depends-on", "base")

	// Deleting a depended-on task is refused.
	_, _, code := runTalon(t, "delete", base.ID)
	assert.Equal(t, 1, code)

	_, _, code = runTalon(t, "delete", dep.ID)
	require.Equal(t, 0, code)

	out, _, code := runTalon(t, "deleted", "--json")
	require.Equal(t, 0, code)
	var infos []task.DeletedTaskInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, dep.ID, infos[0].Task.ID)

	_, _, code = runTalon(t, "recover", dep.ID)
	require.Equal(t, 0, code)

	out, _, code = runTalon(t, "show", dep.ID, "--json")
	require.Equal(t, 0, code)
	var recovered task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &recovered))
	assert.Equal(t, "dependent", recovered.Name)
}

func TestPlan_ReconcilesBatchFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	specs := `{"tasks": [
	  {"name": "first"},
	  {"name": "second", "dependencies": ["first"]}
	], "initialRequest": "build the widget"}`
	planFile := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(planFile, []byte(specs), 0644))

	out, _, code := runTalon(t, "plan", planFile, "--mode", "clearAllTasks", "--json")
	require.Equal(t, 0, code)

	var res task.ReconcileResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Created)
	assert.Len(t, res.Tasks, 2)
}

func TestArchiveCreateListRestore(t *testing.T) {
	t.Chdir(t.TempDir())

	createTask(t, "keep me")

	_, _, code := runTalon(t, "archive", "create", "-d", "checkpoint")
	require.Equal(t, 0, code)

	out, _, code := runTalon(t, "archive", "list", "--json")
	require.Equal(t, 0, code)
	var archives []task.Archive
	require.NoError(t, json.Unmarshal([]byte(out), &archives))
	require.Len(t, archives, 1)
	assert.Equal(t, "checkpoint", archives[0].Description)

	_, _, code = runTalon(t, "clear", "--yes")
	require.Equal(t, 0, code)

	_, _, code = runTalon(t, "archive", "restore", archives[0].File)
	require.Equal(t, 0, code)

	out, _, code = runTalon(t, "list", "--json")
	require.Equal(t, 0, code)
	var tasks []task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "keep me", tasks[0].Name)
}

func TestSearch_AcrossLiveAndArchived(t *testing.T) {
	t.Chdir(t.TempDir())

	createTask(t, "archived widget")
	_, _, code := runTalon(t, "archive", "create")
	require.Equal(t, 0, code)
	_, _, code = runTalon(t, "clear", "--yes")
	require.Equal(t, 0, code)
	createTask(t, "live widget")

	out, _, code := runTalon(t, "search", "widget", "--json")
	require.Equal(t, 0, code)

	var res task.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Pagination.TotalResults)
}

func TestHistory_RecordsOperations(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	t.Chdir(t.TempDir())

	created := createTask(t, "tracked")

	out, _, code := runTalon(t, "history", "--task", created.ID, "--json")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Add new task")
}

func TestStatus_JSONOutput(t *testing.T) {
	t.Chdir(t.TempDir())

	base := createTask(t, "base")
	createTask(t, "dependent", "--depends-on", "base")
	_, _, code := runTalon(t, "set-status", base.ID, "in_progress")
	require.Equal(t, 0, code)

	out, _, code := runTalon(t, "status", "--json")
	require.Equal(t, 0, code)

	var status statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 1, status.InProgress)
	assert.Equal(t, 1, status.Pending)
	assert.Equal(t, 1, status.Blocked)
	assert.Equal(t, 1, status.Ready)
}

func TestConfigFile_RedirectsLayout(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile("talon.toml", []byte(`
[store]
data_dir = "custom-state"
`), 0644))

	createTask(t, "relocated")

	_, err := os.Stat(filepath.Join(dir, "custom-state", "tasks.json"))
	assert.NoError(t, err)
}
