package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rashpile/pako-tasks/internal/audit"
	"github.com/rashpile/pako-tasks/internal/command"
	"github.com/rashpile/pako-tasks/internal/config"
	"github.com/rashpile/pako-tasks/internal/status"
	"github.com/rashpile/pako-tasks/internal/task"
)

func init() {
	color.NoColor = true
}

// execute runs the root command against a project directory with no
// config file, so defaults apply.
func execute(t *testing.T, project string, stdin string, args ...string) (string, error) {
	t.Helper()

	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))

	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	root.SetArgs(append([]string{"-c", cfgPath, "-p", project}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestTasksInit(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "tasks", "init")
	require.NoError(t, err)
	assert.Contains(t, out, task.Path(dir))

	defs, err := task.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, task.DefaultTasks(), defs)

	_, err = execute(t, dir, "", "tasks", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, dir, "", "tasks", "init", "--force")
	require.NoError(t, err)
}

func TestTasksList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, task.Save(dir, []task.Definition{
		{Name: "lint", Command: "golangci-lint run", Description: "Static checks"},
		{Name: "run-tests", Command: "go test ./..."},
	}))

	out, err := execute(t, dir, "", "tasks")
	require.NoError(t, err)

	assert.Contains(t, out, "lint")
	assert.Contains(t, out, "golangci-lint run")
	assert.Contains(t, out, "Static checks")
	assert.Contains(t, out, "bot: /run_tests")
	assert.NotContains(t, out, "using default tasks")
}

func TestTasksListFallsBackToDefaults(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "tasks")
	require.NoError(t, err)

	assert.Contains(t, out, "using default tasks")
	for _, d := range task.DefaultTasks() {
		assert.Contains(t, out, d.Command)
	}
}

func TestExplainFile(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "build.log")
	require.NoError(t, os.WriteFile(log, []byte("e: Main.kt:3:5 Unresolved reference: foo\n"), 0o644))

	out, err := execute(t, dir, "", "explain", log)
	require.NoError(t, err)
	assert.Contains(t, out, "Unresolved Reference")
	assert.Contains(t, out, "foo")
}

func TestExplainStdin(t *testing.T) {
	out, err := execute(t, t.TempDir(), "Traceback\nModuleNotFoundError: No module named 'requests'\n", "explain", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Missing Python Module")
	assert.Contains(t, out, "requests")
}

func TestExplainNoMatch(t *testing.T) {
	out, err := execute(t, t.TempDir(), "all good\n", "explain")
	require.NoError(t, err)
	assert.Contains(t, out, "No known error found.")
}

func TestExplainMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "", "explain", filepath.Join(dir, "nope.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read log")
}

func TestRunUnknownTask(t *testing.T) {
	_, err := execute(t, t.TempDir(), "", "run", "deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown task "deploy"`)
}

func TestFindTask(t *testing.T) {
	defs := task.DefaultTasks()

	def, ok := findTask(defs, "run-python")
	require.True(t, ok)
	assert.Equal(t, "python main.py", def.Command)

	def, ok = findTask(defs, "run_python")
	require.True(t, ok)
	assert.Equal(t, "run-python", def.Name)

	_, ok = findTask(defs, "deploy")
	assert.False(t, ok)
}

func TestNewServicesRegistersBuiltins(t *testing.T) {
	cfg := config.Default()
	cfg.ProjectRoot = t.TempDir()

	svc := NewServices(cfg, audit.NopLogger{}, status.NewGopsutilCollector(""))
	for _, name := range []string{"help", "tasks", "stop", "sh", "explain", "status", "history", "reload", "version"} {
		assert.True(t, svc.Registry.IsBuiltin(name), name)
	}

	svc.ReloadTasks()
	for _, d := range task.DefaultTasks() {
		assert.NotNil(t, svc.Registry.Get(command.CommandName(d.Name)), d.Name)
	}
	assert.Len(t, svc.Loader.Tasks(), len(task.DefaultTasks()))
}
