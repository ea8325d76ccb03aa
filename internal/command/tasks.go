package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rashpile/pako-tasks/internal/audit"
	"github.com/rashpile/pako-tasks/internal/config"
	"github.com/rashpile/pako-tasks/internal/executor"
	"github.com/rashpile/pako-tasks/internal/task"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// TaskCategory groups task commands in the menu.
var TaskCategory = pkgcmd.CategoryInfo{Name: "tasks", Icon: "🛠"}

// TaskRunner runs a task to completion. Implemented by *executor.Engine.
type TaskRunner interface {
	Run(ctx context.Context, t task.Definition, workingDir string, onOutput executor.OutputSink) executor.Result
}

// CommandName turns a task name into a valid bot command name:
// lowercase letters, digits and underscores only.
func CommandName(taskName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(taskName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// TaskCommand is a Command backed by a project task.
type TaskCommand struct {
	def        task.Definition
	name       string
	workingDir string
	meta       pkgcmd.Metadata
	runner     TaskRunner
}

// NewTaskCommand wraps def so it can be invoked as a command.
func NewTaskCommand(def task.Definition, workingDir string, defaults config.DefaultsConfig, runner TaskRunner) *TaskCommand {
	return &TaskCommand{
		def:        def,
		name:       CommandName(def.Name),
		workingDir: workingDir,
		meta: pkgcmd.Metadata{
			Timeout:   defaults.Timeout,
			MaxOutput: defaults.MaxOutput,
		},
		runner: runner,
	}
}

// Name returns the command name derived from the task name.
func (c *TaskCommand) Name() string {
	return c.name
}

// Description returns the task description, or its command line if empty.
func (c *TaskCommand) Description() string {
	if c.def.Description == "" {
		return c.def.Command
	}
	return c.def.Description
}

// Definition returns the underlying task.
func (c *TaskCommand) Definition() task.Definition {
	return c.def
}

// Metadata returns command configuration.
func (c *TaskCommand) Metadata() pkgcmd.Metadata {
	return c.meta
}

// Category returns the command's category for menu grouping.
func (c *TaskCommand) Category() pkgcmd.CategoryInfo {
	return TaskCategory
}

// RunInfo describes the run for history.
func (c *TaskCommand) RunInfo(args []string) pkgcmd.RunInfo {
	return pkgcmd.RunInfo{Kind: audit.KindTask, Name: c.def.Name, Command: c.def.Command}
}

// Execute runs the task, streaming its output to output. Arguments are
// ignored. A non-zero exit is reported as *pkgcmd.ExitError.
func (c *TaskCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	if c.meta.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.meta.Timeout)
		defer cancel()
	}

	limited := executor.NewLimitedSink(executor.WriterSink(output), c.meta.MaxOutput)
	res := c.runner.Run(ctx, c.def, c.workingDir, limited.Sink())

	if limited.Truncated() {
		fmt.Fprintf(output, "\n[output truncated after %d bytes]\n", limited.Written())
	}
	if ctx.Err() == context.DeadlineExceeded {
		fmt.Fprintf(output, "\n[timed out after %s]\n", c.meta.Timeout)
	}

	if res.ExitCode != 0 {
		return &pkgcmd.ExitError{Code: res.ExitCode}
	}
	return nil
}

// Reserved reports names that task commands must not take.
type Reserved interface {
	IsBuiltin(name string) bool
}

// Loader builds task commands from the project's tasks.json.
type Loader struct {
	projectRoot string
	defaults    config.DefaultsConfig
	runner      TaskRunner
	reserved    Reserved
}

// NewLoader creates a task command loader. reserved may be nil.
func NewLoader(projectRoot string, defaults config.DefaultsConfig, runner TaskRunner, reserved Reserved) *Loader {
	return &Loader{
		projectRoot: projectRoot,
		defaults:    defaults,
		runner:      runner,
		reserved:    reserved,
	}
}

// Tasks returns the current task list, falling back to the defaults.
func (l *Loader) Tasks() []task.Definition {
	return task.LoadTasks(l.projectRoot)
}

// ProjectRoot returns the directory tasks run in.
func (l *Loader) ProjectRoot() string {
	return l.projectRoot
}

// Load converts every task into a command. Tasks whose command name is
// taken by a built-in or an earlier task are skipped with a warning.
func (l *Loader) Load() ([]pkgcmd.Command, error) {
	defs := l.Tasks()

	seen := make(map[string]struct{}, len(defs))
	commands := make([]pkgcmd.Command, 0, len(defs))
	for _, def := range defs {
		cmd := NewTaskCommand(def, l.projectRoot, l.defaults, l.runner)
		name := cmd.Name()

		if name == "" {
			slog.Warn("skipping task without a usable name", "task", def.Name)
			continue
		}
		if l.reserved != nil && l.reserved.IsBuiltin(name) {
			slog.Warn("task name clashes with a built-in command", "task", def.Name, "command", name)
			continue
		}
		if _, dup := seen[name]; dup {
			slog.Warn("duplicate task command", "task", def.Name, "command", name)
			continue
		}

		seen[name] = struct{}{}
		commands = append(commands, cmd)
	}

	return commands, nil
}
