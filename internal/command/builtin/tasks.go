package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/rashpile/pako-tasks/internal/command"
	"github.com/rashpile/pako-tasks/internal/task"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// TaskSource provides the project's task list.
type TaskSource interface {
	Tasks() []task.Definition
	ProjectRoot() string
}

// TasksCommand lists project tasks with their command lines.
type TasksCommand struct {
	source TaskSource
}

// NewTasksCommand creates a tasks command.
func NewTasksCommand(source TaskSource) *TasksCommand {
	return &TasksCommand{source: source}
}

func (c *TasksCommand) Name() string {
	return "tasks"
}

func (c *TasksCommand) Description() string {
	return "List project tasks"
}

func (c *TasksCommand) Category() pkgcmd.CategoryInfo {
	return command.TaskCategory
}

// Execute writes one entry per task.
func (c *TasksCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	defs := c.source.Tasks()
	root := c.source.ProjectRoot()

	if _, err := task.Load(root); err != nil {
		fmt.Fprintf(output, "Default tasks (no valid %s in %s):\n\n", task.FileName, root)
	} else {
		fmt.Fprintf(output, "Tasks from %s:\n\n", task.Path(root))
	}

	for _, d := range defs {
		fmt.Fprintf(output, "/%s  %s\n", command.CommandName(d.Name), d.Command)
		if d.Description != "" {
			fmt.Fprintf(output, "    %s\n", d.Description)
		}
	}

	return nil
}
