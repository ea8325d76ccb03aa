package builtin

import (
	"context"
	"fmt"
	"io"

	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// Stopper terminates the running task. Implemented by *executor.Engine.
type Stopper interface {
	ActiveReporter
	StopActiveTask()
}

// StopCommand kills the running task.
type StopCommand struct {
	stopper Stopper
}

// NewStopCommand creates a stop command.
func NewStopCommand(stopper Stopper) *StopCommand {
	return &StopCommand{stopper: stopper}
}

func (s *StopCommand) Name() string {
	return "stop"
}

func (s *StopCommand) Description() string {
	return "Stop the running task"
}

func (s *StopCommand) Category() pkgcmd.CategoryInfo {
	return systemCategory
}

// Execute stops the active task, if any.
func (s *StopCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	snap, ok := s.stopper.Active()
	s.stopper.StopActiveTask()

	if !ok {
		fmt.Fprintln(output, "No task is running")
		return nil
	}
	fmt.Fprintf(output, "Stopped %s (pid %d)\n", snap.Task, snap.PID)
	return nil
}
