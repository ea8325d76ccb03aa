package builtin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rashpile/pako-tasks/internal/executor"
	"github.com/rashpile/pako-tasks/internal/status"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// ActiveReporter reports the running task. Implemented by *executor.Engine.
type ActiveReporter interface {
	Active() (executor.Snapshot, bool)
}

// StatusCommand shows host resource usage and the running task.
type StatusCommand struct {
	collector status.Collector
	active    ActiveReporter
}

// NewStatusCommand creates a status command.
func NewStatusCommand(collector status.Collector, active ActiveReporter) *StatusCommand {
	return &StatusCommand{collector: collector, active: active}
}

// Name returns "status".
func (s *StatusCommand) Name() string {
	return "status"
}

// Description returns the status description.
func (s *StatusCommand) Description() string {
	return "Show the running task and CPU, memory, disk usage"
}

func (s *StatusCommand) Category() pkgcmd.CategoryInfo {
	return systemCategory
}

// Execute collects and writes system metrics.
func (s *StatusCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	s.writeActive(ctx, output)

	metrics, err := s.collector.Collect(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "System Status\n")
	fmt.Fprintf(output, "─────────────\n\n")

	fmt.Fprintf(output, "CPU:    %5.1f%%\n", metrics.CPUPercent)
	fmt.Fprintf(output, "Memory: %5.1f%% (%s / %s)\n",
		metrics.MemoryPercent,
		status.FormatBytes(metrics.MemoryUsed),
		status.FormatBytes(metrics.MemoryTotal),
	)
	fmt.Fprintf(output, "Disk:   %5.1f%% (%s / %s)\n",
		metrics.DiskPercent,
		status.FormatBytes(metrics.DiskUsed),
		status.FormatBytes(metrics.DiskTotal),
	)

	return nil
}

func (s *StatusCommand) writeActive(ctx context.Context, output io.Writer) {
	snap, ok := s.active.Active()
	if !ok {
		fmt.Fprintf(output, "No task running\n\n")
		return
	}

	fmt.Fprintf(output, "Running: %s (pid %d, %s)\n", snap.Task, snap.PID, time.Since(snap.Started).Round(time.Second))

	proc, err := s.collector.Process(ctx, snap.PID)
	if err != nil {
		// The task may exit between the two calls.
		slog.Debug("process metrics unavailable", "pid", snap.PID, "error", err)
		fmt.Fprintln(output)
		return
	}
	fmt.Fprintf(output, "         %s, CPU %.1f%%, RSS %s, %d children\n\n",
		proc.Name, proc.CPUPercent, status.FormatBytes(proc.RSS), proc.Children)
}
