package builtin

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rashpile/pako-tasks/internal/audit"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// HistoryCommand shows recent runs.
type HistoryCommand struct {
	logger audit.Logger
}

// NewHistoryCommand creates a history command.
func NewHistoryCommand(logger audit.Logger) *HistoryCommand {
	return &HistoryCommand{logger: logger}
}

func (h *HistoryCommand) Name() string {
	return "history"
}

func (h *HistoryCommand) Description() string {
	return "Show recent runs: /history [count]"
}

func (h *HistoryCommand) Category() pkgcmd.CategoryInfo {
	return systemCategory
}

// Execute lists the newest runs first.
func (h *HistoryCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	limit := defaultHistoryLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("count must be a positive number, got %q", args[0])
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.logger.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(output, "No runs recorded yet")
		return nil
	}

	for _, e := range entries {
		mark := "✓"
		if e.ExitCode != 0 {
			mark = "✗"
		}
		fmt.Fprintf(output, "%s %s %s (exit %d, %s)",
			e.Timestamp.Local().Format("01-02 15:04"),
			mark,
			e.Name,
			e.ExitCode,
			(time.Duration(e.DurationMs) * time.Millisecond).Round(100*time.Millisecond),
		)
		if e.Username != "" {
			fmt.Fprintf(output, " @%s", e.Username)
		}
		fmt.Fprintln(output)
		if e.Kind == audit.KindShell {
			fmt.Fprintf(output, "    $ %s\n", e.Command)
		}
	}

	return nil
}
