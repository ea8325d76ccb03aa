// Package command defines the interface for commands the bot can invoke.
// Project tasks and built-ins such as /stop or /status both implement it.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Command defines the contract for all executable commands.
type Command interface {
	// Name returns the command name without the leading slash (e.g., "build").
	Name() string

	// Description returns a human-readable description for /help output.
	Description() string

	// Execute runs the command with given arguments, streaming output to writer.
	// The context carries cancellation signals for timeout/shutdown.
	Execute(ctx context.Context, args []string, output io.Writer) error
}

// Metadata holds optional command configuration.
type Metadata struct {
	Timeout        time.Duration // 0 means no deadline
	MaxOutput      int
	RequireConfirm bool
}

// DefaultMetadata returns the defaults used when a command has none.
func DefaultMetadata() Metadata {
	return Metadata{
		MaxOutput: 64 * 1024,
	}
}

// WithMetadata extends Command with configuration options.
type WithMetadata interface {
	Command
	Metadata() Metadata
}

// CategoryInfo holds category metadata for menu organization.
type CategoryInfo struct {
	Name string // Category name (e.g., "system", "tasks")
	Icon string // Emoji icon (e.g., "📊", "🛠")
}

// WithCategory extends Command with category information for menu grouping.
type WithCategory interface {
	Command
	Category() CategoryInfo
}

// RunInfo describes what an audited command ran.
type RunInfo struct {
	Kind    string
	Name    string
	Command string
}

// WithAudit marks commands whose runs are recorded in history.
type WithAudit interface {
	Command
	RunInfo(args []string) RunInfo
}

// RawArgs marks commands that take the message text after the command
// verbatim instead of split arguments.
type RawArgs interface {
	Command
	RawArgs() bool
}

// ExitError reports a process that ran to completion with a non-zero code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode maps an Execute error to a process exit code: 0 for nil, the
// code carried by an ExitError, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
