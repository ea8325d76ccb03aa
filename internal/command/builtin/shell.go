package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rashpile/pako-tasks/internal/audit"
	"github.com/rashpile/pako-tasks/internal/executor"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// ErrNoCommand is returned by /sh without a command line.
var ErrNoCommand = errors.New("usage: /sh <command>")

// CommandExecutor runs one-shot commands. Implemented by *executor.Runner.
type CommandExecutor interface {
	Execute(command, workingDir string) string
}

// ShellCommand runs a free-form command in the project root. The command
// line is split on whitespace; there is no shell interpretation.
type ShellCommand struct {
	runner     CommandExecutor
	workingDir string
	confirm    bool
	maxOutput  int
}

// NewShellCommand creates a console command. Output beyond maxOutput bytes
// is dropped; zero or less means unlimited.
func NewShellCommand(runner CommandExecutor, workingDir string, confirm bool, maxOutput int) *ShellCommand {
	return &ShellCommand{runner: runner, workingDir: workingDir, confirm: confirm, maxOutput: maxOutput}
}

func (s *ShellCommand) Name() string {
	return "sh"
}

func (s *ShellCommand) Description() string {
	return "Run a command in the project root"
}

func (s *ShellCommand) Category() pkgcmd.CategoryInfo {
	return pkgcmd.CategoryInfo{Name: "console", Icon: "💻"}
}

func (s *ShellCommand) Metadata() pkgcmd.Metadata {
	m := pkgcmd.DefaultMetadata()
	m.MaxOutput = s.maxOutput
	m.RequireConfirm = s.confirm
	return m
}

// RawArgs makes the bot pass the message text verbatim.
func (s *ShellCommand) RawArgs() bool {
	return true
}

func (s *ShellCommand) RunInfo(args []string) pkgcmd.RunInfo {
	return pkgcmd.RunInfo{Kind: audit.KindShell, Name: s.Name(), Command: strings.Join(args, " ")}
}

// Execute runs the command and writes its captured output. A launch
// failure is reported as exit code -1.
func (s *ShellCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	line := strings.TrimSpace(strings.Join(args, " "))
	if line == "" {
		return ErrNoCommand
	}

	out := s.runner.Execute(line, s.workingDir)

	limited := executor.NewLimitedSink(executor.WriterSink(output), s.maxOutput)
	for _, chunk := range strings.SplitAfter(out, "\n") {
		if chunk != "" {
			limited.Write(chunk)
		}
	}
	if limited.Truncated() {
		fmt.Fprintf(output, "\n[output truncated after %d bytes]\n", limited.Written())
	}

	if strings.HasPrefix(out, executor.FailurePrefix) {
		return &pkgcmd.ExitError{Code: -1}
	}
	return nil
}
