package executor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// StderrPrefix marks stderr lines in Runner output.
	StderrPrefix = "Error: "

	// FailurePrefix replaces the output when a command cannot run.
	FailurePrefix = "Execution failed: "
)

// Runner executes one-shot commands synchronously. It is not cancelable
// and never touches the Engine's active-process slot.
type Runner struct{}

// NewRunner creates a runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Execute runs command in workingDir (the current directory when empty)
// and returns all stdout lines followed by all stderr lines, the latter
// prefixed with "Error: ". The exit status is not part of the result.
// If the command cannot be started or read, the result is
// "Execution failed: <reason>".
func (r *Runner) Execute(command, workingDir string) string {
	out, err := r.execute(command, workingDir)
	if err != nil {
		slog.Warn("command execution failed", "command", command, "error", err)
		return FailurePrefix + err.Error()
	}
	return out
}

func (r *Runner) execute(command, workingDir string) (string, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return "", ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workingDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", err
	}

	// Both streams are drained at once so a chatty stderr cannot block the
	// child while stdout is still being read.
	var outLines, errLines []string
	var g errgroup.Group
	g.Go(func() error {
		var err error
		outLines, err = collectLines(stdout)
		return err
	})
	g.Go(func() error {
		var err error
		errLines, err = collectLines(stderr)
		return err
	})
	readErr := g.Wait()
	waitErr := cmd.Wait()

	if readErr != nil {
		return "", fmt.Errorf("read output: %w", readErr)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return "", fmt.Errorf("wait: %w", waitErr)
	}

	var b strings.Builder
	for _, line := range outLines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range errLines {
		b.WriteString(StderrPrefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func collectLines(r io.Reader) ([]string, error) {
	var lines []string
	err := readLines(r, func(chunk string) {
		lines = append(lines, strings.TrimSuffix(chunk, "\n"))
	})
	return lines, err
}
