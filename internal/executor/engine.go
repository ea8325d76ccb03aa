// Package executor runs external commands for the task console.
//
// Engine streams one long-running task at a time and owns the single
// active-process slot. Runner executes short one-shot commands and returns
// their captured output as text.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rashpile/pako-tasks/internal/task"
)

// ExecutionErrorPrefix marks engine failures in the output stream.
const ExecutionErrorPrefix = "Execution Error: "

// ErrEmptyCommand is returned when a command line has no executable.
var ErrEmptyCommand = errors.New("empty command")

// Result is the structured outcome of a task run.
// Err is set only when the process could not be started or read;
// a non-zero ExitCode alone is not an error.
type Result struct {
	ExitCode int
	Err      error
}

// Snapshot describes the currently active process.
type Snapshot struct {
	Task       string
	PID        int
	Generation uint64
	Started    time.Time
}

type activeProcess struct {
	generation uint64
	task       string
	proc       *procHandle
	started    time.Time
}

// Engine runs tasks one at a time. Starting a task kills whatever task is
// still running; the newest start always wins.
//
// Each run stamps its process with a generation from a monotonic counter.
// A run clears the active slot on exit only if the slot still carries its
// own generation, so a killed run finishing late never erases a newer one.
type Engine struct {
	generation atomic.Uint64

	mu     sync.Mutex
	active *activeProcess
}

// NewEngine creates an idle engine.
func NewEngine() *Engine {
	return &Engine{}
}

// RunTask runs t in workingDir and blocks until the process exits or is
// killed, passing each output line to onOutput. It returns the exit code,
// or -1 if the process could not be launched or its output could not be
// read; in that case the failure text is reported through onOutput first.
//
// Cancelling ctx kills the process.
func (e *Engine) RunTask(ctx context.Context, t task.Definition, workingDir string, onOutput OutputSink) int {
	return e.Run(ctx, t, workingDir, onOutput).ExitCode
}

// Run is RunTask with the underlying error kept for programmatic callers.
func (e *Engine) Run(ctx context.Context, t task.Definition, workingDir string, onOutput OutputSink) Result {
	if onOutput == nil {
		onOutput = func(string) {}
	}
	logger := slog.With("task", t.Name, "dir", workingDir)

	e.StopActiveTask()

	start := time.Now()
	code, err := e.run(ctx, t, workingDir, onOutput)
	if err != nil {
		logger.Warn("task execution failed", "error", err)
		onOutput(ExecutionErrorPrefix + err.Error() + "\n")
		return Result{ExitCode: -1, Err: err}
	}

	logger.Info("task finished", "exit_code", code, "duration", time.Since(start).Round(time.Millisecond))
	return Result{ExitCode: code}
}

func (e *Engine) run(ctx context.Context, t task.Definition, workingDir string, onOutput OutputSink) (int, error) {
	argv := strings.Fields(t.Command)
	if len(argv) == 0 {
		return -1, ErrEmptyCommand
	}

	// One pipe for both streams keeps stdout and stderr in the order the
	// OS delivered them.
	pr, pw, err := os.Pipe()
	if err != nil {
		return -1, fmt.Errorf("create output pipe: %w", err)
	}
	defer pr.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workingDir
	cmd.Stdout = pw
	cmd.Stderr = pw
	setProcessGroup(cmd)

	err = cmd.Start()
	pw.Close()
	if err != nil {
		return -1, err
	}

	h := newProcHandle(cmd.Process)
	gen := e.claim(t.Name, h)
	defer e.release(gen)

	stop := context.AfterFunc(ctx, func() {
		h.kill()
	})
	defer stop()

	readErr := readLines(pr, onOutput)
	if readErr != nil {
		h.kill()
	}
	waitErr := h.wait(cmd)

	if readErr != nil {
		return -1, fmt.Errorf("read output: %w", readErr)
	}
	return exitCode(waitErr)
}

// StopActiveTask kills the active process, if any, and clears the slot.
// It returns without waiting for the process to be reaped.
func (e *Engine) StopActiveTask() {
	e.mu.Lock()
	prev := e.active
	e.active = nil
	e.mu.Unlock()

	if prev == nil {
		return
	}
	prev.proc.kill()
	slog.Info("stopped active task", "task", prev.task, "pid", prev.proc.pid(), "generation", prev.generation)
}

// Active reports the process currently owned by the engine.
func (e *Engine) Active() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return Snapshot{}, false
	}
	return Snapshot{
		Task:       e.active.task,
		PID:        e.active.proc.pid(),
		Generation: e.active.generation,
		Started:    e.active.started,
	}, true
}

// claim installs proc as the active process under a new generation.
// A process registered since this run's StopActiveTask is killed.
func (e *Engine) claim(name string, proc *procHandle) uint64 {
	e.mu.Lock()
	gen := e.generation.Add(1)
	prev := e.active
	e.active = &activeProcess{
		generation: gen,
		task:       name,
		proc:       proc,
		started:    time.Now(),
	}
	e.mu.Unlock()

	if prev != nil {
		prev.proc.kill()
		slog.Info("replaced active task", "task", prev.task, "generation", prev.generation, "by", gen)
	}
	return gen
}

// release clears the slot if it still belongs to generation gen.
func (e *Engine) release(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil && e.active.generation == gen {
		e.active = nil
	}
}

// readLines delivers r line by line, each with exactly one trailing newline.
func readLines(r io.Reader, onOutput OutputSink) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			onOutput(line + "\n")
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func exitCode(waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return -1, fmt.Errorf("wait: %w", waitErr)
	}
	if code, ok := signalExitCode(exitErr.ProcessState); ok {
		return code, nil
	}
	return exitErr.ExitCode(), nil
}
