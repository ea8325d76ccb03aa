//go:build unix

package executor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rashpile/pako-tasks/internal/task"
)

const sigkillExit = 128 + 9

// collector is a concurrency-safe OutputSink for assertions.
type collector struct {
	mu     sync.Mutex
	chunks []string
}

func (c *collector) sink(chunk string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = append(c.chunks, chunk)
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.chunks...)
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
}

func waitActive(t *testing.T, e *Engine, name string) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		s, ok := e.Active()
		if ok && s.Task == name {
			snap = s
			return true
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestEngine_ReturnsExitCode(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "fail.sh", "exit 7")

	e := NewEngine()
	code := e.RunTask(context.Background(), task.Definition{Name: "fail", Command: "sh fail.sh"}, dir, nil)

	assert.Equal(t, 7, code)
	_, active := e.Active()
	assert.False(t, active)
}

func TestEngine_DeliversLinesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "ab.sh", "echo A\necho B")

	var out collector
	code := NewEngine().RunTask(context.Background(), task.Definition{Name: "ab", Command: "sh ab.sh"}, dir, out.sink)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"A\n", "B\n"}, out.all())
}

func TestEngine_MergesStderrIntoStream(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "mixed.sh", "echo first\necho second >&2\necho third")

	var out collector
	code := NewEngine().RunTask(context.Background(), task.Definition{Name: "mixed", Command: "sh mixed.sh"}, dir, out.sink)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"first\n", "second\n", "third\n"}, out.all())
}

func TestEngine_AppendsNewlineToFinalPartialLine(t *testing.T) {
	var out collector
	code := NewEngine().RunTask(context.Background(), task.Definition{Name: "p", Command: "printf no-newline"}, t.TempDir(), out.sink)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"no-newline\n"}, out.all())
}

func TestEngine_RunsInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), nil, 0644))

	var out collector
	code := NewEngine().RunTask(context.Background(), task.Definition{Name: "ls", Command: "ls"}, dir, out.sink)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.all(), "marker.txt\n")
}

func TestEngine_SpawnFailureIsReportedAndEngineStaysUsable(t *testing.T) {
	e := NewEngine()
	dir := t.TempDir()

	var out collector
	res := e.Run(context.Background(), task.Definition{Name: "bad", Command: "definitely-not-a-real-binary-xyz --flag"}, dir, out.sink)

	assert.Equal(t, -1, res.ExitCode)
	require.Error(t, res.Err)
	chunks := out.all()
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasPrefix(chunks[0], ExecutionErrorPrefix), chunks[0])
	assert.True(t, strings.HasSuffix(chunks[0], "\n"))

	var next collector
	code := e.RunTask(context.Background(), task.Definition{Name: "ok", Command: "echo ok"}, dir, next.sink)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"ok\n"}, next.all())
}

func TestEngine_MissingWorkingDirectory(t *testing.T) {
	var out collector
	code := NewEngine().RunTask(context.Background(), task.Definition{Name: "x", Command: "echo hi"},
		filepath.Join(t.TempDir(), "gone"), out.sink)

	assert.Equal(t, -1, code)
	require.Len(t, out.all(), 1)
	assert.True(t, strings.HasPrefix(out.all()[0], ExecutionErrorPrefix))
}

func TestEngine_EmptyCommand(t *testing.T) {
	var out collector
	res := NewEngine().Run(context.Background(), task.Definition{Name: "blank", Command: "   "}, t.TempDir(), out.sink)

	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, ErrEmptyCommand)
	assert.Equal(t, []string{ExecutionErrorPrefix + "empty command\n"}, out.all())
}

func TestEngine_StopWithoutActiveTaskIsNoop(t *testing.T) {
	e := NewEngine()

	assert.NotPanics(t, func() {
		e.StopActiveTask()
		e.StopActiveTask()
	})
	_, active := e.Active()
	assert.False(t, active)
}

func TestEngine_StopKillsActiveTask(t *testing.T) {
	e := NewEngine()
	done := make(chan int, 1)
	go func() {
		done <- e.RunTask(context.Background(), task.Definition{Name: "sleeper", Command: "sleep 30"}, t.TempDir(), nil)
	}()

	waitActive(t, e, "sleeper")
	e.StopActiveTask()

	select {
	case code := <-done:
		assert.Equal(t, sigkillExit, code)
	case <-time.After(5 * time.Second):
		t.Fatal("stopped task did not return")
	}
	_, active := e.Active()
	assert.False(t, active)
}

func TestEngine_NewTaskKillsPrevious(t *testing.T) {
	e := NewEngine()
	dir := t.TempDir()

	firstDone := make(chan int, 1)
	go func() {
		firstDone <- e.RunTask(context.Background(), task.Definition{Name: "sleeper", Command: "sleep 30"}, dir, nil)
	}()
	first := waitActive(t, e, "sleeper")

	var out collector
	code := e.RunTask(context.Background(), task.Definition{Name: "quick", Command: "echo done"}, dir, out.sink)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"done\n"}, out.all())

	select {
	case c := <-firstDone:
		assert.Equal(t, sigkillExit, c)
	case <-time.After(5 * time.Second):
		t.Fatal("previous task was not terminated")
	}

	exists, err := process.PidExists(int32(first.PID))
	require.NoError(t, err)
	assert.False(t, exists, "previous process still running")

	_, active := e.Active()
	assert.False(t, active)
}

func TestEngine_KillReachesChildProcesses(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "tree.sh", "sleep 30 &\necho $! > child.pid\nwait")

	e := NewEngine()
	done := make(chan int, 1)
	go func() {
		done <- e.RunTask(context.Background(), task.Definition{Name: "tree", Command: "sh tree.sh"}, dir, nil)
	}()

	var childPID int
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "child.pid"))
		if err != nil || len(strings.TrimSpace(string(data))) == 0 {
			return false
		}
		n, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return false
		}
		childPID = n
		return true
	}, 5*time.Second, 20*time.Millisecond)

	e.StopActiveTask()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task tree was not terminated")
	}

	require.Eventually(t, func() bool { return gone(childPID) }, 5*time.Second, 20*time.Millisecond)
}

// gone reports whether pid has exited. An orphan nobody has reaped yet
// still shows up as a zombie, which counts as gone.
func gone(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	if err != nil || !exists {
		return err == nil
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return true
	}
	status, err := p.Status()
	if err != nil {
		return true
	}
	return slices.Contains(status, process.Zombie)
}

func TestEngine_ContextDeadlineKillsTask(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	code := NewEngine().RunTask(ctx, task.Definition{Name: "slow", Command: "sleep 30"}, t.TempDir(), nil)

	assert.Equal(t, sigkillExit, code)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestEngine_ConcurrentStartsSettleToNothingRunning(t *testing.T) {
	e := NewEngine()
	dir := t.TempDir()

	const runs = 5
	var wg sync.WaitGroup
	codes := make(chan int, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- e.RunTask(context.Background(), task.Definition{Name: "sleeper", Command: "sleep 30"}, dir, nil)
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	deadline := time.After(10 * time.Second)
	for {
		e.StopActiveTask()
		select {
		case <-finished:
			close(codes)
			for c := range codes {
				assert.Equal(t, sigkillExit, c)
			}
			_, active := e.Active()
			assert.False(t, active)
			return
		case <-deadline:
			t.Fatal("concurrent runs did not settle")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	setProcessGroup(cmd)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		h := newProcHandle(cmd.Process)
		h.kill()
		_ = h.wait(cmd)
	})
	return cmd
}

func TestEngine_StaleReleaseKeepsNewerProcess(t *testing.T) {
	e := NewEngine()
	a := startSleeper(t)
	b := startSleeper(t)

	genA := e.claim("a", newProcHandle(a.Process))
	genB := e.claim("b", newProcHandle(b.Process))
	require.Greater(t, genB, genA)

	// a was displaced by b's claim; its late cleanup must not clear b.
	e.release(genA)

	snap, ok := e.Active()
	require.True(t, ok)
	assert.Equal(t, "b", snap.Task)
	assert.Equal(t, genB, snap.Generation)
	assert.Equal(t, b.Process.Pid, snap.PID)

	e.release(genB)
	_, ok = e.Active()
	assert.False(t, ok)
}

func TestProcHandle_KillSignalsGroupBeforeReap(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	setProcessGroup(cmd)
	require.NoError(t, cmd.Start())
	h := newProcHandle(cmd.Process)

	assert.True(t, h.kill())

	code, err := exitCode(h.wait(cmd))
	require.NoError(t, err)
	assert.Equal(t, sigkillExit, code)
}

func TestProcHandle_KillAfterReapSkipsGroup(t *testing.T) {
	cmd := exec.Command("true")
	setProcessGroup(cmd)
	require.NoError(t, cmd.Start())
	h := newProcHandle(cmd.Process)

	require.NoError(t, h.wait(cmd))

	// The group id may belong to someone else by now.
	assert.False(t, h.kill())
	assert.False(t, h.kill())
}
