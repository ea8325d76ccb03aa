package executor

import (
	"os"
	"os/exec"
	"sync"
)

// procHandle guards a started process so that its group is signalled only
// before reaping begins. An unreaped leader keeps its pid, and with it the
// group id, from being reused.
type procHandle struct {
	proc *os.Process

	mu      sync.Mutex
	reaping bool
}

func newProcHandle(p *os.Process) *procHandle {
	return &procHandle{proc: p}
}

func (h *procHandle) pid() int {
	return h.proc.Pid
}

// kill sends SIGKILL to the process and, if it has not been reaped yet, to
// its process group. It reports whether the group was signalled.
func (h *procHandle) kill() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.reaping {
		_ = h.proc.Kill()
		return false
	}
	return killProcessGroup(h.proc)
}

// wait reaps cmd, whose process h must hold. After it is called, kill no
// longer touches the group.
func (h *procHandle) wait(cmd *exec.Cmd) error {
	h.mu.Lock()
	h.reaping = true
	h.mu.Unlock()

	return cmd.Wait()
}
