//go:build unix

package executor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child in its own process group so that a kill
// also reaches anything it spawned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup kills p and then the process group it leads. The caller
// must ensure p has not been reaped. It reports whether p was still alive.
func killProcessGroup(p *os.Process) bool {
	if err := p.Kill(); errors.Is(err, os.ErrProcessDone) {
		return false
	}
	_ = syscall.Kill(-p.Pid, syscall.SIGKILL)
	return true
}

// signalExitCode maps death-by-signal to the shell's 128+N convention.
func signalExitCode(state *os.ProcessState) (int, bool) {
	if state == nil {
		return 0, false
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int(ws.Signal()), true
}
