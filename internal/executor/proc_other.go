//go:build !unix

package executor

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(p *os.Process) bool {
	return p.Kill() == nil
}

func signalExitCode(state *os.ProcessState) (int, bool) {
	return 0, false
}
