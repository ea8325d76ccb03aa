//go:build unix

package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunner_StdoutThenPrefixedStderr(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "noisy.sh", "echo out1\necho err1 >&2\necho out2\necho err2 >&2\nexit 3")

	got := NewRunner().Execute("sh noisy.sh", dir)

	assert.Equal(t, "out1\nout2\nError: err1\nError: err2\n", got)
}

func TestRunner_NoOutput(t *testing.T) {
	assert.Equal(t, "", NewRunner().Execute("true", t.TempDir()))
}

func TestRunner_ArgumentsSplitOnWhitespace(t *testing.T) {
	got := NewRunner().Execute("echo   hello \t world", "")

	assert.Equal(t, "hello world\n", got)
}

func TestRunner_Failures(t *testing.T) {
	tests := []struct {
		name    string
		command string
		dir     string
	}{
		{"unknown executable", "definitely-not-a-real-binary-xyz", ""},
		{"empty command", "  ", ""},
		{"missing working directory", "echo hi", "/definitely/not/here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRunner().Execute(tt.command, tt.dir)
			assert.True(t, strings.HasPrefix(got, FailurePrefix), got)
			assert.Greater(t, len(got), len(FailurePrefix))
		})
	}
}

func TestRunner_LargeStderrDoesNotDeadlock(t *testing.T) {
	dir := t.TempDir()
	// Well past a pipe buffer on stderr before anything reaches stdout.
	writeScript(t, dir, "flood.sh", "i=0\nwhile [ $i -lt 5000 ]; do echo line$i >&2; i=$((i+1)); done\necho done")

	got := NewRunner().Execute("sh flood.sh", dir)

	assert.True(t, strings.HasPrefix(got, "done\nError: line0\n"))
	assert.Equal(t, 5001, strings.Count(got, "\n"))
}
