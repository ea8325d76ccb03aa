// Package output accumulates process output for display and, in learning
// mode, keeps an explanation of the most relevant error seen so far.
package output

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rashpile/pako-tasks/internal/explain"
)

// Explainer matches error text against known patterns.
type Explainer interface {
	Match(output string) (explain.Result, bool)
}

// Buffer is an append-only output buffer. It is safe for concurrent use.
type Buffer struct {
	explainer Explainer

	mu          sync.Mutex
	text        strings.Builder
	learning    bool
	explanation *explain.Result
}

// NewBuffer creates an empty buffer. A nil explainer disables learning
// mode regardless of SetLearning.
func NewBuffer(explainer Explainer, learning bool) *Buffer {
	return &Buffer{explainer: explainer, learning: learning}
}

// Append adds a chunk and, in learning mode, re-evaluates the whole text.
// It has the executor.OutputSink signature.
func (b *Buffer) Append(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.text.WriteString(chunk)
	if b.learning {
		b.evaluate()
	}
}

// String returns everything appended so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text.String()
}

// SetLearning toggles learning mode. Turning it on evaluates the text
// already in the buffer; turning it off clears the explanation.
func (b *Buffer) SetLearning(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.learning = on
	if on {
		b.evaluate()
	} else {
		b.explanation = nil
	}
}

// Learning reports whether learning mode is on.
func (b *Buffer) Learning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.learning
}

// Explanation returns the latest match, if any.
func (b *Buffer) Explanation() (explain.Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.explanation == nil {
		return explain.Result{}, false
	}
	return *b.explanation, true
}

// evaluate must be called with mu held.
func (b *Buffer) evaluate() {
	if b.explainer == nil {
		return
	}
	if res, ok := b.explainer.Match(b.text.String()); ok {
		b.explanation = &res
	}
}

// Mode is a process-wide learning-mode switch shared by front-ends.
type Mode struct {
	on atomic.Bool
}

// NewMode creates a switch with the given initial state.
func NewMode(on bool) *Mode {
	m := &Mode{}
	m.on.Store(on)
	return m
}

// Enabled reports the current state.
func (m *Mode) Enabled() bool {
	return m.on.Load()
}

// Set changes the state and returns the previous one.
func (m *Mode) Set(on bool) bool {
	return m.on.Swap(on)
}

// Toggle flips the state and returns the new one.
func (m *Mode) Toggle() bool {
	for {
		old := m.on.Load()
		if m.on.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
