package executor

import (
	"io"
	"sync"
)

// OutputSink receives output chunks (one line, newline-terminated) in the
// order the process wrote them. It is called on the goroutine running the
// command and must tolerate being called many times.
type OutputSink func(chunk string)

// WriterSink adapts an io.Writer to an OutputSink. Write errors are dropped;
// a failing consumer must not abort the process it is watching.
func WriterSink(w io.Writer) OutputSink {
	return func(chunk string) {
		_, _ = io.WriteString(w, chunk)
	}
}

// Tee forwards every chunk to each non-nil sink in order.
func Tee(sinks ...OutputSink) OutputSink {
	return func(chunk string) {
		for _, s := range sinks {
			if s != nil {
				s(chunk)
			}
		}
	}
}

// LimitedSink forwards whole chunks until maxBytes have been passed on,
// then silently drops the rest.
type LimitedSink struct {
	next     OutputSink
	maxBytes int

	mu        sync.Mutex
	written   int
	truncated bool
}

// NewLimitedSink wraps next with a byte budget. A budget of zero or less
// disables the limit.
func NewLimitedSink(next OutputSink, maxBytes int) *LimitedSink {
	return &LimitedSink{
		next:     next,
		maxBytes: maxBytes,
	}
}

// Write passes chunk on if it fits in the remaining budget.
// Chunks are never split, so line boundaries survive truncation.
func (s *LimitedSink) Write(chunk string) {
	s.mu.Lock()
	if s.truncated || (s.maxBytes > 0 && s.written+len(chunk) > s.maxBytes) {
		s.truncated = true
		s.mu.Unlock()
		return
	}
	s.written += len(chunk)
	s.mu.Unlock()

	s.next(chunk)
}

// Sink returns the OutputSink view of s.
func (s *LimitedSink) Sink() OutputSink {
	return s.Write
}

// Truncated reports whether any chunk was dropped.
func (s *LimitedSink) Truncated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.truncated
}

// Written returns the number of bytes forwarded.
func (s *LimitedSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
