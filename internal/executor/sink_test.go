package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterSink(t *testing.T) {
	var b strings.Builder
	sink := WriterSink(&b)

	sink("one\n")
	sink("two\n")

	assert.Equal(t, "one\ntwo\n", b.String())
}

func TestTee(t *testing.T) {
	var a, b []string
	sink := Tee(
		func(s string) { a = append(a, s) },
		nil,
		func(s string) { b = append(b, s) },
	)

	sink("x\n")
	sink("y\n")

	assert.Equal(t, []string{"x\n", "y\n"}, a)
	assert.Equal(t, a, b)
}

func TestLimitedSink(t *testing.T) {
	tests := []struct {
		name          string
		maxBytes      int
		chunks        []string
		wantForwarded []string
		wantTruncated bool
	}{
		{
			name:          "under limit",
			maxBytes:      100,
			chunks:        []string{"a\n", "b\n"},
			wantForwarded: []string{"a\n", "b\n"},
		},
		{
			name:          "exact fit",
			maxBytes:      4,
			chunks:        []string{"a\n", "b\n"},
			wantForwarded: []string{"a\n", "b\n"},
		},
		{
			name:          "drops chunk that does not fit",
			maxBytes:      5,
			chunks:        []string{"aa\n", "bbb\n", "c\n"},
			wantForwarded: []string{"aa\n"},
			wantTruncated: true,
		},
		{
			name:          "unlimited",
			maxBytes:      0,
			chunks:        []string{strings.Repeat("x", 10000) + "\n"},
			wantForwarded: []string{strings.Repeat("x", 10000) + "\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			ls := NewLimitedSink(func(s string) { got = append(got, s) }, tt.maxBytes)
			sink := ls.Sink()
			for _, c := range tt.chunks {
				sink(c)
			}

			assert.Equal(t, tt.wantForwarded, got)
			assert.Equal(t, tt.wantTruncated, ls.Truncated())
			assert.Equal(t, len(strings.Join(tt.wantForwarded, "")), ls.Written())
		})
	}
}
