package explain

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Match(t *testing.T) {
	reg := Default()

	tests := []struct {
		name            string
		output          string
		wantTitle       string
		wantExplanation string
	}{
		{
			name:            "unresolved reference",
			output:          "Unresolved reference: Foo",
			wantTitle:       "Unresolved Reference",
			wantExplanation: "This means the compiler doesn't know what Foo is. It could be a missing import, a typo, or a dependency that hasn't been added.",
		},
		{
			name:            "match anywhere in accumulated output",
			output:          "> Task :app:compileDebugKotlin\ne: MainActivity.kt: (12, 5): Expecting ')'\nBUILD FAILED\n",
			wantTitle:       "Syntax Error",
			wantExplanation: "The compiler was expecting a ')' at this position.",
		},
		{
			name:            "python module",
			output:          "Traceback (most recent call last):\nModuleNotFoundError: No module named 'requests'\n",
			wantTitle:       "Missing Python Module",
			wantExplanation: "Python tried to import requests but it isn't installed in the active environment.",
		},
		{
			name:            "engine spawn failure",
			output:          "Execution Error: exec: \"python\": executable file not found in $PATH\n",
			wantTitle:       "Program Not Found",
			wantExplanation: "The program python isn't installed or isn't on the PATH.",
		},
		{
			name:            "shell command not found",
			output:          "sh: 1: gradle: not found\n",
			wantTitle:       "Command Not Found",
			wantExplanation: "The shell couldn't find a command named gradle.",
		},
		{
			name:            "rule without capture group",
			output:          "Error: ./gradlew: Permission denied\n",
			wantTitle:       "Permission Denied",
			wantExplanation: "The operating system refused access to a file or program.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.Match(tt.output)
			require.True(t, ok)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantExplanation, got.Explanation)
			assert.NotEmpty(t, got.Suggestion)
		})
	}
}

func TestRegistry_NoMatch(t *testing.T) {
	_, ok := Default().Match("nothing interesting")
	assert.False(t, ok)

	_, ok = Default().Match("")
	assert.False(t, ok)
}

func TestRegistry_FirstRuleWins(t *testing.T) {
	reg := NewRegistry(
		Rule{Pattern: regexp.MustCompile(`boom (\w+)`), Title: "first", Explanation: "{0} first"},
		Rule{Pattern: regexp.MustCompile(`boom`), Title: "second"},
	)

	got, ok := reg.Match("xx boom goes yy")
	require.True(t, ok)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, "goes first", got.Explanation)
}

func TestRegistry_EmptyPlaceholderWithoutGroup(t *testing.T) {
	reg := NewRegistry(Rule{Pattern: regexp.MustCompile(`fatal`), Title: "t", Explanation: "got [{0}]"})

	got, ok := reg.Match("fatal error")
	require.True(t, ok)
	assert.Equal(t, "got []", got.Explanation)
}

func TestRegistry_WithAppendsAfterDefaults(t *testing.T) {
	base := Default()
	extra := Rule{Pattern: regexp.MustCompile(`Unresolved reference: (.+)`), Title: "shadowed"}

	reg := base.With(extra)

	assert.Equal(t, base.Len()+1, reg.Len())
	got, ok := reg.Match("Unresolved reference: Foo")
	require.True(t, ok)
	assert.Equal(t, "Unresolved Reference", got.Title)

	custom := base.With(Rule{Pattern: regexp.MustCompile(`panic: (.+)`), Title: "Go panic", Explanation: "crashed: {0}"})
	got, ok = custom.Match("panic: runtime error: index out of range")
	require.True(t, ok)
	assert.Equal(t, "crashed: runtime error: index out of range", got.Explanation)
}

func TestRegistry_ConcurrentMatch(t *testing.T) {
	reg := Default()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, ok := reg.Match("Unresolved reference: Bar")
				if !ok || got.Title != "Unresolved Reference" {
					t.Errorf("unexpected match %+v %v", got, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCompile(t *testing.T) {
	rules, err := Compile([]Spec{
		{Pattern: `panic: (.+)`, Title: "Go panic", Explanation: "{0}", Suggestion: "read the trace"},
		{Pattern: `segfault`},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Go panic", rules[0].Title)
	assert.Equal(t, "segfault", rules[1].Title)

	_, err = Compile([]Spec{{Pattern: `ok`}, {Pattern: `(unclosed`}})
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, 1, ruleErr.Index)
	assert.Equal(t, "(unclosed", ruleErr.Pattern)

	_, err = Compile([]Spec{{Title: "no pattern"}})
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, 0, ruleErr.Index)
}
