// Package explain turns recognizable error messages in command output into
// plain-language explanations.
//
// A Registry is immutable once built. Construct it at startup and hand the
// same *Registry to every component that needs it.
package explain

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder in an explanation is replaced by the rule's first capture group.
const Placeholder = "{0}"

// Rule pairs an error pattern with the explanation shown when it matches.
type Rule struct {
	Pattern     *regexp.Regexp
	Title       string
	Explanation string
	Suggestion  string
}

// Result is a matched rule with its explanation filled in.
type Result struct {
	Title       string
	Explanation string
	Suggestion  string
}

// Registry is an ordered, read-only list of rules. The first matching
// rule wins. It is safe for concurrent use.
type Registry struct {
	rules []Rule
}

// NewRegistry builds a registry from rules in priority order.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: append([]Rule(nil), rules...)}
}

// Default returns a registry holding DefaultRules.
func Default() *Registry {
	return NewRegistry(DefaultRules()...)
}

// With returns a new registry with extra rules appended after r's.
func (r *Registry) With(rules ...Rule) *Registry {
	combined := make([]Rule, 0, len(r.rules)+len(rules))
	combined = append(combined, r.rules...)
	combined = append(combined, rules...)
	return &Registry{rules: combined}
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Match returns the first rule whose pattern occurs anywhere in output.
func (r *Registry) Match(output string) (Result, bool) {
	for _, rule := range r.rules {
		m := rule.Pattern.FindStringSubmatch(output)
		if m == nil {
			continue
		}

		captured := ""
		if len(m) > 1 {
			captured = m[1]
		}
		return Result{
			Title:       rule.Title,
			Explanation: strings.ReplaceAll(rule.Explanation, Placeholder, captured),
			Suggestion:  rule.Suggestion,
		}, true
	}
	return Result{}, false
}

// Spec is the configuration form of a Rule.
type Spec struct {
	Pattern     string `yaml:"pattern"`
	Title       string `yaml:"title"`
	Explanation string `yaml:"explanation"`
	Suggestion  string `yaml:"suggestion"`
}

// RuleError reports a configured rule that could not be compiled.
type RuleError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d (%q): %v", e.Index, e.Pattern, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// Compile turns specs into rules, rejecting empty or invalid patterns.
func Compile(specs []Spec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, s := range specs {
		if s.Pattern == "" {
			return nil, &RuleError{Index: i, Err: fmt.Errorf("pattern is required")}
		}
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, &RuleError{Index: i, Pattern: s.Pattern, Err: err}
		}
		title := s.Title
		if title == "" {
			title = s.Pattern
		}
		rules = append(rules, Rule{
			Pattern:     re,
			Title:       title,
			Explanation: s.Explanation,
			Suggestion:  s.Suggestion,
		})
	}
	return rules, nil
}
