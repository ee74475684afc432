package logging

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// DefaultMaxValueLen bounds logged string values. Manuscript excerpts
// passed to detection can be arbitrarily long.
const DefaultMaxValueLen = 512

// Sanitizer redacts credentials and truncates long values in log output.
type Sanitizer struct {
	patterns    []*regexp.Regexp
	redacted    string
	maxValueLen int
}

// NewSanitizer creates a sanitizer with default patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns:    defaultPatterns(),
		redacted:    "[REDACTED]",
		maxValueLen: DefaultMaxValueLen,
	}
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
		`(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{16,}`,
		`(?i)password["'\s:=]+[^\s"']{8,}`,
		`(?i)token["'\s:=]+[a-zA-Z0-9_-]{20,}`,
		// DSNs with inline credentials, e.g. file:x.db?_auth_pass=...
		`(?i)_auth_pass=[^&\s]+`,
		`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Sanitize redacts sensitive information from a string and truncates it.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return s.truncate(result)
}

func (s *Sanitizer) truncate(v string) string {
	if s.maxValueLen <= 0 || utf8.RuneCountInString(v) <= s.maxValueLen {
		return v
	}
	runes := []rune(v)
	return fmt.Sprintf("%s… (%d chars)", string(runes[:s.maxValueLen]), len(runes))
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}

// SetMaxValueLen changes the truncation limit; zero disables truncation.
func (s *Sanitizer) SetMaxValueLen(n int) {
	s.maxValueLen = n
}
