// Package match implements the single URL/pattern-matching engine shared by
// NetworkState, ScriptRegistry and the fetch rule engine. Compile once,
// Match many times — mirroring regexp.Regexp's own calling convention.
//
// Pattern language:
//   - "*"        matches any well-formed string.
//   - "/re/"     a regular expression; a pattern that fails to compile
//     matches nothing rather than returning an error (patterns originate
//     from untrusted agent input and must never poison the caller's rule
//     table or query).
//   - otherwise  a glob: "*" expands to ".*", "?" expands to ".", every
//     other regexp metacharacter is escaped.
//
// The same glob conversion is used for both anchored (full-match) and
// unanchored (substring) callers; which one applies is a property of the
// Matcher, not the pattern text, and is intentional: FetchInterceptor rules
// anchor full URLs while NetworkState queries search substrings.
package match

import (
	"regexp"
	"strings"
)

// Matcher is a compiled pattern ready for repeated matching.
type Matcher struct {
	original string
	matchAll bool
	re       *regexp.Regexp // nil if the pattern compiled to nothing (invalid regex)
	invalid  bool
}

// Compile compiles pattern for anchored (full-match) use, as
// FetchInterceptor requires.
func Compile(pattern string) *Matcher {
	return compile(pattern, true)
}

// CompileUnanchored compiles pattern for substring-search use, as
// NetworkState.getByUrl requires.
func CompileUnanchored(pattern string) *Matcher {
	return compile(pattern, false)
}

func compile(pattern string, anchored bool) *Matcher {
	m := &Matcher{original: pattern}

	if pattern == "*" {
		m.matchAll = true
		return m
	}

	if strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") && len(pattern) >= 2 {
		body := pattern[1 : len(pattern)-1]
		re, err := regexp.Compile(body)
		if err != nil {
			m.invalid = true
			return m
		}
		m.re = re
		return m
	}

	globBody := globToRegexp(pattern)
	expr := globBody
	if anchored {
		expr = "^" + globBody + "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		// A glob conversion should always produce a valid regexp; treat a
		// failure the same as an invalid user-supplied regex, defensively.
		m.invalid = true
		return m
	}
	m.re = re
	return m
}

// globToRegexp turns a shell-style glob into a regexp body: "*" -> ".*",
// "?" -> ".", everything else escaped.
func globToRegexp(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// Match reports whether input matches the compiled pattern. An invalid
// regex pattern always returns false.
func (m *Matcher) Match(input string) bool {
	if m == nil || m.invalid {
		return false
	}
	if m.matchAll {
		return true
	}
	if m.re == nil {
		return false
	}
	return m.re.MatchString(input)
}

// Original returns the pattern text the Matcher was compiled from.
func (m *Matcher) Original() string {
	if m == nil {
		return ""
	}
	return m.original
}

// Valid reports whether the pattern compiled successfully. Invalid patterns
// still behave correctly under Match (always false); Valid exists so
// callers can choose to surface a warning without treating it as an error.
func (m *Matcher) Valid() bool {
	return m != nil && !m.invalid
}
