// Package extract pulls JSON payloads out of free-form model responses.
//
// A response may wrap its payload in a markdown fence, surround it with
// prose, or quote unrelated example JSON before the real answer. Candidates
// are collected in order (fenced blocks first, then every balanced top-level
// object or array) and the caller decides which one is acceptable, normally
// by validating against a Schema.
package extract

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNoJSON is returned when a response contains nothing JSON-shaped.
	ErrNoJSON = errors.New("no JSON found in response")
	// ErrNoValidJSON is returned when JSON was found but none of it matched the schema.
	ErrNoValidJSON = errors.New("no JSON in response matches schema")
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\n?(.*?)\\n?```")

// Candidates returns the JSON-shaped substrings of text in the order they
// should be tried: contents of fenced code blocks first, then balanced
// top-level objects and arrays as they appear. Duplicates are dropped.
func Candidates(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
			add(body)
		}
	}
	for _, c := range balanced(text) {
		add(c)
	}
	return out
}

// balanced scans text for top-level {...} and [...] spans, honouring JSON
// string literals and escapes so braces inside strings do not count.
func balanced(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		end := closing(text, i)
		if end < 0 {
			continue
		}
		out = append(out, text[i:end+1])
		i = end
	}
	return out
}

// closing returns the index of the delimiter that closes the one at start,
// or -1 when the span is unterminated or mismatched.
func closing(text string, start int) int {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}
