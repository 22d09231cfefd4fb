// Package normalize turns free-form model output into bounded, typed values.
// The evaluator and generator share it so that both apply the same
// extraction, coercion and clamping rules.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	codeFenceRegex  = regexp.MustCompile("(?i)```(?:json)?\\s*|\\s*```")
	flatObjectRegex = regexp.MustCompile(`\{[^{}]*\}`)
	arraySpanRegex  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ParseError reports model output that could not be read as the expected
// JSON shape.
type ParseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %v", e.Stage, e.Err)
	}
	return "parse " + e.Stage + ": no JSON found"
}

func (e *ParseError) Unwrap() error { return e.Err }

// StripCodeFences removes Markdown code fence markers (with or without a
// json language tag) and surrounding whitespace.
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFenceRegex.ReplaceAllString(s, ""))
}

// FlatObject returns the first {...} substring that contains no nested
// braces.
func FlatObject(s string) (string, bool) {
	m := flatObjectRegex.FindString(s)
	return m, m != ""
}

// ArraySpan returns the span from the first '[' to the last ']' in s,
// across newlines.
func ArraySpan(s string) (string, bool) {
	m := arraySpanRegex.FindString(s)
	return m, m != ""
}

// DecodeObject parses s as a single JSON object.
func DecodeObject(stage, s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, &ParseError{Stage: stage, Raw: s, Err: err}
	}
	if obj == nil {
		return nil, &ParseError{Stage: stage, Raw: s, Err: fmt.Errorf("not a JSON object")}
	}
	return obj, nil
}

// DecodeArray locates the bracketed span in raw and parses it as a JSON
// array. Elements are returned undecoded so each can be validated on its own.
func DecodeArray(raw string) ([]json.RawMessage, error) {
	span, ok := ArraySpan(raw)
	if !ok {
		return nil, &ParseError{Stage: "array", Raw: raw}
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil, &ParseError{Stage: "array", Raw: span, Err: err}
	}
	return items, nil
}
