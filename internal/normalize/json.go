// Package normalize converts free-form model output into strict contracts.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object found in model output")

// ParseError keeps the raw model output so callers can surface it.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON in model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractJSON slices text from the first '{' to the last '}' and decodes it
// strictly into v. Any failure is a *ParseError.
func ExtractJSON(text string, v any) error {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return &ParseError{Raw: text, Err: ErrNoJSONObject}
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return &ParseError{Raw: text, Err: ErrNoJSONObject}
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return &ParseError{Raw: text, Err: err}
	}
	return nil
}

var (
	leadingFence  = regexp.MustCompile("(?i)^```(json)?\\s*")
	trailingFence = regexp.MustCompile("```\\s*$")
	controlRuns   = regexp.MustCompile(`[\x00-\x1F]+`)
	curlyQuotes   = strings.NewReplacer("“", `"`, "”", `"`)
)

// SanitizeModelJSON removes markdown fences, straightens curly double quotes
// and replaces control character runs with a space.
func SanitizeModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = curlyQuotes.Replace(s)
	return controlRuns.ReplaceAllString(s, " ")
}

var (
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// StripHTML drops tags and collapses whitespace.
func StripHTML(html string) string {
	s := htmlTags.ReplaceAllString(html, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
