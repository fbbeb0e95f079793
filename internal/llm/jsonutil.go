package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidJSON is returned when a model response holds no parseable JSON.
var ErrInvalidJSON = errors.New("AI response was not valid JSON")

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSON returns the JSON object or array embedded in a model response,
// stripping a markdown code fence and surrounding prose. It returns "" when no
// JSON value is found.
func ExtractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(strings.TrimSpace(trimmed), "json")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	first, second := span(trimmed, '{', '}'), span(trimmed, '[', ']')
	if first == "" || (second != "" && strings.IndexByte(trimmed, '[') < strings.IndexByte(trimmed, '{')) {
		first, second = second, first
	}
	if first == "" {
		return ""
	}

	// Prose may carry brackets of its own, as in "Result [v1]: {...}".
	if !json.Valid([]byte(first)) && second != "" && json.Valid([]byte(second)) {
		return second
	}
	return first
}

// span returns the text between the first opening and the last closing byte
// with trailing commas removed, or "".
func span(s string, opening, closing byte) string {
	start := strings.IndexByte(s, opening)
	end := strings.LastIndexByte(s, closing)
	if start == -1 || end <= start {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(s[start:end+1], "$1")
}

// DecodeJSON extracts and unmarshals the JSON payload of a model response.
func DecodeJSON[T any](content string) (T, error) {
	var v T
	raw := ExtractJSON(content)
	if raw == "" {
		return v, fmt.Errorf("%w. Response: %s", ErrInvalidJSON, truncate(content, 200))
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("%w: %v. Response: %s", ErrInvalidJSON, err, truncate(content, 200))
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
