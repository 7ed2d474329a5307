package pipeline

import (
	"regexp"
	"strings"
)

// fencePattern matches the first fenced block, with or without a language tag.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")

// Extract isolates the JSON candidate inside raw model output.
//
// A fenced block wins when present and non-empty; otherwise the greedy span from
// the first '{' to the last '}' is returned. A fence that never closes falls
// through to the brace span.
func Extract(raw string) (string, error) {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, nil
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return "", newError(ErrNoJSONFound, raw, nil)
	}
	return raw[start : end+1], nil
}
