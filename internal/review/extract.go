package review

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```[\\w+-]*[ \\t]*\\r?\\n?(.*?)```")

// Extract recovers a candidate JSON object from free-form model output.
// It tries, in order: the first fenced code block whose body starts with
// "{"; the first balanced object holding a "summary" key; the widest span
// from the first "{" to the last "}". The candidate is not validated.
func Extract(raw string) (string, bool) {
	if s, ok := fromFence(raw); ok {
		return s, true
	}
	if s, ok := balancedObject(raw); ok {
		return s, true
	}
	return widestSpan(raw)
}

func fromFence(raw string) (string, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(raw, -1) {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "{") {
			return body, true
		}
	}
	return "", false
}

// balancedObject returns the first balanced object, scanning braces outside
// string literals, that contains a "summary" key. Objects without one, such
// as a "{}" in prose, are skipped. Truncated output never closes and yields
// nothing.
func balancedObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	for start >= 0 && strings.Contains(raw[start:], `"summary"`) {
		end := balancedEnd(raw, start)
		if end < 0 {
			return "", false
		}
		if strings.Contains(raw[start:end], `"summary"`) {
			return raw[start:end], true
		}
		next := strings.IndexByte(raw[end:], '{')
		if next < 0 {
			break
		}
		start = end + next
	}
	return "", false
}

// balancedEnd returns the index just past the brace closing the object that
// opens at start, or -1.
func balancedEnd(raw string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func widestSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}
