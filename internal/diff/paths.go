package diff

import (
	"regexp"
	"strconv"
	"strings"
)

var plainHeaderRe = regexp.MustCompile(`^a/(.+?) b/(.+)$`)

// HeaderPaths returns the old and new paths named by a "diff --git" line.
// Either side may be C-quoted, as git does for paths containing non-ASCII
// bytes, tabs, quotes or backslashes.
func HeaderPaths(line string) (oldPath, newPath string, ok bool) {
	rest, found := strings.CutPrefix(line, "diff --git ")
	if !found {
		return "", "", false
	}

	var a, b string
	switch {
	case strings.HasPrefix(rest, `"`):
		end := closingQuote(rest)
		if end < 0 {
			return "", "", false
		}
		a, b = rest[:end+1], strings.TrimPrefix(rest[end+1:], " ")
	case strings.HasSuffix(rest, `"`):
		i := strings.LastIndex(rest, ` "b/`)
		if i < 0 {
			return "", "", false
		}
		a, b = rest[:i], rest[i+1:]
	default:
		m := plainHeaderRe.FindStringSubmatch(rest)
		if m == nil {
			return "", "", false
		}
		return m[1], m[2], true
	}

	a, okA := strings.CutPrefix(UnquotePath(a), "a/")
	b, okB := strings.CutPrefix(UnquotePath(b), "b/")
	if !okA || !okB {
		return "", "", false
	}
	return a, b, true
}

// UnquotePath undoes git's C-style path quoting. Octal escapes decode to raw
// bytes, so "t\303\244st" becomes "täst". Unquoted or malformed input is
// returned unchanged.
func UnquotePath(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	u, err := strconv.Unquote(s)
	if err != nil {
		return s
	}
	return u
}

// closingQuote returns the index of the quote ending the quoted token that
// starts s, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
