package anchor

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/dshills/lyon/internal/diff"
)

// Position is the place a comment is attached to.
type Position struct {
	Path string
	Line int
	Side diff.Side
}

// Key returns the string form of the position used as the index key.
func (p Position) Key() string {
	return fmt.Sprintf("%s:%d:%s", p.Path, p.Line, p.Side)
}

// Anchored is implemented by anything that can be placed on a diff line.
type Anchored interface {
	Anchor() Position
}

// Index maps positions to the comments attached there. Comments keep their
// insertion order and are never dropped, even when the line they refer to is
// not part of the rendered diff.
type Index[T Anchored] struct {
	byKey map[string][]T
	order []string
}

// Build indexes comments in the order given.
func Build[T Anchored](comments []T) *Index[T] {
	ix := &Index[T]{byKey: make(map[string][]T)}
	for _, c := range comments {
		key := c.Anchor().Key()
		if _, ok := ix.byKey[key]; !ok {
			ix.order = append(ix.order, key)
		}
		ix.byKey[key] = append(ix.byKey[key], c)
	}
	return ix
}

// At returns the comments stored at an exact position.
func (ix *Index[T]) At(path string, line int, side diff.Side) []T {
	return ix.byKey[Position{Path: path, Line: line, Side: side}.Key()]
}

// ForLine returns the comments for a diff line of the file at path: those on
// its old line number (LEFT) followed by those on its new line number
// (RIGHT). Missing line numbers contribute nothing.
func (ix *Index[T]) ForLine(path string, l diff.Line) []T {
	var out []T
	if l.OldLineNumber > 0 {
		out = append(out, ix.At(path, l.OldLineNumber, diff.SideLeft)...)
	}
	if l.NewLineNumber > 0 {
		out = append(out, ix.At(path, l.NewLineNumber, diff.SideRight)...)
	}
	return out
}

// Orphans returns the comments on path whose positions do not appear in
// file, in insertion order.
func (ix *Index[T]) Orphans(path string, file diff.FileDiff) []T {
	var out []T
	for _, key := range ix.order {
		comments := ix.byKey[key]
		pos := comments[0].Anchor()
		if pos.Path != path || file.HasLine(pos.Line, pos.Side) {
			continue
		}
		out = append(out, comments...)
	}
	return out
}

// Paths returns every path that has at least one comment, in first-seen order.
func (ix *Index[T]) Paths() []string {
	return lo.Uniq(lo.Map(ix.order, func(key string, _ int) string {
		return ix.byKey[key][0].Anchor().Path
	}))
}

// Len returns the total number of indexed comments.
func (ix *Index[T]) Len() int {
	return lo.SumBy(lo.Values(ix.byKey), func(c []T) int { return len(c) })
}
