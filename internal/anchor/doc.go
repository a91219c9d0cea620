// Package anchor indexes line comments by the diff position they are
// attached to, so a renderer can look up the comments for any diff line.
package anchor
