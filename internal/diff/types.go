package diff

// Status describes what happened to a file in a diff.
type Status string

const (
	StatusAdded    Status = "added"
	StatusDeleted  Status = "deleted"
	StatusModified Status = "modified"
	StatusRenamed  Status = "renamed"
	StatusCopied   Status = "copied"
)

// LineType classifies a row inside a hunk.
type LineType string

const (
	LineAddition   LineType = "addition"
	LineDeletion   LineType = "deletion"
	LineContext    LineType = "context"
	LineHunkHeader LineType = "hunk-header"
)

// Side selects which version of a file a line number refers to.
// LEFT is the old version, RIGHT the new one.
type Side string

const (
	SideLeft  Side = "LEFT"
	SideRight Side = "RIGHT"
)

// Line is one row of diff content. A zero line number means the line has
// no position on that side (additions have no old number, deletions no new
// number, hunk headers neither).
type Line struct {
	Type          LineType `json:"type"`
	Content       string   `json:"content"`
	OldLineNumber int      `json:"oldLineNumber,omitempty"`
	NewLineNumber int      `json:"newLineNumber,omitempty"`
}

// Hunk is a contiguous change region. Lines[0] is always the synthetic
// hunk-header line carrying the text after the closing @@.
type Hunk struct {
	Header   string `json:"header"`
	OldStart int    `json:"oldStart"`
	OldLines int    `json:"oldLines"`
	NewStart int    `json:"newStart"`
	NewLines int    `json:"newLines"`
	Lines    []Line `json:"lines"`
}

// FileDiff is one changed file.
type FileDiff struct {
	Path      string `json:"path"`
	OldPath   string `json:"oldPath,omitempty"`
	Status    Status `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Binary    bool   `json:"binary"`
	Hunks     []Hunk `json:"hunks"`
}

// Stats aggregates a ParsedDiff.
type Stats struct {
	FilesChanged int `json:"filesChanged"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
}

// ParsedDiff is the structured form of a unified diff. Warnings counts
// malformed hunk headers that were dropped while parsing.
type ParsedDiff struct {
	Files    []FileDiff `json:"files"`
	Stats    Stats      `json:"stats"`
	Warnings int        `json:"warnings,omitempty"`
}

// Paths returns the current path of every file, in diff order.
func (p ParsedDiff) Paths() []string {
	paths := make([]string, len(p.Files))
	for i, f := range p.Files {
		paths[i] = f.Path
	}
	return paths
}

// File returns the file with the given current path.
func (p ParsedDiff) File(path string) (FileDiff, bool) {
	for _, f := range p.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileDiff{}, false
}

// HasLine reports whether the file contains a line with the given number on
// the given side. It is used to decide whether a comment can be placed inline.
func (f FileDiff) HasLine(line int, side Side) bool {
	if line <= 0 {
		return false
	}
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			switch side {
			case SideLeft:
				if l.OldLineNumber == line {
					return true
				}
			default:
				if l.NewLineNumber == line {
					return true
				}
			}
		}
	}
	return false
}
