package diff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// parser holds the state of a single left-to-right pass.
type parser struct {
	out      []FileDiff
	file     *FileDiff
	hunk     *Hunk
	oldLine  int
	newLine  int
	oldSeen  int
	newSeen  int
	warnings int
}

// Parse turns unified diff text (git's extended format) into a ParsedDiff.
// It never fails: lines it does not recognise are dropped, and content that
// follows a malformed hunk header is ignored until the next file or hunk
// marker.
func Parse(text string) ParsedDiff {
	text = strings.TrimSuffix(text, "\n")
	p := &parser{}
	if text != "" {
		for _, line := range strings.Split(text, "\n") {
			p.line(strings.TrimSuffix(line, "\r"))
		}
	}
	p.commitFile()

	files := p.out
	if files == nil {
		files = []FileDiff{}
	}
	return ParsedDiff{
		Files:    files,
		Stats:    computeStats(files),
		Warnings: p.warnings,
	}
}

func computeStats(files []FileDiff) Stats {
	return Stats{
		FilesChanged: len(files),
		Additions:    lo.SumBy(files, func(f FileDiff) int { return f.Additions }),
		Deletions:    lo.SumBy(files, func(f FileDiff) int { return f.Deletions }),
	}
}

func (p *parser) line(line string) {
	if strings.HasPrefix(line, "diff --git ") {
		p.startFile(line)
		return
	}
	if p.file == nil {
		return
	}

	// Inside a hunk that still expects lines, "---"/"+++" are content.
	if p.hunk != nil && !p.hunkExhausted() && isContent(line) {
		p.content(line)
		return
	}

	switch {
	case strings.HasPrefix(line, "new file mode"):
		p.file.Status = StatusAdded
	case strings.HasPrefix(line, "deleted file mode"):
		p.file.Status = StatusDeleted
	case strings.HasPrefix(line, "rename from "):
		p.file.Status = StatusRenamed
		p.file.OldPath = UnquotePath(strings.TrimPrefix(line, "rename from "))
	case strings.HasPrefix(line, "rename to "):
		p.file.Path = UnquotePath(strings.TrimPrefix(line, "rename to "))
	case strings.HasPrefix(line, "copy from "):
		p.file.Status = StatusCopied
		p.file.OldPath = UnquotePath(strings.TrimPrefix(line, "copy from "))
	case strings.HasPrefix(line, "copy to "):
		p.file.Path = UnquotePath(strings.TrimPrefix(line, "copy to "))
	case strings.HasPrefix(line, "Binary files "):
		p.file.Binary = true
	case strings.HasPrefix(line, "---"),
		strings.HasPrefix(line, "+++"),
		strings.HasPrefix(line, "index "),
		strings.HasPrefix(line, "similarity index"):
		// metadata noise
	case strings.HasPrefix(line, "@@"):
		p.startHunk(line)
	case p.hunk != nil:
		if line == "" && p.hunkExhausted() {
			return
		}
		p.content(line)
	}
}

func (p *parser) startFile(line string) {
	p.commitFile()

	f := &FileDiff{Status: StatusModified}
	if oldPath, newPath, ok := HeaderPaths(line); ok {
		f.Path = newPath
		if oldPath != newPath {
			f.OldPath = oldPath
		}
	}
	p.file = f
}

func (p *parser) startHunk(line string) {
	p.commitHunk()
	if p.file.Binary {
		return
	}

	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		p.warnings++
		return
	}

	oldStart, _ := strconv.Atoi(m[1])
	newStart, _ := strconv.Atoi(m[3])
	p.hunk = &Hunk{
		Header:   line,
		OldStart: oldStart,
		OldLines: count(m[2]),
		NewStart: newStart,
		NewLines: count(m[4]),
		Lines: []Line{{
			Type:    LineHunkHeader,
			Content: strings.TrimSpace(m[5]),
		}},
	}
	p.oldLine, p.newLine = oldStart, newStart
	p.oldSeen, p.newSeen = 0, 0
}

func (p *parser) content(line string) {
	if line == "" {
		p.context("")
		return
	}
	switch line[0] {
	case '+':
		p.hunk.Lines = append(p.hunk.Lines, Line{
			Type:          LineAddition,
			Content:       line[1:],
			NewLineNumber: p.newLine,
		})
		p.newLine++
		p.newSeen++
		p.file.Additions++
	case '-':
		p.hunk.Lines = append(p.hunk.Lines, Line{
			Type:          LineDeletion,
			Content:       line[1:],
			OldLineNumber: p.oldLine,
		})
		p.oldLine++
		p.oldSeen++
		p.file.Deletions++
	case ' ':
		p.context(line[1:])
	case '\\':
		// "\ No newline at end of file"
	}
}

func (p *parser) context(content string) {
	p.hunk.Lines = append(p.hunk.Lines, Line{
		Type:          LineContext,
		Content:       content,
		OldLineNumber: p.oldLine,
		NewLineNumber: p.newLine,
	})
	p.oldLine++
	p.newLine++
	p.oldSeen++
	p.newSeen++
}

func (p *parser) hunkExhausted() bool {
	return p.oldSeen >= p.hunk.OldLines && p.newSeen >= p.hunk.NewLines
}

func (p *parser) commitHunk() {
	if p.hunk != nil && p.file != nil {
		p.file.Hunks = append(p.file.Hunks, *p.hunk)
	}
	p.hunk = nil
}

func (p *parser) commitFile() {
	p.commitHunk()
	if p.file == nil {
		return
	}
	if p.file.Binary || p.file.Hunks == nil {
		p.file.Hunks = []Hunk{}
	}
	p.out = append(p.out, *p.file)
	p.file = nil
}

func isContent(line string) bool {
	return line != "" && (line[0] == '+' || line[0] == '-' || line[0] == ' ' || line[0] == '\\')
}

// count parses an optional hunk range length; an omitted count means 1.
func count(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return n
}
