package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/review"
)

// Report is a finished review plus the context it was produced in.
type Report struct {
	Result review.Result `json:"result"`
	// Source describes what was reviewed, e.g. "PR #42" or "staged changes".
	Source  string        `json:"source"`
	Branch  string        `json:"branch,omitempty"`
	Stats   diff.Stats    `json:"stats"`
	Elapsed time.Duration `json:"elapsedNs"`
	// Reused is set when the result came from history instead of a new run.
	Reused bool `json:"reused,omitempty"`
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "markdown"}

// GetWriter returns a writer for the specified format. color only affects
// the text format.
func GetWriter(format string, color bool) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{Color: color}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
// Files never receive colour.
func WriteReport(report *Report, format, outPath string, color bool) error {
	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
		color = false
	}

	writer, err := GetWriter(format, color)
	if err != nil {
		return err
	}
	return writer.Write(w, report)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
