package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aquilax/truncate"
	"github.com/dustin/go-humanize"

	"github.com/dshills/lyon/internal/review"
)

const historySummaryWidth = 50

// WriteHistory lists stored reviews one per row, newest first as given.
func WriteHistory(w io.Writer, results []review.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No reviews in history.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTARGET\tPROVIDER\tSTATUS\tCOMMENTS\tSUMMARY")
	for _, r := range results {
		target := r.Repository
		if r.PRNumber > 0 {
			target = fmt.Sprintf("%s#%d", r.Repository, r.PRNumber)
		}
		if target == "" {
			target = "local"
		}
		summary := truncate.Truncate(firstLine(r.Summary), historySummaryWidth, "...", truncate.PositionEnd)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, humanize.Time(r.CreatedAt), target, r.Provider, r.Status, len(r.Comments), summary)
	}
	return tw.Flush()
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
