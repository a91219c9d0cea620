package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/dshills/lyon/internal/config"
	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/github"
	"github.com/dshills/lyon/internal/highlight"
	"github.com/dshills/lyon/internal/output"
)

var flagReviewID string

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show a diff with comments placed under their lines",
	Long: "Render a pull request or local diff. Pull request review comments and, with --review, " +
		"the comments of a stored review are shown under the lines they refer to.",
}

// renderDiff writes t with comments, adding those of the stored review
// named by --review.
func renderDiff(ctx context.Context, t target, cfg config.Config, comments []output.DiffComment) error {
	if flagReviewID != "" {
		st, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		res, err := st.Get(ctx, flagReviewID)
		if err != nil {
			return err
		}
		comments = append(comments, output.FromReview(res.Comments, res.Provider)...)
	}

	color := useColor()
	w := &output.DiffWriter{Color: color}
	if color && cfg.Highlight.Enabled {
		cache := highlight.New(cfg.Highlight.Capacity, highlight.ChromaTokenizer)
		defer cache.Clear()
		w.Cache = cache
	}
	return w.Write(os.Stdout, diff.Parse(t.diff), comments)
}

func prDiffComments(cs []github.PRComment) []output.DiffComment {
	return lo.Map(cs, func(c github.PRComment, _ int) output.DiffComment {
		return output.DiffComment{Path: c.Path, Line: c.Line, Side: c.Side, Author: c.User, Body: c.Body}
	})
}

var diffPRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Show a pull request diff with its review comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parsePRNumber(args[0])
		if err != nil {
			fail(ExitUsageError, "%v", err)
			return nil
		}
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		ctx := context.Background()
		t, code, err := openPR(ctx, cfg, number)
		if err != nil {
			fail(code, "%v", err)
			return nil
		}
		cs, err := t.gh.ListReviewComments(ctx, t.owner, t.repo, number)
		if err != nil {
			fail(ghExitCode(err), "%v", err)
			return nil
		}

		if err := renderDiff(ctx, t, cfg, prDiffComments(cs)); err != nil {
			fail(ExitRuntimeError, "%v", err)
		}
		return nil
	},
}

func localDiffRunE(mode string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		var revRange string
		if len(args) > 0 {
			revRange = args[0]
		}
		t, err := localTarget(mode, revRange, buildDiffOpts(cfg))
		if err != nil {
			fail(ExitRuntimeError, "%v", err)
			return nil
		}
		if t.diff == "" {
			fmt.Fprintf(os.Stdout, "No %s.\n", t.source)
			return nil
		}
		if err := renderDiff(context.Background(), t, cfg, nil); err != nil {
			fail(ExitRuntimeError, "%v", err)
		}
		return nil
	}
}

var diffUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Show unstaged changes",
	Args:  cobra.NoArgs,
	RunE:  localDiffRunE("unstaged"),
}

var diffStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Show staged changes",
	Args:  cobra.NoArgs,
	RunE:  localDiffRunE("staged"),
}

var diffRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Show a revision range",
	Args:  cobra.ExactArgs(1),
	RunE:  localDiffRunE("range"),
}

func init() {
	diffCmd.AddCommand(diffPRCmd)
	diffCmd.AddCommand(diffUnstagedCmd)
	diffCmd.AddCommand(diffStagedCmd)
	diffCmd.AddCommand(diffRangeCmd)

	for _, cmd := range []*cobra.Command{diffPRCmd, diffUnstagedCmd, diffStagedCmd, diffRangeCmd} {
		addDiffFlags(cmd)
		cmd.Flags().StringVar(&flagReviewID, "review", "", "Overlay the comments of a stored review")
	}
	diffPRCmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository as owner/name (auto-detected if omitted)")
	diffRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
}
