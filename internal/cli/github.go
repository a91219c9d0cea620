package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/lyon/internal/config"
	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/github"
	"github.com/dshills/lyon/internal/review"
)

var (
	flagRepo string
	flagPost bool
)

func parsePRNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid PR number %q", s)
	}
	return n, nil
}

// resolveRepo returns owner and name from --repo or the origin remote of
// the current directory.
func resolveRepo() (owner, repo string, err error) {
	if flagRepo != "" {
		return github.SplitRepo(flagRepo)
	}
	owner, repo, err = github.DetectRepo(".")
	if err != nil {
		return "", "", fmt.Errorf("%w\nUse --repo owner/name to specify the repository", err)
	}
	return owner, repo, nil
}

func ghExitCode(err error) int {
	if github.IsAuthError(err) {
		return ExitAuthError
	}
	return ExitRuntimeError
}

// openPR fetches a pull request and its diff. The returned code is the exit
// status to use when err is non-nil.
func openPR(ctx context.Context, cfg config.Config, number int) (target, int, error) {
	owner, repo, err := resolveRepo()
	if err != nil {
		return target{}, ExitUsageError, err
	}
	gh, err := github.NewClient(cfg.GitHub.APIURL)
	if err != nil {
		return target{}, ExitAuthError, err
	}

	fmt.Fprintf(os.Stderr, "Fetching PR #%d from %s/%s...\n", number, owner, repo)
	pr, err := gh.GetPR(ctx, owner, repo, number)
	if err != nil {
		return target{}, ghExitCode(err), err
	}
	d, err := gh.GetPRDiff(ctx, owner, repo, number)
	if err != nil {
		return target{}, ghExitCode(err), err
	}

	return target{
		source:     fmt.Sprintf("PR #%d (%s/%s)", number, owner, repo),
		branch:     pr.HeadRef,
		repository: owner + "/" + repo,
		diff:       d,
		prNumber:   number,
		title:      pr.Title,
		body:       pr.Body,
		headSHA:    pr.HeadSHA,
		owner:      owner,
		repo:       repo,
		gh:         gh,
	}, ExitSuccess, nil
}

func postReview(ctx context.Context, t target, res review.Result, parsed diff.ParsedDiff) {
	if res.Status != review.StatusCompleted {
		fmt.Fprintf(os.Stderr, "Review %s did not complete, nothing posted.\n", res.ID)
		return
	}

	req := github.BuildReview(res, parsed)
	req.CommitID = t.headSHA
	fmt.Fprintf(os.Stderr, "Posting review (%d inline comments)...\n", len(req.Comments))

	if err := t.gh.PostReview(ctx, t.owner, t.repo, t.prNumber, req); err != nil {
		fail(ghExitCode(err), "%v", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", t.prNumber)
}

var reviewPRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Review a GitHub pull request",
	Long: "Fetch a PR diff from GitHub, run the review, and optionally post the findings " +
		"as a PR review with inline comments.",
	Args: cobra.ExactArgs(1),
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

		ctx, stop := interruptContext()
		defer stop()

		t, code, err := openPR(ctx, cfg, number)
		if err != nil {
			fail(code, "%v", err)
			return nil
		}
		runReview(ctx, t, cfg)
		return nil
	},
}

func init() {
	reviewPRCmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository as owner/name (auto-detected if omitted)")
	reviewPRCmd.Flags().BoolVar(&flagPost, "post", false, "Post the review to the pull request")
}
