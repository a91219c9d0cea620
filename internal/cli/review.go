package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/dshills/lyon/internal/config"
	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/gitctx"
	"github.com/dshills/lyon/internal/github"
	"github.com/dshills/lyon/internal/output"
	"github.com/dshills/lyon/internal/providers"
	"github.com/dshills/lyon/internal/review"
	"github.com/dshills/lyon/internal/runner"
	"github.com/dshills/lyon/internal/store"
	"github.com/dshills/lyon/internal/stream"
)

// Shared review flags
var (
	flagPaths        string
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagProvider     string
	flagModel        string
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagRules        string
	flagNoRedact     bool
	flagNoSave       bool
	flagVerbose      bool
	flagMergeBase    bool
)

// addDiffFlags registers the flags that select what goes into a diff.
func addDiffFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
}

func addReviewFlags(cmd *cobra.Command) {
	addDiffFlags(cmd)
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "AI provider (claude, codex, or a configured custom provider)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name passed to the provider")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, suggestion, info, warning, critical)")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not record the review in history")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Stream provider output to stderr")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagContextLines > 0 {
		m["contextLines"] = fmt.Sprintf("%d", flagContextLines)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = fmt.Sprintf("%d", flagMaxDiffBytes)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// target is a diff to review or display, with where it came from.
type target struct {
	source     string
	branch     string
	repository string
	diff       string

	// Set for pull requests only.
	prNumber int
	title    string
	body     string
	headSHA  string
	owner    string
	repo     string
	gh       *github.Client
}

func localTarget(mode, revRange string, opts gitctx.DiffOptions) (target, error) {
	var (
		res    gitctx.DiffResult
		err    error
		source string
	)
	switch mode {
	case "unstaged":
		res, err = gitctx.Unstaged(opts)
		source = "unstaged changes"
	case "staged":
		res, err = gitctx.Staged(opts)
		source = "staged changes"
	case "range":
		res, err = gitctx.Range(revRange, flagMergeBase, opts)
		source = "range " + revRange
	default:
		return target{}, fmt.Errorf("unknown diff mode %q", mode)
	}
	if err != nil {
		return target{}, err
	}
	if res.Truncated {
		fmt.Fprintf(os.Stderr, "Warning: diff truncated to %d bytes\n", opts.MaxDiffBytes)
	}
	return target{
		source:     source,
		branch:     res.Repo.Branch,
		repository: localRepository(res.Repo),
		diff:       res.Diff,
	}, nil
}

// localRepository names a working copy by its origin remote, falling back
// to the directory name.
func localRepository(meta gitctx.RepoMeta) string {
	if meta.Root == "" {
		return ""
	}
	if owner, repo, err := github.DetectRepo(meta.Root); err == nil {
		return owner + "/" + repo
	}
	return filepath.Base(meta.Root)
}

func customProviders(cfg config.Config) map[string]providers.Custom {
	return lo.MapValues(cfg.Providers, func(pc config.ProviderConfig, _ string) providers.Custom {
		return providers.Custom{Command: pc.Command, Args: pc.Args}
	})
}

var errHistoryDisabled = errors.New("review history is disabled (store.enabled = false)")

func openHistory(cfg config.Config) (*store.Store, error) {
	if !cfg.Store.Enabled {
		return nil, errHistoryDisabled
	}
	path := cfg.Store.Path
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}

func newEngine(p review.Provider) *review.Engine {
	bus := stream.NewBus()
	return &review.Engine{
		Launcher: runner.NewHost(bus),
		Events:   bus,
		Provider: p,
	}
}

func reviewProgress(provider string) review.Progress {
	progress := review.Progress{
		OnRedacted: func(n int) {
			fmt.Fprintf(os.Stderr, "Redacted %d sensitive value(s) before sending to %s\n", n, provider)
		},
	}
	if !flagVerbose {
		return progress
	}
	progress.OnStatus = func(s review.Status) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", provider, s)
	}
	progress.OnThinking = func() {
		fmt.Fprintf(os.Stderr, "[%s] thinking...\n", provider)
	}
	progress.OnDelta = func(_ stream.Kind, text string) {
		fmt.Fprint(os.Stderr, text)
	}
	return progress
}

func runReview(ctx context.Context, t target, cfg config.Config) {
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	if _, err := output.GetWriter(cfg.Format, false); err != nil {
		fail(ExitUsageError, "%v", err)
		return
	}
	rules, err := review.LoadRules(cfg.RulesFile)
	if err != nil {
		fail(ExitUsageError, "%v", err)
		return
	}
	p, err := providers.New(cfg.Provider, cfg.Model, customProviders(cfg))
	if err != nil {
		fail(ExitUsageError, "%v", err)
		return
	}

	var st *store.Store
	if !flagNoSave {
		st, err = openHistory(cfg)
		if err != nil {
			if !errors.Is(err, errHistoryDisabled) {
				fmt.Fprintf(os.Stderr, "Warning: review history unavailable: %v\n", err)
			}
			st = nil
		} else {
			defer st.Close()
		}
	}
	key := store.BuildKey(p.Name(), cfg.Model, t.diff)

	start := time.Now()
	res, reused := findReusable(ctx, st, key, cfg)
	if !reused {
		if !p.Available() {
			fail(ExitRuntimeError, "provider %s: %s not found in PATH", p.Name(), p.Binary())
			return
		}
		fmt.Fprintf(os.Stderr, "Reviewing %s with %s...\n", t.source, p.Name())
		res, err = newEngine(p).Run(ctx, review.Request{
			Diff:          t.diff,
			Title:         t.title,
			Body:          t.body,
			PRNumber:      t.prNumber,
			Repository:    t.repository,
			Rules:         rules,
			RedactSecrets: cfg.Privacy.RedactSecrets,
			RedactPaths:   cfg.Privacy.RedactPaths,
		}, reviewProgress(p.Name()))
		if st != nil {
			if serr := st.Save(context.WithoutCancel(ctx), res, key); serr != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save review: %v\n", serr)
			}
		}
		if err != nil {
			if errors.Is(err, stream.ErrCancelled) {
				fail(ExitRuntimeError, "review %s cancelled", res.ID)
				return
			}
			fail(ExitRuntimeError, "%v", err)
			return
		}
	}

	parsed := diff.Parse(t.diff)
	report := &output.Report{
		Result:  res,
		Source:  t.source,
		Branch:  t.branch,
		Stats:   parsed.Stats,
		Elapsed: time.Since(start),
		Reused:  reused,
	}
	if err := output.WriteReport(report, cfg.Format, flagOut, useColor()); err != nil {
		fail(ExitRuntimeError, "writing output: %v", err)
		return
	}

	if flagPost && t.gh != nil {
		postReview(ctx, t, res, parsed)
		if exitCode != ExitSuccess {
			return
		}
	}

	if lo.ContainsBy(res.Comments, func(c review.Comment) bool {
		return review.MeetsThreshold(c.Severity, cfg.FailOn)
	}) {
		exitCode = ExitFindings
	}
}

// findReusable returns a stored completed review of the same diff when
// reuse is enabled and one is recent enough.
func findReusable(ctx context.Context, st *store.Store, key string, cfg config.Config) (review.Result, bool) {
	if st == nil || cfg.Store.ReuseTTLSeconds <= 0 {
		return review.Result{}, false
	}
	res, ok, err := st.FindByKey(ctx, key, time.Duration(cfg.Store.ReuseTTLSeconds)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: review history lookup failed: %v\n", err)
		return review.Result{}, false
	}
	return res, ok
}

// interruptContext is cancelled on Ctrl-C so a running review is stopped.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review a pull request or local changes with an AI provider. Use subcommands to specify what to review.",
}

func localReviewRunE(mode string) func(*cobra.Command, []string) error {
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

		ctx, stop := interruptContext()
		defer stop()
		runReview(ctx, t, cfg)
		return nil
	}
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE:  localReviewRunE("unstaged"),
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE:  localReviewRunE("staged"),
}

var reviewRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE:  localReviewRunE("range"),
}

func init() {
	reviewCmd.AddCommand(reviewPRCmd)
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewRangeCmd)

	for _, cmd := range []*cobra.Command{
		reviewPRCmd,
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewRangeCmd,
	} {
		addReviewFlags(cmd)
	}

	reviewRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
}
