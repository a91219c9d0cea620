package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/lyon/internal/config"
	"github.com/dshills/lyon/internal/output"
	"github.com/dshills/lyon/internal/review"
	"github.com/dshills/lyon/internal/store"
)

var (
	flagHistoryRepo  string
	flagHistoryLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored reviews",
}

// withHistory opens the history database for the duration of fn.
func withHistory(fn func(ctx context.Context, st *store.Store, cfg config.Config) error) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	st, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer st.Close()
	return fn(context.Background(), st, cfg)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reviews, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, st *store.Store, _ config.Config) error {
			results, err := st.List(ctx, flagHistoryRepo, flagHistoryLimit)
			if err != nil {
				return err
			}
			return output.WriteHistory(os.Stdout, results)
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, st *store.Store, cfg config.Config) error {
			res, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			format := cfg.Format
			if flagFormat != "" {
				format = flagFormat
			}
			return output.WriteReport(storedReport(res), format, "", useColor())
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, st *store.Store, _ config.Config) error {
			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Deleted review %s\n", args[0])
			return nil
		})
	},
}

func storedReport(res review.Result) *output.Report {
	source := "local changes"
	switch {
	case res.PRNumber > 0:
		source = fmt.Sprintf("PR #%d (%s)", res.PRNumber, res.Repository)
	case res.Repository != "":
		source = "local changes in " + res.Repository
	}
	report := &output.Report{Result: res, Source: source}
	if res.CompletedAt != nil {
		report.Elapsed = res.CompletedAt.Sub(res.CreatedAt)
	}
	return report
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyListCmd.Flags().StringVar(&flagHistoryRepo, "repo", "", "Only list reviews of this repository (owner/name)")
	historyListCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum number of reviews to list")
	historyShowCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
}
