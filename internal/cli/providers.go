package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/lyon/internal/config"
	"github.com/dshills/lyon/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List AI providers and whether their command is installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		custom := customProviders(cfg)

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tCOMMAND\tSTATUS")
		for _, name := range providers.Names(custom) {
			p, err := providers.New(name, cfg.Model, custom)
			if err != nil {
				fmt.Fprintf(tw, "%s\t-\t%v\n", name, err)
				continue
			}
			status := "not found"
			if p.Available() {
				status = "available"
			}
			if name == cfg.Provider {
				status += " (default)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, p.Binary(), status)
		}
		return tw.Flush()
	},
}
