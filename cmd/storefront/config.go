package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/medihome/storefront/internal/config"
	"github.com/spf13/cobra"
)

func configCmd(configPath *string) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print every configuration key with the value the server would use,
after the config file and STOREFRONT_* environment overrides are applied.

Examples:
  storefront config
  storefront config --defaults
  STOREFRONT_TOAST_POLICY=legacy storefront config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if !defaults {
				var err error
				if cfg, err = config.Load(*configPath); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if p := cfg.Path(); p != "" {
				fmt.Fprintf(out, "# %s\n", p)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, e := range cfg.Entries() {
				fmt.Fprintf(tw, "%s\t%v\n", e.Key, e.Value)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print built-in defaults, ignoring file and environment")

	return cmd
}
