package main

import (
	"os"

	"github.com/medihome/storefront/internal/errors"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "MediHome storefront server",
		Long: `Storefront serves the MediHome shop pages.

Page state, toasts and the flash message cascade are driven from the
server over a WebSocket; the browser only applies what it is told.

Configuration is read from storefront.yaml (or .json/.toml) in the
working directory, or from --config, and can be overridden with
STOREFRONT_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		configCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}
