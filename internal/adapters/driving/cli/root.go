// Package cli implements the introspect command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/joelmbaka/introspect/internal/logger"
)

// version is the CLI version, overridable at build time with -ldflags.
var version = "0.1.0"

// Persistent flag values.
var (
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Journal analysis report generator",
	Long: `Introspect turns natural-language questions about a personal journal
into structured analysis reports. It selects a retrieval strategy from the
prompt, fetches matching entries from the configured store, and synthesizes
a schema-validated report.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose diagnostic output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.introspect/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
