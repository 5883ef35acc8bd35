package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "tokensift",
	Short: "Tokensift - rule-based token classifier",
	Long: `Tokensift classifies text tokens against directories of YAML pattern rules.
Each rule pairs a name with a regular expression; a scan reports every rule a
token triggers, grouped by the file the rule came from.

Rules that fail to load are skipped silently, so a partially broken rule
directory still classifies with whatever compiled.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: tokensift.yaml in search path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (report skipped rules)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (results only)")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
