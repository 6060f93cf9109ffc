package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the CardLedger admin CLI. Subcommands (auth, slug, cards) are attached here.
var rootCmd = &cobra.Command{
	Use:           "cardledger",
	Short:         "CardLedger admin CLI",
	Long:          "Administrative utilities for CardLedger (dev tokens, slug inspection, checklist imports).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
