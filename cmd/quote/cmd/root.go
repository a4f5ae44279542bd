// Package cmd provides the commands of the quote CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quote",
		Short: "Price school bus fleet subscriptions",
		Long: `quote prices a district's fleet subscription with the same rate table
and volume discounts the quote API uses.

Examples:
  quote calc --tier basic --buses 120 --legacy 20 --new 100
  quote calc --tier enterprise --buses 600 --json
  quote rates`,
		SilenceUsage: true,
	}

	root.AddCommand(newCalcCmd())
	root.AddCommand(newRatesCmd())

	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
