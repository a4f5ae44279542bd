package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/busroute/internal/pricing"
)

func newRatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Print the tier rate table and volume discounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRates(cmd.OutOrStdout())
		},
	}
}

func runRates(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "TIER\tBASE ANNUAL FEE\tPER BUS")
	for _, r := range pricing.Rates() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Tier.DisplayName(), r.BaseAnnualFee.Display(), r.PerBusAnnualFee.Display())
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "FLEET SIZE\tDISCOUNT PER BUS")
	brackets := pricing.Brackets()
	for i, b := range brackets {
		var size string
		if i+1 < len(brackets) {
			size = fmt.Sprintf("%d-%d", b.MinExclusive+1, brackets[i+1].MinExclusive)
		} else {
			size = fmt.Sprintf("%d+", b.MinExclusive+1)
		}
		fmt.Fprintf(tw, "%s\t%s\n", size, b.DiscountPerBus.Display())
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Hardware kit per legacy bus\t%s\n", pricing.HardwareKitPrice.Display())
	fmt.Fprintf(tw, "One-time setup fee\t%s\n", pricing.SetupFee.Display())

	return tw.Flush()
}
