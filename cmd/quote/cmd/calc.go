package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/pricing"
)

type calcOptions struct {
	tier     string
	buses    int
	legacy   int
	newBuses int
	students int
	district string
	asJSON   bool
}

func newCalcCmd() *cobra.Command {
	opts := &calcOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Price a quote",
		Long: `Price a quote and print every line of the calculation.

Legacy and new bus counts are independent of --buses; only --buses drives
the volume discount and only --legacy adds hardware kits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.tier, "tier", "t", "", "subscription tier (basic, professional, enterprise)")
	cmd.Flags().IntVarP(&opts.buses, "buses", "b", 0, "total fleet size")
	cmd.Flags().IntVar(&opts.legacy, "legacy", 0, "legacy buses needing a hardware kit")
	cmd.Flags().IntVar(&opts.newBuses, "new", 0, "new buses with built-in hardware")
	cmd.Flags().IntVar(&opts.students, "students", 0, "students transported")
	cmd.Flags().StringVar(&opts.district, "district", "", "district name for the printout")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("tier")

	return cmd
}

// calcOutput is the --json form of a calculation.
type calcOutput struct {
	District            string       `json:"district,omitempty"`
	Tier                domain.Tier  `json:"tier"`
	StudentCount        int          `json:"student_count"`
	BusCount            int          `json:"bus_count"`
	LegacyBusCount      int          `json:"legacy_bus_count"`
	NewBusCount         int          `json:"new_bus_count"`
	BaseAnnualFee       domain.Money `json:"base_annual_fee"`
	PerBusAnnualFee     domain.Money `json:"per_bus_annual_fee"`
	DiscountPerBus      domain.Money `json:"discount_per_bus"`
	AdjustedPerBusPrice domain.Money `json:"adjusted_per_bus_price"`
	AnnualFleetFee      domain.Money `json:"annual_fleet_fee"`
	HardwareCost        domain.Money `json:"hardware_cost"`
	SetupFee            domain.Money `json:"setup_fee"`
	Amount              domain.Money `json:"amount"`
}

func runCalc(out io.Writer, opts *calcOptions) error {
	req := domain.QuoteRequest{
		DistrictName:   opts.district,
		StudentCount:   opts.students,
		BusCount:       opts.buses,
		LegacyBusCount: opts.legacy,
		NewBusCount:    opts.newBuses,
		Tier:           domain.ParseTier(opts.tier),
	}

	b, err := pricing.NewEngine().Price(req)
	if err != nil {
		return errors.New(domain.ErrorMessage(err))
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(calcOutput{
			District:            req.DistrictName,
			Tier:                req.Tier,
			StudentCount:        req.StudentCount,
			BusCount:            req.BusCount,
			LegacyBusCount:      req.LegacyBusCount,
			NewBusCount:         req.NewBusCount,
			BaseAnnualFee:       b.BaseAnnualFee,
			PerBusAnnualFee:     b.PerBusAnnualFee,
			DiscountPerBus:      b.DiscountPerBus,
			AdjustedPerBusPrice: b.AdjustedPerBusPrice,
			AnnualFleetFee:      b.AnnualFleetFee,
			HardwareCost:        b.HardwareCost,
			SetupFee:            b.SetupFee,
			Amount:              b.Amount,
		})
	}

	if req.DistrictName != "" {
		fmt.Fprintf(out, "%s\n", req.DistrictName)
	}
	fmt.Fprintf(out, "%s plan, %d buses (%d legacy, %d new)\n\n",
		req.Tier.DisplayName(), req.BusCount, req.LegacyBusCount, req.NewBusCount)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Base annual fee\t%s\t\n", b.BaseAnnualFee.Display())
	fmt.Fprintf(tw, "Per-bus fee\t%s\t\n", b.PerBusAnnualFee.Display())
	fmt.Fprintf(tw, "Volume discount per bus\t-%s\t\n", b.DiscountPerBus.Display())
	fmt.Fprintf(tw, "Adjusted per-bus price\t%s\t\n", b.AdjustedPerBusPrice.Display())
	fmt.Fprintf(tw, "Annual fleet fee\t%s\t\n", b.AnnualFleetFee.Display())
	fmt.Fprintf(tw, "Hardware kits (%d x %s)\t%s\t\n", req.LegacyBusCount, pricing.HardwareKitPrice.Display(), b.HardwareCost.Display())
	fmt.Fprintf(tw, "Setup fee\t%s\t\n", b.SetupFee.Display())
	fmt.Fprintf(tw, "Total\t%s\t\n", b.Amount.Display())
	return tw.Flush()
}
