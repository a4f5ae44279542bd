// Package pricing implements the quote pricing engine: the tier rate table,
// the volume discount schedule, and quote assembly.
package pricing

import (
	"errors"
	"fmt"

	"github.com/DukeRupert/busroute/internal/domain"
)

// Engine errors. Each is returned wrapped in a *domain.Error and can be
// matched with errors.Is.
var (
	// ErrInvalidTier is returned for a tier outside BASIC, PROFESSIONAL, ENTERPRISE.
	ErrInvalidTier = errors.New("invalid subscription tier")

	// ErrInvalidCount is returned when any student or bus count is negative.
	ErrInvalidCount = errors.New("invalid count")

	// ErrInvalidPricingState is returned when a discount would make a
	// per-bus price negative.
	ErrInvalidPricingState = errors.New("invalid pricing state")
)

// TierRate is the annual pricing of one subscription tier.
type TierRate struct {
	Tier            domain.Tier
	BaseAnnualFee   domain.Money
	PerBusAnnualFee domain.Money
}

// tierRates must have an entry for every domain.Tier.
var tierRates = map[domain.Tier]TierRate{
	domain.TierBasic: {
		Tier:            domain.TierBasic,
		BaseAnnualFee:   domain.Dollars(3000),
		PerBusAnnualFee: domain.Dollars(150),
	},
	domain.TierProfessional: {
		Tier:            domain.TierProfessional,
		BaseAnnualFee:   domain.Dollars(5000),
		PerBusAnnualFee: domain.Dollars(310),
	},
	domain.TierEnterprise: {
		Tier:            domain.TierEnterprise,
		BaseAnnualFee:   domain.Dollars(10000),
		PerBusAnnualFee: domain.Dollars(460),
	},
}

// RatesFor returns the rate pair for tier. Unknown tiers are rejected.
func RatesFor(tier domain.Tier) (TierRate, error) {
	const op = "pricing.rates_for"

	if !tier.IsValid() {
		return TierRate{}, domain.Wrap(ErrInvalidTier, domain.EINVALID, op,
			fmt.Sprintf("tier %q is not one of BASIC, PROFESSIONAL, ENTERPRISE", tier))
	}
	rate, ok := tierRates[tier]
	if !ok {
		return TierRate{}, domain.Wrap(ErrInvalidTier, domain.EINVALID, op,
			fmt.Sprintf("no rates configured for tier %q", tier))
	}
	return rate, nil
}

// Rates returns the full rate table in plan order.
func Rates() []TierRate {
	rates := make([]TierRate, 0, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		rates = append(rates, tierRates[tier])
	}
	return rates
}
