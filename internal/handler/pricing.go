package handler

import (
	"net/http"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/pricing"
)

// TierRateResponse is one row of the published rate table.
type TierRateResponse struct {
	Tier            domain.Tier  `json:"tier"`
	Name            string       `json:"name"`
	BaseAnnualFee   domain.Money `json:"base_annual_fee"`
	PerBusAnnualFee domain.Money `json:"per_bus_annual_fee"`
}

// BracketResponse is one step of the published discount schedule.
// MaxBuses is omitted for the open-ended top bracket.
type BracketResponse struct {
	MinBuses       int          `json:"min_buses"`
	MaxBuses       *int         `json:"max_buses,omitempty"`
	DiscountPerBus domain.Money `json:"discount_per_bus"`
}

// PricingResponse is the body of GET /api/pricing.
type PricingResponse struct {
	Tiers            []TierRateResponse `json:"tiers"`
	VolumeDiscounts  []BracketResponse  `json:"volume_discounts"`
	HardwareKitPrice domain.Money       `json:"hardware_kit_price"`
	SetupFee         domain.Money       `json:"setup_fee"`
}

// pricingResponse is built once; the tables are immutable.
var pricingResponse = buildPricingResponse()

func buildPricingResponse() PricingResponse {
	resp := PricingResponse{
		HardwareKitPrice: pricing.HardwareKitPrice,
		SetupFee:         pricing.SetupFee,
	}

	for _, rate := range pricing.Rates() {
		resp.Tiers = append(resp.Tiers, TierRateResponse{
			Tier:            rate.Tier,
			Name:            rate.Tier.DisplayName(),
			BaseAnnualFee:   rate.BaseAnnualFee,
			PerBusAnnualFee: rate.PerBusAnnualFee,
		})
	}

	brackets := pricing.Brackets()
	for i, b := range brackets {
		br := BracketResponse{
			MinBuses:       b.MinExclusive + 1,
			DiscountPerBus: b.DiscountPerBus,
		}
		if i+1 < len(brackets) {
			max := brackets[i+1].MinExclusive
			br.MaxBuses = &max
		}
		resp.VolumeDiscounts = append(resp.VolumeDiscounts, br)
	}

	return resp
}

// Pricing handles GET /api/pricing.
func Pricing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, pricingResponse)
}
