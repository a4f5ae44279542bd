package pricing

import (
	"fmt"
	"math"

	"github.com/DukeRupert/busroute/internal/domain"
)

const (
	// HardwareKitPrice is the one-time retrofit kit price per legacy bus.
	HardwareKitPrice = domain.Money(200_00)

	// SetupFee is the one-time onboarding fee added to every quote.
	SetupFee = domain.Money(3000_00)

	// IDPrefix namespaces quote identifiers.
	IDPrefix = "Q"

	// MaxCount bounds every count so cent arithmetic cannot overflow int64.
	MaxCount = math.MaxInt32
)

// Engine prices quote requests. It holds no mutable state beyond its ID
// generator and is safe for concurrent use.
type Engine struct {
	clock Clock
	ids   IDGenerator
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source used for SubmittedDate and IDs.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the quote identifier source.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// NewEngine returns an Engine reading the system clock and issuing
// sequence IDs unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock: SystemClock,
		ids:   NewSequenceIDGenerator(IDPrefix),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Price computes every line of a quote without issuing an ID or date.
func (e *Engine) Price(req domain.QuoteRequest) (domain.PricingBreakdown, error) {
	const op = "pricing.price"

	if err := validateCounts(req); err != nil {
		return domain.PricingBreakdown{}, err
	}

	rate, err := RatesFor(req.Tier)
	if err != nil {
		return domain.PricingBreakdown{}, err
	}

	discount := DiscountPerBus(req.BusCount)
	adjusted := rate.PerBusAnnualFee.Sub(discount)
	if adjusted.IsNegative() {
		return domain.PricingBreakdown{}, domain.Wrap(ErrInvalidPricingState, domain.EINVALID, op,
			fmt.Sprintf("discount %s exceeds per-bus fee %s for tier %s", discount, rate.PerBusAnnualFee, req.Tier))
	}

	annual := rate.BaseAnnualFee.Add(adjusted.Mul(req.BusCount))
	hardware := HardwareKitPrice.Mul(req.LegacyBusCount)

	return domain.PricingBreakdown{
		BaseAnnualFee:       rate.BaseAnnualFee,
		PerBusAnnualFee:     rate.PerBusAnnualFee,
		DiscountPerBus:      discount,
		AdjustedPerBusPrice: adjusted,
		AnnualFleetFee:      annual,
		HardwareCost:        hardware,
		SetupFee:            SetupFee,
		Amount:              annual.Add(hardware).Add(SetupFee),
	}, nil
}

// Compute prices req and returns a new PENDING quote with a fresh ID and
// submission date. Either a complete quote or an error is returned.
func (e *Engine) Compute(req domain.QuoteRequest) (*domain.Quote, error) {
	breakdown, err := e.Price(req)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	return &domain.Quote{
		ID:            e.ids.NewID(now),
		QuoteRequest:  req,
		Amount:        breakdown.Amount,
		HardwareCost:  breakdown.HardwareCost,
		SetupFee:      breakdown.SetupFee,
		Status:        domain.QuoteStatusPending,
		SubmittedDate: now.Format(domain.SubmittedDateLayout),
		Breakdown:     breakdown,
	}, nil
}

func validateCounts(req domain.QuoteRequest) error {
	const op = "pricing.validate"

	counts := []struct {
		name  string
		value int
	}{
		{"student count", req.StudentCount},
		{"bus count", req.BusCount},
		{"legacy bus count", req.LegacyBusCount},
		{"new bus count", req.NewBusCount},
	}
	for _, c := range counts {
		if c.value < 0 {
			return domain.Wrap(ErrInvalidCount, domain.EINVALID, op,
				fmt.Sprintf("%s must not be negative, got %d", c.name, c.value))
		}
		if c.value > MaxCount {
			return domain.Wrap(ErrInvalidCount, domain.EINVALID, op,
				fmt.Sprintf("%s must be at most %d, got %d", c.name, MaxCount, c.value))
		}
	}
	return nil
}
