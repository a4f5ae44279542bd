package metrics

import "github.com/DukeRupert/busroute/internal/domain"

// QuoteSubmitted records a stored quote and its grand total.
func QuoteSubmitted(tier domain.Tier, amount domain.Money) {
	QuotesSubmitted.WithLabelValues(tier.String()).Inc()
	dollars, _ := amount.Decimal().Float64()
	QuoteAmountDollars.WithLabelValues(tier.String()).Observe(dollars)
}

// QuoteDecided records an approval or rejection.
func QuoteDecided(status domain.QuoteStatus) {
	QuoteDecisions.WithLabelValues(status.String()).Inc()
}

// QuoteRefused records a request that never produced a quote.
func QuoteRefused(reason string) {
	QuotesRejectedInput.WithLabelValues(reason).Inc()
}
