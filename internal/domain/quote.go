// Package domain contains core business types and interfaces.
//
// This file defines the Quote domain type: the priced sales proposal a
// school district requests from the marketing site.
package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// Subscription Tier
// =============================================================================

// Tier is the subscription plan a district is quoting for.
type Tier string

const (
	TierBasic        Tier = "BASIC"
	TierProfessional Tier = "PROFESSIONAL"
	TierEnterprise   Tier = "ENTERPRISE"
)

// Tiers lists every tier in ascending plan order.
var Tiers = []Tier{TierBasic, TierProfessional, TierEnterprise}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// IsValid returns true if the tier is a recognized value.
func (t Tier) IsValid() bool {
	switch t {
	case TierBasic, TierProfessional, TierEnterprise:
		return true
	}
	return false
}

// DisplayName returns the marketing name of the tier, e.g. "Professional".
func (t Tier) DisplayName() string {
	return cases.Title(language.English).String(strings.ToLower(string(t)))
}

// ParseTier normalizes user input ("professional", " Basic ") into a Tier.
// The result must still be checked with IsValid.
func ParseTier(s string) Tier {
	return Tier(strings.ToUpper(strings.TrimSpace(s)))
}

// HasControlChars reports whether s contains CR, LF, or any other control
// character. Free-text quote fields must be single-line printable text.
func HasControlChars(s string) bool {
	return strings.ContainsFunc(s, unicode.IsControl)
}

// =============================================================================
// Quote Status
// =============================================================================

// QuoteStatus represents where a quote is in the sales pipeline.
type QuoteStatus string

const (
	// QuoteStatusPending is the status of every newly priced quote.
	QuoteStatusPending QuoteStatus = "PENDING"

	// QuoteStatusApproved indicates sales accepted the quote and a PO may follow.
	QuoteStatusApproved QuoteStatus = "APPROVED"

	// QuoteStatusRejected indicates sales declined the quote.
	QuoteStatusRejected QuoteStatus = "REJECTED"
)

// String returns the string representation of the status.
func (s QuoteStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusApproved, QuoteStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo returns true if a quote in status s may move to next.
// Only pending quotes can be decided; decisions are final.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	return s == QuoteStatusPending &&
		(next == QuoteStatusApproved || next == QuoteStatusRejected)
}

// =============================================================================
// Quote Request
// =============================================================================

// QuoteRequest is the district-supplied input to the pricing engine.
//
// LegacyBusCount and NewBusCount are independent of BusCount; no sum
// relation between them is enforced. Only BusCount and LegacyBusCount
// affect the price.
type QuoteRequest struct {
	DistrictName   string
	ContactName    string
	ContactRole    string
	Email          string
	StudentCount   int
	BusCount       int
	LegacyBusCount int
	NewBusCount    int
	Tier           Tier
}

// =============================================================================
// Pricing Breakdown
// =============================================================================

// PricingBreakdown holds every intermediate value of a quote calculation.
type PricingBreakdown struct {
	BaseAnnualFee       Money // Tier base fee
	PerBusAnnualFee     Money // Tier list price per bus
	DiscountPerBus      Money // Volume discount applied to each bus
	AdjustedPerBusPrice Money // PerBusAnnualFee - DiscountPerBus
	AnnualFleetFee      Money // BaseAnnualFee + BusCount * AdjustedPerBusPrice
	HardwareCost        Money // LegacyBusCount * hardware kit price
	SetupFee            Money // One-time onboarding fee
	Amount              Money // Grand total
}

// =============================================================================
// Quote Domain Type
// =============================================================================

// SubmittedDateLayout is the calendar date format of Quote.SubmittedDate.
const SubmittedDateLayout = "2006-01-02"

// Quote is a priced proposal produced from exactly one QuoteRequest.
// It is never modified by the pricing engine after creation; status changes
// happen in the admin pipeline.
type Quote struct {
	ID string
	QuoteRequest

	Amount        Money       // Grand total
	HardwareCost  Money       // Retrofit kits for legacy buses
	SetupFee      Money       // One-time setup fee
	Status        QuoteStatus // Always PENDING when created
	SubmittedDate string      // YYYY-MM-DD
	Breakdown     PricingBreakdown

	// Persistence fields (zero until stored)
	SubmittedAt time.Time
	DecidedAt   *time.Time
	DocumentKey string
	UpdatedAt   time.Time
}

// IsDecided returns true once the quote was approved or rejected.
func (q *Quote) IsDecided() bool {
	return q.Status == QuoteStatusApproved || q.Status == QuoteStatusRejected
}

// HasDocument returns true if a PDF proposal has been rendered for the quote.
func (q *Quote) HasDocument() bool {
	return q.DocumentKey != ""
}

// =============================================================================
// Listing
// =============================================================================

// ListQuotesParams filters and paginates the admin quote listing.
type ListQuotesParams struct {
	Statuses []QuoteStatus // Empty means all statuses
	Limit    int32
	Offset   int32
}

// ListQuotesResult is one page of quotes.
type ListQuotesResult struct {
	Quotes []Quote
	Total  int64
	Limit  int32
	Offset int32
}

// PipelineSummary aggregates the quote pipeline per status.
type PipelineSummary struct {
	Statuses []StatusTotal
	Count    int64
	Amount   Money
}

// StatusTotal is the count and summed amount of quotes in one status.
type StatusTotal struct {
	Status QuoteStatus
	Count  int64
	Amount Money
}
