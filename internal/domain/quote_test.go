package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTier_IsValid(t *testing.T) {
	for _, tier := range Tiers {
		assert.True(t, tier.IsValid(), tier)
	}
	assert.False(t, Tier("").IsValid())
	assert.False(t, Tier("basic").IsValid())
	assert.False(t, Tier("PLATINUM").IsValid())
}

func TestTier_DisplayName(t *testing.T) {
	assert.Equal(t, "Basic", TierBasic.DisplayName())
	assert.Equal(t, "Professional", TierProfessional.DisplayName())
	assert.Equal(t, "Enterprise", TierEnterprise.DisplayName())
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierProfessional, ParseTier(" professional "))
	assert.Equal(t, TierBasic, ParseTier("Basic"))
	assert.False(t, ParseTier("gold").IsValid())
}

func TestHasControlChars(t *testing.T) {
	assert.False(t, HasControlChars("Peñasco ISD"))
	assert.False(t, HasControlChars(""))
	assert.True(t, HasControlChars("Springfield\r\nBcc: x@y.example"))
	assert.True(t, HasControlChars("tab\there"))
	assert.True(t, HasControlChars("nul\x00"))
}

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from QuoteStatus
		to   QuoteStatus
		want bool
	}{
		{name: "pending to approved", from: QuoteStatusPending, to: QuoteStatusApproved, want: true},
		{name: "pending to rejected", from: QuoteStatusPending, to: QuoteStatusRejected, want: true},
		{name: "pending to pending", from: QuoteStatusPending, to: QuoteStatusPending, want: false},
		{name: "approved to rejected", from: QuoteStatusApproved, to: QuoteStatusRejected, want: false},
		{name: "rejected to approved", from: QuoteStatusRejected, to: QuoteStatusApproved, want: false},
		{name: "unknown status", from: QuoteStatus("DRAFT"), to: QuoteStatusApproved, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestQuote_IsDecided(t *testing.T) {
	q := Quote{Status: QuoteStatusPending}
	assert.False(t, q.IsDecided())

	q.Status = QuoteStatusApproved
	assert.True(t, q.IsDecided())

	q.Status = QuoteStatusRejected
	assert.True(t, q.IsDecided())
}

func TestErrorHelpers(t *testing.T) {
	err := Conflict("quote.approve", "quote already decided")
	assert.True(t, IsCode(err, ECONFLICT))
	assert.False(t, IsCode(err, ENOTFOUND))
	assert.Equal(t, "quote.approve", ErrorOp(err))
	assert.Equal(t, "quote already decided", ErrorMessage(err))

	internal := Internal(assert.AnError, "quote.submit", "failed to store quote")
	assert.Equal(t, EINTERNAL, ErrorCode(internal))
	assert.NotContains(t, ErrorMessage(internal), "store quote")
	assert.ErrorIs(t, internal, assert.AnError)

	ve := &ValidationError{Op: "quote.validate"}
	assert.False(t, ve.HasErrors())
	ve.Add("email", "Email is required")
	ve.Add("email", "second message ignored")
	assert.True(t, ve.HasErrors())
	assert.Equal(t, "Email is required", ve.Fields["email"])
}
