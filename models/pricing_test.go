package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightning-pass/internal/status"
)

func approvedVenue() *Venue {
	return &Venue{
		ID:              "venue-1",
		Name:            "Neon Room",
		CurrentPrice:    decimal.NewFromInt(35),
		BasePrice:       decimal.NewFromInt(25),
		AvailablePasses: 50,
		IsActive:        true,
		ApprovalStatus:  ApprovalApproved,
		PayoutAccount:   "acct_123",
	}
}

func TestResolveQuote_VenueListPrice(t *testing.T) {
	venue := approvedVenue()

	quote, err := ResolveQuote(venue, nil, 2, 0)
	require.NoError(t, err)

	assert.True(t, quote.UnitPrice.Equal(decimal.NewFromInt(35)))
	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(70)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, 0, quote.DiscountPercent)
	assert.Empty(t, quote.TemplateID)
}

func TestResolveQuote_TemplatePrice(t *testing.T) {
	venue := approvedVenue()
	tmpl := &PassTemplate{
		ID:       "tmpl-1",
		VenueID:  "venue-1",
		Name:     "VIP Unlimited",
		Price:    decimal.NewFromInt(120),
		IsActive: true,
	}

	quote, err := ResolveQuote(venue, tmpl, 3, 0)
	require.NoError(t, err)

	assert.Equal(t, "tmpl-1", quote.TemplateID)
	assert.Equal(t, "VIP Unlimited", quote.PassName)
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(360)))
}

func TestResolveQuote_InactiveTemplate(t *testing.T) {
	venue := approvedVenue()
	tmpl := &PassTemplate{ID: "tmpl-1", VenueID: "venue-1", Price: decimal.NewFromInt(50)}

	_, err := ResolveQuote(venue, tmpl, 1, 0)
	assert.ErrorIs(t, err, status.ErrTemplateInactive)
}

func TestResolveQuote_TemplateWrongVenue(t *testing.T) {
	venue := approvedVenue()
	tmpl := &PassTemplate{ID: "tmpl-1", VenueID: "other-venue", Price: decimal.NewFromInt(50), IsActive: true}

	_, err := ResolveQuote(venue, tmpl, 1, 0)
	assert.ErrorIs(t, err, status.ErrTemplateNotFound)
}

func TestResolveQuote_QuantityBounds(t *testing.T) {
	venue := approvedVenue()

	for _, qty := range []int{0, -1, 11} {
		_, err := ResolveQuote(venue, nil, qty, 0)
		assert.ErrorIs(t, err, status.ErrInvalidQuantity, "quantity %d", qty)
	}

	_, err := ResolveQuote(venue, nil, 10, 0)
	assert.NoError(t, err)
}

func TestResolveQuote_TemplateMaxPerPurchase(t *testing.T) {
	venue := approvedVenue()
	tmpl := &PassTemplate{
		ID: "tmpl-1", VenueID: "venue-1", Price: decimal.NewFromInt(50),
		IsActive: true, MaxPerPurchase: 4,
	}

	_, err := ResolveQuote(venue, tmpl, 5, 0)
	assert.ErrorIs(t, err, status.ErrInvalidQuantity)

	_, err = ResolveQuote(venue, tmpl, 4, 0)
	assert.NoError(t, err)
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		percent  int
		want     string
	}{
		{"no discount", "70", 0, "70"},
		{"ten percent", "70", 10, "63"},
		{"rounds to cents", "99.99", 15, "84.99"},
		{"full discount", "50", 100, "0"},
		{"out of range ignored", "50", 120, "50"},
		{"negative ignored", "50", -5, "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal := decimal.RequireFromString(tt.subtotal)
			want := decimal.RequireFromString(tt.want)
			got := ApplyDiscount(subtotal, tt.percent)
			assert.True(t, want.Equal(got), "want %s got %s", want, got)
		})
	}
}

func TestComputeSplit_SumsToAmount(t *testing.T) {
	amounts := []string{"35", "70", "99.99", "10.01", "500", "0.03"}

	for _, a := range amounts {
		amount := decimal.RequireFromString(a)
		venueRevenue, platformFee := ComputeSplit(amount, 15)

		assert.True(t, venueRevenue.Add(platformFee).Equal(amount),
			"split of %s must sum exactly: %s + %s", a, venueRevenue, platformFee)

		want := amount.Mul(decimal.NewFromInt(85)).Div(decimal.NewFromInt(100)).Round(2)
		assert.True(t, venueRevenue.Equal(want), "venue share of %s: want %s got %s", a, want, venueRevenue)
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(3500), MinorUnits(decimal.NewFromInt(35)))
	assert.Equal(t, int64(9999), MinorUnits(decimal.RequireFromString("99.99")))
	assert.Equal(t, int64(6300), MinorUnits(decimal.RequireFromString("63.00")))
}

func TestValidatePrice(t *testing.T) {
	assert.ErrorIs(t, ValidatePrice(decimal.NewFromInt(9)), status.ErrPriceOutOfBounds)
	assert.ErrorIs(t, ValidatePrice(decimal.NewFromInt(501)), status.ErrPriceOutOfBounds)
	assert.NoError(t, ValidatePrice(decimal.NewFromInt(10)))
	assert.NoError(t, ValidatePrice(decimal.NewFromInt(500)))
}
