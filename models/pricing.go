package models

import (
	"github.com/shopspring/decimal"

	"lightning-pass/internal/status"
)

// DefaultMaxPerPurchase bounds the quantity of a single purchase when
// no template overrides it.
const DefaultMaxPerPurchase = 10

var hundred = decimal.NewFromInt(100)

// Quote is the resolved price breakdown for a purchase. Subtotal is
// preserved pre-discount for audit.
type Quote struct {
	TemplateID      string
	PassName        string
	UnitPrice       decimal.Decimal
	Quantity        int
	Subtotal        decimal.Decimal
	DiscountPercent int
	Total           decimal.Decimal
}

// ResolveQuote computes the price of a purchase: template price when a
// template is given, the venue list price otherwise, times quantity,
// minus the process-wide promotional discount. The discount is passed
// in by the caller so pricing itself carries no ambient state.
func ResolveQuote(venue *Venue, tmpl *PassTemplate, quantity, discountPercent int) (Quote, error) {
	maxQty := DefaultMaxPerPurchase
	if tmpl != nil && tmpl.MaxPerPurchase > 0 {
		maxQty = tmpl.MaxPerPurchase
	}
	if quantity < 1 || quantity > maxQty {
		return Quote{}, status.ErrInvalidQuantity
	}

	q := Quote{Quantity: quantity, UnitPrice: venue.CurrentPrice}
	if tmpl != nil {
		if !tmpl.IsActive {
			return Quote{}, status.ErrTemplateInactive
		}
		if tmpl.VenueID != venue.ID {
			return Quote{}, status.ErrTemplateNotFound
		}
		q.TemplateID = tmpl.ID
		q.PassName = tmpl.Name
		q.UnitPrice = tmpl.Price
	}

	q.Subtotal = q.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	q.DiscountPercent = discountPercent
	q.Total = ApplyDiscount(q.Subtotal, discountPercent)
	return q, nil
}

// ApplyDiscount reduces a subtotal by a whole-number percentage in
// [0, 100], rounded to cents. Values outside the range are ignored.
func ApplyDiscount(subtotal decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 || percent > 100 {
		return subtotal
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(percent))).Div(hundred)
	return subtotal.Mul(factor).Round(2)
}

// ComputeSplit derives the venue/platform revenue split from a captured
// amount. The venue share is rounded to cents and the platform fee is
// the remainder, so the two always sum to the amount exactly.
func ComputeSplit(amount decimal.Decimal, platformFeePercent int64) (venueRevenue, platformFee decimal.Decimal) {
	venuePct := hundred.Sub(decimal.NewFromInt(platformFeePercent))
	venueRevenue = amount.Mul(venuePct).Div(hundred).Round(2)
	platformFee = amount.Sub(venueRevenue)
	return venueRevenue, platformFee
}

// MinorUnits converts a dollar amount to integer cents for the gateway
// boundary.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
