package services

import (
	"strconv"

	"github.com/shopspring/decimal"

	"lightning-pass/internal/status"
	"lightning-pass/models"
)

// PurchaseContext is everything phase 2 needs to fulfill a purchase
// from only the payment handle. The payment intent's metadata is the
// authoritative carrier (no ledger row exists between the phases); the
// redis cache is a fast path over the same data.
type PurchaseContext struct {
	VenueID         string
	VenueName       string
	Email           string
	Phone           string
	Quantity        int
	TemplateID      string
	PassName        string
	UnitPrice       decimal.Decimal
	Subtotal        decimal.Decimal
	DiscountPercent int
	Total           decimal.Decimal
}

func contextFromQuote(venue *models.Venue, email, phone string, q models.Quote) *PurchaseContext {
	return &PurchaseContext{
		VenueID:         venue.ID,
		VenueName:       venue.Name,
		Email:           email,
		Phone:           phone,
		Quantity:        q.Quantity,
		TemplateID:      q.TemplateID,
		PassName:        q.PassName,
		UnitPrice:       q.UnitPrice,
		Subtotal:        q.Subtotal,
		DiscountPercent: q.DiscountPercent,
		Total:           q.Total,
	}
}

// ToMetadata flattens the context to the string map the gateway stores
// on the intent.
func (c *PurchaseContext) ToMetadata() map[string]string {
	return map[string]string{
		"platform":         "lightning-pass",
		"venue_id":         c.VenueID,
		"venue_name":       c.VenueName,
		"email":            c.Email,
		"phone":            c.Phone,
		"quantity":         strconv.Itoa(c.Quantity),
		"template_id":      c.TemplateID,
		"pass_name":        c.PassName,
		"unit_price":       c.UnitPrice.String(),
		"subtotal":         c.Subtotal.String(),
		"discount_percent": strconv.Itoa(c.DiscountPercent),
		"total":            c.Total.String(),
	}
}

// ContextFromMetadata rebuilds a purchase context from intent metadata.
// A missing venue or unparsable quantity means the intent was not
// created by this platform's phase 1.
func ContextFromMetadata(md map[string]string) (*PurchaseContext, error) {
	if md == nil || md["venue_id"] == "" {
		return nil, status.ErrContextMissing
	}
	quantity, err := strconv.Atoi(md["quantity"])
	if err != nil || quantity < 1 {
		return nil, status.ErrContextMissing
	}

	c := &PurchaseContext{
		VenueID:    md["venue_id"],
		VenueName:  md["venue_name"],
		Email:      md["email"],
		Phone:      md["phone"],
		Quantity:   quantity,
		TemplateID: md["template_id"],
		PassName:   md["pass_name"],
	}
	c.UnitPrice, _ = decimal.NewFromString(md["unit_price"])
	c.Subtotal, _ = decimal.NewFromString(md["subtotal"])
	c.DiscountPercent, _ = strconv.Atoi(md["discount_percent"])
	c.Total, _ = decimal.NewFromString(md["total"])
	return c, nil
}
