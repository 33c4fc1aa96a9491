package models

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/status"
)

// Pass template price bounds in dollars.
var (
	TemplateMinPrice = decimal.NewFromInt(10)
	TemplateMaxPrice = decimal.NewFromInt(500)
)

type PassTemplate struct {
	ID             string          `json:"id"`
	VenueID        string          `json:"venue_id"`
	VenueName      string          `json:"venue_name"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Tagline        string          `json:"tagline"`
	Features       []string        `json:"features"`
	IsActive       bool            `json:"is_active"`
	MaxPerPurchase int             `json:"max_per_purchase"`
}

func PassTemplateFromRecord(r *core.Record) *PassTemplate {
	var features []string
	r.UnmarshalJSONField("features", &features)

	return &PassTemplate{
		ID:             r.Id,
		VenueID:        r.GetString("venue"),
		VenueName:      r.GetString("venue_name"),
		Name:           r.GetString("name"),
		Description:    r.GetString("description"),
		Price:          decimal.NewFromFloat(r.GetFloat("price")),
		Tagline:        r.GetString("tagline"),
		Features:       features,
		IsActive:       r.GetBool("is_active"),
		MaxPerPurchase: r.GetInt("max_per_purchase"),
	}
}

// ValidatePrice enforces the [10, 500] template price bounds.
func ValidatePrice(price decimal.Decimal) error {
	if price.LessThan(TemplateMinPrice) || price.GreaterThan(TemplateMaxPrice) {
		return status.ErrPriceOutOfBounds
	}
	return nil
}
