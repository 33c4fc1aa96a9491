package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/status"
)

// Pass lifecycle states. Active is the only non-terminal state.
const (
	PassActive    = "active"
	PassUsed      = "used"
	PassExpired   = "expired"
	PassRefunded  = "refunded"
	PassCancelled = "cancelled"
)

type Pass struct {
	ID              string          `json:"id"`
	PassID          string          `json:"pass_id"`
	VenueID         string          `json:"venue_id"`
	VenueName       string          `json:"venue_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	PassName        string          `json:"pass_name,omitempty"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	Quantity        int             `json:"quantity"`
	Amount          decimal.Decimal `json:"amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent int             `json:"discount_percent"`
	Code            string          `json:"code"`
	Status          string          `json:"status"`
	ValidUntil      time.Time       `json:"valid_until"`
	UsedAt          time.Time       `json:"used_at,omitempty"`
	UsedBy          string          `json:"used_by,omitempty"`
	RefundRequested bool            `json:"refund_requested"`
	PaymentIntent   string          `json:"payment_intent"`
}

func PassFromRecord(r *core.Record) *Pass {
	return &Pass{
		ID:              r.Id,
		PassID:          r.GetString("pass_id"),
		VenueID:         r.GetString("venue"),
		VenueName:       r.GetString("venue_name"),
		Email:           r.GetString("email"),
		Phone:           r.GetString("phone"),
		PassName:        r.GetString("pass_name"),
		PurchasePrice:   decimal.NewFromFloat(r.GetFloat("purchase_price")),
		Quantity:        r.GetInt("quantity"),
		Amount:          decimal.NewFromFloat(r.GetFloat("amount")),
		Subtotal:        decimal.NewFromFloat(r.GetFloat("subtotal")),
		DiscountPercent: r.GetInt("discount_percent"),
		Code:            r.GetString("code"),
		Status:          r.GetString("status"),
		ValidUntil:      r.GetDateTime("valid_until").Time(),
		UsedAt:          r.GetDateTime("used_at").Time(),
		UsedBy:          r.GetString("used_by"),
		RefundRequested: r.GetBool("refund_requested"),
		PaymentIntent:   r.GetString("payment_intent"),
	}
}

// CheckEntry reports whether the pass can be presented at the door at
// the given time. An active pass past its validity window returns
// ErrPassExpired; callers persist the expired state as a side effect.
func (p *Pass) CheckEntry(now time.Time) error {
	if p.Status != PassActive {
		return status.ErrPassNotActive
	}
	if !p.ValidUntil.IsZero() && now.After(p.ValidUntil) {
		return status.ErrPassExpired
	}
	return nil
}

// CheckCustomerRefundable applies the customer-initiated refund rules:
// refunded and used passes are out, as is a pass with a request already
// pending.
func (p *Pass) CheckCustomerRefundable() error {
	if p.Status == PassRefunded {
		return status.ErrAlreadyRefunded
	}
	if p.Status == PassUsed {
		return status.ErrPassUsed
	}
	if p.RefundRequested {
		return status.ErrRefundPending
	}
	return nil
}

// CheckVenueRefundable applies the venue-initiated refund rules. Venues
// may reverse used passes at their discretion; only an already-refunded
// pass is blocked.
func (p *Pass) CheckVenueRefundable() error {
	if p.Status == PassRefunded {
		return status.ErrAlreadyRefunded
	}
	if p.Status != PassActive && p.Status != PassUsed {
		return status.ErrPassNotActive
	}
	return nil
}
