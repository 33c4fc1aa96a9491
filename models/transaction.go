package models

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// Transaction statuses.
const (
	TransactionCompleted = "completed"
	TransactionRefunded  = "refunded"
)

// Transaction is the immutable financial record minted alongside a
// pass. The venue/platform split is always derived arithmetically from
// the captured amount, regardless of how the gateway settled it.
type Transaction struct {
	ID           string          `json:"id"`
	PassID       string          `json:"pass_id"`
	VenueID      string          `json:"venue_id"`
	VenueName    string          `json:"venue_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Amount       decimal.Decimal `json:"amount"`
	VenueRevenue decimal.Decimal `json:"venue_revenue"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	ChargeRef    string          `json:"charge_ref"`
	RefundRef    string          `json:"refund_ref,omitempty"`
	Status       string          `json:"status"`
}

func TransactionFromRecord(r *core.Record) *Transaction {
	return &Transaction{
		ID:           r.Id,
		PassID:       r.GetString("pass_id"),
		VenueID:      r.GetString("venue"),
		VenueName:    r.GetString("venue_name"),
		Email:        r.GetString("email"),
		Phone:        r.GetString("phone"),
		Amount:       decimal.NewFromFloat(r.GetFloat("amount")),
		VenueRevenue: decimal.NewFromFloat(r.GetFloat("venue_revenue")),
		PlatformFee:  decimal.NewFromFloat(r.GetFloat("platform_fee")),
		ChargeRef:    r.GetString("charge_ref"),
		RefundRef:    r.GetString("refund_ref"),
		Status:       r.GetString("status"),
	}
}
