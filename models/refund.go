package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// Refund request states.
const (
	RefundPending  = "pending"
	RefundApproved = "approved"
	RefundDenied   = "denied"
)

// MinRefundReasonLength is the minimum length of a customer-supplied
// refund reason.
const MinRefundReasonLength = 10

type RefundRequest struct {
	ID           string          `json:"id"`
	RequestID    string          `json:"request_id"`
	PassID       string          `json:"pass_id"`
	VenueID      string          `json:"venue_id"`
	CustomerID   string          `json:"customer_id"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Reason       string          `json:"reason"`
	Status       string          `json:"status"`
	RespondedAt  time.Time       `json:"responded_at,omitempty"`
	RespondedBy  string          `json:"responded_by,omitempty"`
	DenialReason string          `json:"denial_reason,omitempty"`
	RefundRef    string          `json:"refund_ref,omitempty"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

func RefundRequestFromRecord(r *core.Record) *RefundRequest {
	return &RefundRequest{
		ID:           r.Id,
		RequestID:    r.GetString("request_id"),
		PassID:       r.GetString("pass_id"),
		VenueID:      r.GetString("venue"),
		CustomerID:   r.GetString("customer"),
		Email:        r.GetString("email"),
		Phone:        r.GetString("phone"),
		Reason:       r.GetString("reason"),
		Status:       r.GetString("status"),
		RespondedAt:  r.GetDateTime("responded_at").Time(),
		RespondedBy:  r.GetString("responded_by"),
		DenialReason: r.GetString("denial_reason"),
		RefundRef:    r.GetString("refund_ref"),
		RefundAmount: decimal.NewFromFloat(r.GetFloat("refund_amount")),
	}
}
