package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/status"
)

// Collection names used across services and migrations.
const (
	CollectionVenues         = "venues"
	CollectionPasses         = "passes"
	CollectionPassTemplates  = "pass_templates"
	CollectionTransactions   = "transactions"
	CollectionRefundRequests = "refund_requests"
	CollectionSettings       = "settings"
)

// Venue approval states. An empty value means the venue predates the
// approval workflow and is treated as approved.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

type Venue struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Address         string          `json:"address"`
	Capacity        int             `json:"capacity"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	BasePrice       decimal.Decimal `json:"base_price"`
	AvailablePasses int             `json:"available_passes"`
	InLine          int             `json:"in_line"`
	WaitTime        int             `json:"wait_time"`
	Tagline         string          `json:"tagline"`
	IsActive        bool            `json:"is_active"`
	ApprovalStatus  string          `json:"approval_status"`
	OwnerID         string          `json:"owner_id"`
	PayoutAccount   string          `json:"payout_account"`
	LifetimeRevenue decimal.Decimal `json:"lifetime_revenue"`
	PendingPayout   decimal.Decimal `json:"pending_payout"`
	TotalPaidOut    decimal.Decimal `json:"total_paid_out"`
	LastPayoutAt    time.Time       `json:"last_payout_at"`
}

func VenueFromRecord(r *core.Record) *Venue {
	return &Venue{
		ID:              r.Id,
		Name:            r.GetString("name"),
		Type:            r.GetString("type"),
		Address:         r.GetString("address"),
		Capacity:        r.GetInt("capacity"),
		CurrentPrice:    decimal.NewFromFloat(r.GetFloat("current_price")),
		BasePrice:       decimal.NewFromFloat(r.GetFloat("base_price")),
		AvailablePasses: r.GetInt("available_passes"),
		InLine:          r.GetInt("in_line"),
		WaitTime:        r.GetInt("wait_time"),
		Tagline:         r.GetString("tagline"),
		IsActive:        r.GetBool("is_active"),
		ApprovalStatus:  r.GetString("approval_status"),
		OwnerID:         r.GetString("owner"),
		PayoutAccount:   r.GetString("payout_account"),
		LifetimeRevenue: decimal.NewFromFloat(r.GetFloat("lifetime_revenue")),
		PendingPayout:   decimal.NewFromFloat(r.GetFloat("pending_payout")),
		TotalPaidOut:    decimal.NewFromFloat(r.GetFloat("total_paid_out")),
		LastPayoutAt:    r.GetDateTime("last_payout_at").Time(),
	}
}

// IsApproved reports whether the venue may be listed and sell passes.
// Legacy venues without an approval status default to approved.
func (v *Venue) IsApproved() bool {
	return v.ApprovalStatus == "" || v.ApprovalStatus == ApprovalApproved
}

// CheckSellable validates the venue-side purchase preconditions in the
// order callers report them: approval, activity, payout account,
// inventory. The first failure wins.
func (v *Venue) CheckSellable(quantity int) error {
	if !v.IsApproved() {
		return status.ErrVenueNotApproved
	}
	if !v.IsActive {
		return status.ErrVenueInactive
	}
	if v.PayoutAccount == "" {
		return status.ErrPayoutAccountMissing
	}
	if v.AvailablePasses < quantity {
		return status.ErrInsufficientPasses
	}
	return nil
}
