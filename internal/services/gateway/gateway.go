// Package gateway defines the narrow port to the card processor. The
// core consumes split payment intents, refunds with transfer reversal
// and payouts through this interface; the concrete processor stays
// behind it.
package gateway

import (
	"context"
)

// IntentStatus values mirror the processor's payment intent lifecycle.
type IntentStatus string

const (
	StatusRequiresPayment      IntentStatus = "requires_payment_method"
	StatusRequiresConfirmation IntentStatus = "requires_confirmation"
	StatusProcessing           IntentStatus = "processing"
	StatusSucceeded            IntentStatus = "succeeded"
	StatusCanceled             IntentStatus = "canceled"
)

// NeedsConfirmation reports whether an intent is still waiting on a
// payment method or confirmation, the states the sandbox convenience
// path may auto-confirm once.
func (s IntentStatus) NeedsConfirmation() bool {
	return s == StatusRequiresPayment || s == StatusRequiresConfirmation
}

// Intent is the durable carrier of purchase context between the two
// fulfillment phases. Amounts are in minor units (cents).
type Intent struct {
	ID             string            `json:"id"`
	ClientSecret   string            `json:"client_secret"`
	Status         IntentStatus      `json:"status"`
	Amount         int64             `json:"amount"`
	ApplicationFee int64             `json:"application_fee"`
	Destination    string            `json:"destination"`
	ReceiptEmail   string            `json:"receipt_email"`
	ChargeID       string            `json:"charge_id"`
	Metadata       map[string]string `json:"metadata"`
}

// CreateIntentRequest describes a destination charge: the full amount
// is charged to the customer, the platform keeps FeePercent and the
// remainder settles to Destination.
type CreateIntentRequest struct {
	AmountCents  int64
	ReceiptEmail string
	Destination  string
	FeePercent   int64
}

// Refund is the processor's record of a reversal. TransferReversed
// reports whether the venue's transferred share was clawed back.
type Refund struct {
	ID               string `json:"id"`
	IntentID         string `json:"intent_id"`
	Amount           int64  `json:"amount"`
	TransferReversed bool   `json:"transfer_reversed"`
}

// Event is a webhook notification from the processor.
type Event struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	IntentID string `json:"payment_intent"`
	Created  int64  `json:"created"`
}

// Well-known event types the reconciliation path observes.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

type Gateway interface {
	// CreateSplitIntent creates a payment intent configured to split
	// settlement between the destination account and the platform fee.
	CreateSplitIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)

	// AttachMetadata stores purchase context on an existing intent.
	AttachMetadata(ctx context.Context, intentID string, metadata map[string]string) error

	// RetrieveIntent fetches the current state of an intent, metadata
	// included.
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)

	// ConfirmIntent confirms an intent with a test instrument. Sandbox
	// convenience for flows where the client never confirmed.
	ConfirmIntent(ctx context.Context, intentID, instrument string) (*Intent, error)

	// RefundIntent refunds the charge behind an intent. reverseTransfer
	// must be true for split charges or the destination keeps funds
	// that should return to the customer.
	RefundIntent(ctx context.Context, intentID string, reverseTransfer bool) (*Refund, error)

	// Transfer moves funds to a destination account outside a charge.
	// Used by the legacy pull-model payout.
	Transfer(ctx context.Context, destination string, amountCents int64, description string) (string, error)
}
