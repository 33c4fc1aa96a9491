package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PassConfirmation is the SMS sent after a successful fulfillment.
func PassConfirmation(venueName, venueTagline, passID, passName string, quantity int, amount decimal.Decimal, validUntil time.Time) string {
	message := fmt.Sprintf(
		"Your Lightning Pass is ready for %s!\n\nPass ID: %s\nPasses: %d\n\nAmount: $%s\nValid until: %s",
		venueName, passID, quantity, amount.StringFixed(2), validUntil.Format("Jan 2, 2006 3:04 PM"),
	)
	if passName != "" {
		message += "\nType: " + passName
	}
	if venueTagline != "" {
		message += "\n\n" + venueTagline
	}
	message += "\n\nShow your pass code at the door!"
	return message
}

// RefundApproved is sent when a customer refund request is approved.
func RefundApproved(venueName, passID string, amount decimal.Decimal) string {
	return fmt.Sprintf(
		"Your refund request for %s has been APPROVED!\n\nPass ID: %s\nRefund Amount: $%s\n\nYour refund will appear in 5-10 business days.",
		venueName, passID, amount.StringFixed(2),
	)
}

// RefundDenied is sent when a customer refund request is denied.
func RefundDenied(venueName, passID, reason string) string {
	return fmt.Sprintf(
		"Your refund request for %s has been denied.\n\nPass ID: %s\nReason: %s\n\nPlease contact the venue if you have questions.",
		venueName, passID, reason,
	)
}

// RefundIssued is sent for venue-initiated refunds.
func RefundIssued(venueName, passID string, amount decimal.Decimal) string {
	return fmt.Sprintf(
		"A refund has been issued for your %s pass!\n\nPass ID: %s\nRefund Amount: $%s\n\nYour refund will appear in 5-10 business days.",
		venueName, passID, amount.StringFixed(2),
	)
}
